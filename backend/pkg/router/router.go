package router

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"sensor-dashboard/backend/pkg/generate"
)

type ParameterIn string

const (
	ParameterInPath   ParameterIn = "path"
	ParameterInQuery  ParameterIn = "query"
	ParameterInHeader ParameterIn = "header"
)

type ParameterSpec struct {
	In          ParameterIn
	Description string
	Required    bool
	// Type is a zero value of the parameter type, used for the schema.
	Type any
}

type ResponseSpec struct {
	Description string
	Type        any
	Examples    map[string]any
}

// RouteSpec documents a route and carries its handler.
type RouteSpec struct {
	OperationID string
	Summary     string
	Description string
	Group       string
	Deprecated  string
	Parameters  map[string]ParameterSpec
	Responses   map[int]ResponseSpec
	Handler     http.HandlerFunc

	method   string
	fullPath string
}

// RouteBuilder registers chi routes and reports each one to a collector.
type RouteBuilder struct {
	l         *slog.Logger
	r         chi.Router
	collector generate.RouteMetadataCollector
	prefix    string
}

func NewRouteBuilder(l *slog.Logger, collector generate.RouteMetadataCollector) (*RouteBuilder, error) {
	if collector == nil {
		return nil, errors.New("collector is required")
	}

	return &RouteBuilder{
		l:         l.With(slog.String("component", "route-builder")),
		r:         chi.NewRouter(),
		collector: collector,
	}, nil
}

// Router returns the underlying chi router.
func (rb *RouteBuilder) Router() chi.Router {
	return rb.r
}

func (rb *RouteBuilder) Use(middlewares ...func(http.Handler) http.Handler) {
	rb.r.Use(middlewares...)
}

// Route mounts a sub-router under prefix.
func (rb *RouteBuilder) Route(prefix string, fn func(rb *RouteBuilder)) {
	rb.r.Route(prefix, func(r chi.Router) {
		fn(&RouteBuilder{
			l:         rb.l,
			r:         r,
			collector: rb.collector,
			prefix:    generate.SanitizePath(rb.prefix + prefix),
		})
	})
}

// Group creates an inline group that shares the prefix but has its own middleware stack.
func (rb *RouteBuilder) Group(fn func(rb *RouteBuilder)) {
	rb.r.Group(func(r chi.Router) {
		fn(&RouteBuilder{l: rb.l, r: r, collector: rb.collector, prefix: rb.prefix})
	})
}

func (rb *RouteBuilder) Get(path string, spec RouteSpec) error {
	return rb.handle(http.MethodGet, path, spec)
}

// MustGet is Get that panics on an invalid spec.
func (rb *RouteBuilder) MustGet(path string, spec RouteSpec) {
	if err := rb.Get(path, spec); err != nil {
		panic(err)
	}
}

func (rb *RouteBuilder) handle(method, path string, spec RouteSpec) error {
	spec.method = method
	spec.fullPath = generate.SanitizePath(rb.prefix + "/" + path)

	if err := validateRouteSpec(spec); err != nil {
		return fmt.Errorf("invalid route %s %s: %w", method, spec.fullPath, err)
	}

	params, err := generateParameters(spec)
	if err != nil {
		return err
	}

	responses := make(map[int]generate.ResponseInfo, len(spec.Responses))
	for code, resp := range spec.Responses {
		responses[code] = generate.ResponseInfo{
			Description: resp.Description,
			TypeValue:   resp.Type,
			Examples:    resp.Examples,
		}
	}

	if err := rb.collector.RegisterRoute(&generate.RouteInfo{
		OperationID: spec.OperationID,
		Method:      method,
		Path:        spec.fullPath,
		Summary:     spec.Summary,
		Description: spec.Description,
		Group:       spec.Group,
		Deprecated:  spec.Deprecated,
		Parameters:  params,
		Responses:   responses,
	}); err != nil {
		return fmt.Errorf("failed to register route %s %s: %w", method, spec.fullPath, err)
	}

	rb.r.Method(method, path, spec.Handler)
	rb.l.Debug("registered route", slog.String("method", method), slog.String("path", spec.fullPath))

	return nil
}

func validateRouteSpec(spec RouteSpec) error {
	switch {
	case spec.OperationID == "":
		return errors.New("field OperationID required")
	case spec.Summary == "":
		return errors.New("field Summary required")
	case spec.Description == "":
		return errors.New("field Description required")
	case spec.Group == "":
		return errors.New("field Group required")
	case spec.Handler == nil:
		return errors.New("field Handler required")
	}

	return nil
}

// generateParameters checks that every path placeholder is documented as a
// required path parameter and converts the specs for the collector.
func generateParameters(spec RouteSpec) ([]generate.ParameterInfo, error) {
	inPath := map[string]struct{}{}

	for section := range strings.SplitSeq(spec.fullPath, "/") {
		names, err := generate.ExtractParamNames(section)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", spec.fullPath, err)
		}

		for _, name := range names {
			if !generate.IsValidParameterName(name) {
				return nil, fmt.Errorf("invalid parameter name %s in path %s", name, spec.fullPath)
			}

			inPath[name] = struct{}{}
		}
	}

	validIn := []ParameterIn{ParameterInPath, ParameterInQuery, ParameterInHeader}
	documented := map[string]struct{}{}
	params := make([]generate.ParameterInfo, 0, len(spec.Parameters))

	for _, name := range slices.Sorted(maps.Keys(spec.Parameters)) {
		p := spec.Parameters[name]

		switch {
		case p.Description == "":
			return nil, fmt.Errorf("parameter %s Description required for %s %s", name, spec.method, spec.fullPath)
		case p.Type == nil:
			return nil, fmt.Errorf("parameter %s Type required for %s %s", name, spec.method, spec.fullPath)
		case !slices.Contains(validIn, p.In):
			return nil, fmt.Errorf("parameter %s In must be one of %v for %s %s", name, validIn, spec.method, spec.fullPath)
		}

		if p.In == ParameterInPath {
			if _, ok := inPath[name]; !ok {
				return nil, fmt.Errorf("documented path parameter %s not found in path", name)
			}

			if !p.Required {
				return nil, fmt.Errorf("path parameter %s must be required", name)
			}

			documented[name] = struct{}{}
		}

		params = append(params, generate.ParameterInfo{
			Name:        name,
			In:          string(p.In),
			TypeValue:   p.Type,
			Description: p.Description,
			Required:    p.Required,
		})
	}

	for name := range inPath {
		if _, ok := documented[name]; !ok {
			return nil, fmt.Errorf("path parameter %s not documented", name)
		}
	}

	return params, nil
}
