package generate

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"reflect"
	"slices"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/oasdiff/yaml"
)

// OpenAPIVersion is the OpenAPI specification version of generated documents.
const OpenAPIVersion = "3.0.3"

// RouteMetadataCollector receives the metadata of every registered HTTP route.
type RouteMetadataCollector interface {
	RegisterRoute(route *RouteInfo) error
}

// MQTTMetadataCollector receives the metadata of every registered MQTT subscription.
type MQTTMetadataCollector interface {
	RegisterMQTTSubscription(sub *MQTTSubscriptionInfo) error
}

type MetadataCollector interface {
	RouteMetadataCollector
	MQTTMetadataCollector
}

type ParameterInfo struct {
	Name        string
	In          string
	TypeValue   any
	Description string
	Required    bool
}

type ResponseInfo struct {
	Description string
	TypeValue   any
	Examples    map[string]any
}

type RouteInfo struct {
	OperationID string
	Method      string
	Path        string
	Summary     string
	Description string
	Group       string
	Deprecated  string
	Parameters  []ParameterInfo
	Responses   map[int]ResponseInfo
}

type MQTTSubscriptionInfo struct {
	OperationID string
	Topic       string
	Summary     string
	Description string
	Group       string
}

// NoopCollector discards everything registered with it.
type NoopCollector struct{}

func (NoopCollector) RegisterRoute(*RouteInfo) error                       { return nil }
func (NoopCollector) RegisterMQTTSubscription(*MQTTSubscriptionInfo) error { return nil }

type APIInfo struct {
	Title       string
	Version     string
	Description string
	ServerURL   string
}

// OpenAPICollector builds an OpenAPI document out of the registered routes.
type OpenAPICollector struct {
	mu      sync.Mutex
	l       *slog.Logger
	doc     *openapi3.T
	ops     map[string]struct{}
	schemas openapi3.Schemas
	mqtt    map[string]*MQTTSubscriptionInfo
}

func NewOpenAPICollector(l *slog.Logger, info APIInfo) (*OpenAPICollector, error) {
	if info.Title == "" || info.Version == "" {
		return nil, errors.New("api title and version are required")
	}

	doc := &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
	}

	if info.ServerURL != "" {
		doc.Servers = openapi3.Servers{&openapi3.Server{URL: info.ServerURL}}
	}

	return &OpenAPICollector{
		l:       l.With(slog.String("component", "openapi-collector")),
		doc:     doc,
		ops:     make(map[string]struct{}),
		schemas: make(openapi3.Schemas),
		mqtt:    make(map[string]*MQTTSubscriptionInfo),
	}, nil
}

func (g *OpenAPICollector) register(operationID string) error {
	if !IsValidOperationID(operationID) {
		return fmt.Errorf("operationID %q contains invalid characters (only characters a-z, A-Z are allowed)", operationID)
	}

	if _, exists := g.ops[operationID]; exists {
		return fmt.Errorf("duplicate operationID: %s", operationID)
	}

	g.ops[operationID] = struct{}{}

	return nil
}

func (g *OpenAPICollector) RegisterRoute(route *RouteInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(route.Responses) == 0 {
		return fmt.Errorf("route [%s] must document at least one response", route.OperationID)
	}

	if err := g.register(route.OperationID); err != nil {
		return err
	}

	op := openapi3.NewOperation()
	op.OperationID = route.OperationID
	op.Summary = route.Summary
	op.Description = route.Description
	op.Tags = []string{route.Group}
	op.Deprecated = route.Deprecated != ""

	for _, param := range route.Parameters {
		p, err := g.parameter(param)
		if err != nil {
			return fmt.Errorf("failed to process parameter %s in route [%s]: %w", param.Name, route.OperationID, err)
		}

		op.AddParameter(p)
	}

	responses := make([]openapi3.NewResponsesOption, 0, len(route.Responses))

	for _, code := range slices.Sorted(maps.Keys(route.Responses)) {
		resp := route.Responses[code]
		if resp.TypeValue == nil {
			return fmt.Errorf("response TypeValue must not be nil in route [%s] for status %d", route.OperationID, code)
		}

		ref, err := g.schemaFor(resp.TypeValue)
		if err != nil {
			return fmt.Errorf("failed to process response type for status %d in route [%s]: %w", code, route.OperationID, err)
		}

		description := resp.Description
		if description == "" {
			description = http.StatusText(code)
		}

		r := openapi3.NewResponse().WithDescription(description).WithJSONSchemaRef(ref)
		if len(resp.Examples) > 0 {
			examples := make(openapi3.Examples, len(resp.Examples))
			for name, value := range resp.Examples {
				examples[name] = &openapi3.ExampleRef{Value: openapi3.NewExample(value)}
			}

			r.Content.Get("application/json").Examples = examples
		}

		responses = append(responses, openapi3.WithStatus(code, &openapi3.ResponseRef{Value: r}))
	}

	op.Responses = openapi3.NewResponses(responses...)

	g.doc.AddOperation(route.Path, route.Method, op)
	g.l.Debug("registered route", slog.String("operation_id", route.OperationID), slog.String("path", route.Path))

	return nil
}

func (g *OpenAPICollector) RegisterMQTTSubscription(sub *MQTTSubscriptionInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if sub.Topic == "" {
		return fmt.Errorf("topic is required for subscription [%s]", sub.OperationID)
	}

	if err := g.register(sub.OperationID); err != nil {
		return err
	}

	g.mqtt[sub.OperationID] = sub

	return nil
}

func (g *OpenAPICollector) parameter(param ParameterInfo) (*openapi3.Parameter, error) {
	var p *openapi3.Parameter

	switch param.In {
	case openapi3.ParameterInPath:
		p = openapi3.NewPathParameter(param.Name)
	case openapi3.ParameterInQuery:
		p = openapi3.NewQueryParameter(param.Name)
	case openapi3.ParameterInHeader:
		p = openapi3.NewHeaderParameter(param.Name)
	default:
		return nil, fmt.Errorf("unsupported parameter location %q", param.In)
	}

	ref, err := g.schemaFor(param.TypeValue)
	if err != nil {
		return nil, err
	}

	p.Description = param.Description
	p.Required = param.Required || param.In == openapi3.ParameterInPath
	p.Schema = ref

	return p, nil
}

func (g *OpenAPICollector) schemaFor(value any) (*openapi3.SchemaRef, error) {
	if value == nil || (reflect.ValueOf(value).Kind() == reflect.Pointer && reflect.ValueOf(value).IsNil()) {
		return nil, errors.New("type value must not be nil")
	}

	return openapi3gen.NewSchemaRefForValue(value, g.schemas)
}

// Document returns the OpenAPI document, with the MQTT subscriptions listed
// under the x-mqtt-subscriptions extension.
func (g *OpenAPICollector) Document() *openapi3.T {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.mqtt) == 0 {
		return g.doc
	}

	subs := make([]map[string]string, 0, len(g.mqtt))
	for _, id := range slices.Sorted(maps.Keys(g.mqtt)) {
		sub := g.mqtt[id]
		subs = append(subs, map[string]string{
			"operationId": sub.OperationID,
			"topic":       sub.Topic,
			"summary":     sub.Summary,
			"description": sub.Description,
			"group":       sub.Group,
		})
	}

	if g.doc.Extensions == nil {
		g.doc.Extensions = map[string]any{}
	}

	g.doc.Extensions["x-mqtt-subscriptions"] = subs

	return g.doc
}

// YAML renders the OpenAPI document as YAML.
func (g *OpenAPICollector) YAML() ([]byte, error) {
	data, err := yaml.Marshal(g.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal openapi document: %w", err)
	}

	return data, nil
}

// WriteYAML writes the OpenAPI document to filename.
func (g *OpenAPICollector) WriteYAML(filename string) error {
	data, err := g.YAML()
	if err != nil {
		return err
	}

	g.l.Info("writing openapi document", slog.String("file", filename))

	return os.WriteFile(filename, data, 0o600)
}
