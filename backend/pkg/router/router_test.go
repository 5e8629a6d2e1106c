package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"sensor-dashboard/backend/pkg/generate"
)

type recordingCollector struct {
	routes []*generate.RouteInfo
}

func (c *recordingCollector) RegisterRoute(route *generate.RouteInfo) error {
	c.routes = append(c.routes, route)
	return nil
}

func newTestBuilder(t *testing.T) (*RouteBuilder, *recordingCollector) {
	t.Helper()

	c := &recordingCollector{}

	rb, err := NewRouteBuilder(slog.New(slog.NewTextHandler(io.Discard, nil)), c)
	if err != nil {
		t.Fatalf("NewRouteBuilder() error = %v", err)
	}

	return rb, c
}

func chartSpec() RouteSpec {
	return RouteSpec{
		OperationID: "getChart",
		Summary:     "Chart",
		Description: "Renders a chart",
		Group:       "Dashboard",
		Parameters: map[string]ParameterSpec{
			"metric": {In: ParameterInPath, Description: "Metric name", Required: true, Type: ""},
		},
		Responses: map[int]ResponseSpec{200: {Type: ""}},
		Handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, chi.URLParam(r, "metric"))
		},
	}
}

func TestRouteBuilderServesAndCollects(t *testing.T) {
	t.Parallel()

	rb, c := newTestBuilder(t)

	rb.Route("/api", func(rb *RouteBuilder) {
		rb.Route("/charts", func(rb *RouteBuilder) {
			rb.MustGet("/{metric}.svg", chartSpec())
		})
	})

	if len(c.routes) != 1 {
		t.Fatalf("collected %d routes, want 1", len(c.routes))
	}

	if got := c.routes[0].Path; got != "/api/charts/{metric}.svg" {
		t.Errorf("collected path = %q", got)
	}

	rec := httptest.NewRecorder()
	rb.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/humidity.svg", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "humidity" {
		t.Errorf("got %d %q, want 200 \"humidity\"", rec.Code, rec.Body.String())
	}
}

func TestRouteBuilderRejectsInvalidSpecs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		mutate  func(s *RouteSpec)
		wantErr string
	}{
		{"missing operation id", "/{metric}", func(s *RouteSpec) { s.OperationID = "" }, "OperationID required"},
		{"missing handler", "/{metric}", func(s *RouteSpec) { s.Handler = nil }, "Handler required"},
		{"undocumented path param", "/{metric}/{day}", func(*RouteSpec) {}, "path parameter day not documented"},
		{"documented param missing from path", "/static", func(*RouteSpec) {}, "not found in path"},
		{"optional path param", "/{metric}", func(s *RouteSpec) {
			s.Parameters["metric"] = ParameterSpec{In: ParameterInPath, Description: "x", Type: ""}
		}, "must be required"},
		{"bad location", "/{metric}", func(s *RouteSpec) {
			s.Parameters["metric"] = ParameterSpec{In: "cookie", Description: "x", Type: "", Required: true}
		}, "In must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rb, c := newTestBuilder(t)
			spec := chartSpec()
			tt.mutate(&spec)

			err := rb.Get(tt.path, spec)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Get() error = %v, want containing %q", err, tt.wantErr)
			}

			if len(c.routes) != 0 {
				t.Error("invalid route was collected")
			}
		})
	}
}

func TestNewRouteBuilderRequiresCollector(t *testing.T) {
	t.Parallel()

	if _, err := NewRouteBuilder(slog.Default(), nil); err == nil {
		t.Fatal("expected error for nil collector")
	}
}
