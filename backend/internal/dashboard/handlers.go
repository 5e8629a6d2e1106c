package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sensor-dashboard/backend/internal/apicommon"
	"sensor-dashboard/backend/internal/charts"
	"sensor-dashboard/backend/internal/scene"
	"sensor-dashboard/backend/internal/shared/types"
	"sensor-dashboard/backend/pkg/projection"
	"sensor-dashboard/backend/pkg/router"
	"sensor-dashboard/backend/pkg/utils"
	"sensor-dashboard/web"
)

const Group = "Dashboard"

// Client facing messages.
const (
	UnknownMetricMessage    = "Unknown metric"
	ChartUnavailableMessage = "No history for this metric yet"
)

// FocusParam marks a scene request sent because the view regained focus.
const FocusParam = "focus"

// Scene coordinates are mapped to percentages of the scene box.
const (
	sceneHalfWidth  = 8.0
	sceneHalfHeight = 5.0
)

type Handler struct {
	l       *slog.Logger
	d       *Dashboard
	page    *template.Template
	version string
}

func NewHandler(l *slog.Logger, d *Dashboard, version string) (*Handler, error) {
	page, err := web.Templates(templateFuncs())
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Handler{
		l:       l.With(slog.String("component", "dashboard-http")),
		d:       d,
		page:    page,
		version: version,
	}, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"position": position,
		"chartURL": chartURL,
		"points":   points,
		"flip":     func(y float64) float64 { return -y },
	}
}

func position(v projection.Vec3) template.CSS {
	left := 50 + v.X/sceneHalfWidth*50
	top := 50 - v.Y/sceneHalfHeight*50

	return template.CSS(fmt.Sprintf("left: %.2f%%; top: %.2f%%", left, top))
}

func chartURL(m scene.Metric) string {
	return "/api/charts/" + string(m) + ".svg"
}

// points formats a curve as an SVG polyline, with y pointing down.
func points(ps []projection.Vec3) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("%.3f,%.3f", p.X, -p.Y)
	}

	return strings.Join(parts, " ")
}

type pageData struct {
	Version       string
	Scene         scene.Scene
	RefreshMillis int64
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) error {
	data := pageData{
		Version:       h.version,
		Scene:         h.d.Scene(),
		RefreshMillis: h.d.current.Config().Interval.Milliseconds(),
	}

	var buf bytes.Buffer
	if err := h.page.ExecuteTemplate(&buf, web.PageTemplate, data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(buf.Bytes()); err != nil {
		apicommon.GetLogger(r.Context()).Warn("failed to write page", utils.ErrAttr(err))
	}

	return nil
}

func (h *Handler) RegisterPage(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getDashboard",
		Summary:     "Get the dashboard page",
		Description: "Renders the HTML page with the current scene, the welcome dialog and the caption",
		Group:       Group,
		Handler:     apicommon.ErrorHandler(h.Page),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {Description: "HTML page", Type: ""},
		}),
	})
}

// Scene returns the composed scene. Only requests carrying FocusParam
// revalidate the current reading, periodic polls do not.
func (h *Handler) Scene(w http.ResponseWriter, r *http.Request) error {
	if r.URL.Query().Has(FocusParam) {
		h.d.Revalidate()
	}

	apicommon.RespondJSON(w, r, http.StatusOK, h.d.Scene())

	return nil
}

func (h *Handler) RegisterScene(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getScene",
		Summary:     "Get the scene",
		Description: "Returns the branch, data points, mini charts and temperature graph derived from the feeds",
		Group:       Group,
		Parameters: map[string]router.ParameterSpec{
			FocusParam: {
				In:          router.ParameterInQuery,
				Description: "Set when the view regained focus, refetches the current reading",
				Required:    false,
				Type:        "",
			},
		},
		Handler: apicommon.ErrorHandler(h.Scene),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Current scene",
				Type:        scene.Scene{},
				Examples: map[string]any{
					"Loading": scene.Scene{Branch: scene.BranchLoading, Message: "Loading...", Points: []scene.DataPoint{}},
					"Error":   scene.Scene{Branch: scene.BranchError, Message: "Failed to load data", Points: []scene.DataPoint{}},
				},
			},
		}),
	})
}

func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) error {
	m := scene.Metric(chi.URLParam(r, "metric"))

	spec, err := h.d.Chart(m)

	switch {
	case errors.Is(err, ErrChartUnavailable):
		return apicommon.NewError(http.StatusServiceUnavailable, ChartUnavailableMessage)
	case err != nil:
		return apicommon.NewError(http.StatusNotFound, UnknownMetricMessage).WithCause(err)
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, spec); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(buf.Bytes()); err != nil {
		apicommon.GetLogger(r.Context()).Warn("failed to write chart", utils.ErrAttr(err))
	}

	return nil
}

func (h *Handler) RegisterChart(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getMetricChart",
		Summary:     "Get the mini chart of a metric",
		Description: "Renders the 24h history of a metric as SVG",
		Group:       Group,
		Parameters: map[string]router.ParameterSpec{
			"metric": {
				In:          router.ParameterInPath,
				Description: "One of temperature, humidity, pressure, altitude, acceleration",
				Required:    true,
				Type:        "",
			},
		},
		Handler: apicommon.ErrorHandler(h.Chart),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {Description: "SVG image", Type: ""},
			404: {
				Description: "Unknown metric",
				Type:        types.ErrorResponse{},
				Examples:    map[string]any{"Unknown": types.ErrorResponse{Message: UnknownMetricMessage}},
			},
			503: {
				Description: "History is not loaded or lacks the metric",
				Type:        types.ErrorResponse{},
				Examples:    map[string]any{"Unavailable": types.ErrorResponse{Message: ChartUnavailableMessage}},
			},
		}),
	})
}
