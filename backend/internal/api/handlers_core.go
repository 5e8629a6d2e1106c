package api

import (
	"net/http"

	"sensor-dashboard/backend/internal/apicommon"
	"sensor-dashboard/backend/internal/shared/types"
	"sensor-dashboard/backend/pkg/router"
	"sensor-dashboard/backend/pkg/utils"
)

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) error {
	apicommon.RespondJSON(w, r, http.StatusOK, types.PingResponse{
		Message: "Pong", Status: types.PingStatusOK, Version: h.version,
	})

	return nil
}

func (h *Handler) RegisterPing(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "ping",
		Summary:     "Ping the server",
		Description: "Check if the server is alive",
		Group:       CoreGroup,
		Handler:     apicommon.ErrorHandler(h.Ping),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Successful ping response",
				Type:        types.PingResponse{},
				Examples: map[string]any{
					"Success": types.PingResponse{Message: "Pong", Status: types.PingStatusOK, Version: "v1.0.0"},
				},
			},
		}),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	status := h.svc.Core.Health(r.Context())
	resp := types.HealthResponse{
		Store:     status.Store,
		StoreKind: status.StoreKind.String(),
		MQTT:      status.MQTT,
	}

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}

	apicommon.RespondJSON(w, r, code, resp)

	return nil
}

func (h *Handler) RegisterHealth(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "health",
		Summary:     "Check server health",
		Description: "Check that the reading store answers and, when ingest is enabled, that the MQTT client is connected",
		Group:       CoreGroup,
		Handler:     apicommon.ErrorHandler(h.Health),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Successful health response",
				Type:        types.HealthResponse{},
				Examples: map[string]any{
					"Supabase":      types.HealthResponse{Store: true, StoreKind: "supabase"},
					"SQLite Ingest": types.HealthResponse{Store: true, StoreKind: "sqlite", MQTT: utils.Ptr(true)},
				},
			},
			503: {
				Description: "A dependency is unavailable",
				Type:        types.HealthResponse{},
				Examples: map[string]any{
					"Store Unavailable": types.HealthResponse{Store: false, StoreKind: "supabase"},
					"MQTT Unavailable":  types.HealthResponse{Store: true, StoreKind: "badger", MQTT: utils.Ptr(false)},
				},
			},
		}),
	})
}

func (h *Handler) OpenAPI(w http.ResponseWriter, r *http.Request) error {
	if h.openapi == nil {
		return apicommon.NewError(http.StatusNotFound, "API documentation is not available")
	}

	doc, err := h.openapi()
	if err != nil {
		return apicommon.NewError(http.StatusInternalServerError, "Failed to render API documentation").WithCause(err)
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(doc); err != nil {
		apicommon.GetLogger(r.Context()).Warn("failed to write API documentation", utils.ErrAttr(err))
	}

	return nil
}

func (h *Handler) RegisterOpenAPI(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getOpenAPI",
		Summary:     "Get the API documentation",
		Description: "Returns the OpenAPI 3 document of every registered route and MQTT subscription",
		Group:       CoreGroup,
		Handler:     apicommon.ErrorHandler(h.OpenAPI),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {Description: "OpenAPI document in YAML", Type: ""},
			404: {Description: "Documentation disabled", Type: types.ErrorResponse{}},
		}),
	})
}
