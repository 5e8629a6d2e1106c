package api

import (
	"errors"
	"net/http"
	"time"

	"sensor-dashboard/backend/internal/apicommon"
	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/shared/types"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/router"
	"sensor-dashboard/backend/pkg/utils"
)

// Client facing messages. The underlying errors are only logged.
const (
	NoSensorDataMessage         = "No sensor data available"
	SensorDataFailedMessage     = "Failed to fetch sensor data from Supabase."
	HistoricalDataFailedMessage = "Failed to fetch historical sensor data from Supabase."
	HistoryFailedMessage        = "Failed to fetch 24h history from Supabase."
)

var exampleTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func (h *Handler) SensorData(w http.ResponseWriter, r *http.Request) error {
	reading, err := h.svc.Sensor.Latest(r.Context())
	if errors.Is(err, store.ErrNoData) {
		return apicommon.NewError(http.StatusServiceUnavailable, NoSensorDataMessage)
	}

	if err != nil {
		return apicommon.NewError(http.StatusInternalServerError, SensorDataFailedMessage).WithCause(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, reading)

	return nil
}

func (h *Handler) RegisterSensorData(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getSensorData",
		Summary:     "Get the latest reading",
		Description: "Returns the most recent sensor reading with fixed precision display strings",
		Group:       SensorGroup,
		Handler:     apicommon.ErrorHandler(h.SensorData),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Latest reading",
				Type:        sensor.Reading{},
				Examples: map[string]any{
					"Full": sensor.Reading{
						Temperature:  "24.6",
						Humidity:     "58.2",
						Pressure:     "1012.4",
						Altitude:     utils.Ptr("84.1"),
						Acceleration: &sensor.Acceleration{X: "0.03", Y: "-0.12", Z: "9.81"},
						CreatedAt:    exampleTime,
					},
					"Without Motion": sensor.Reading{Temperature: "24.6", Humidity: "58.2", Pressure: "1012.4", CreatedAt: exampleTime},
				},
			},
			503: {
				Description: "The table holds no reading yet",
				Type:        types.ErrorResponse{},
				Examples: map[string]any{
					"Empty": types.ErrorResponse{Message: NoSensorDataMessage},
				},
			},
		}),
	})
}

func (h *Handler) TemperatureHistory(w http.ResponseWriter, r *http.Request) error {
	points, err := h.svc.Sensor.TemperatureHistory(r.Context())
	if err != nil {
		return apicommon.NewError(http.StatusInternalServerError, HistoricalDataFailedMessage).WithCause(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, points)

	return nil
}

func (h *Handler) RegisterTemperatureHistory(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, router.RouteSpec{
		OperationID: "getTemperatureHistory",
		Summary:     "Get the 24h temperature series",
		Description: "Returns the temperature samples of the last 24 hours, oldest first. Rows without a temperature are skipped.",
		Group:       SensorGroup,
		Handler:     apicommon.ErrorHandler(h.TemperatureHistory),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Temperature series",
				Type:        []sensor.HistoryPoint{},
				Examples: map[string]any{
					"Series": []sensor.HistoryPoint{
						{Timestamp: exampleTime.Add(-time.Hour), Temperature: 20},
						{Timestamp: exampleTime, Temperature: 22},
					},
					"Empty": []sensor.HistoryPoint{},
				},
			},
		}),
	})
}

func (h *Handler) SensorHistory(w http.ResponseWriter, r *http.Request) error {
	history, err := h.svc.Sensor.History(r.Context())
	if err != nil {
		return apicommon.NewError(http.StatusInternalServerError, HistoryFailedMessage).WithCause(err)
	}

	apicommon.RespondJSON(w, r, http.StatusOK, history)

	return nil
}

func (h *Handler) sensorHistorySpec(operationID, deprecated string) router.RouteSpec {
	return router.RouteSpec{
		OperationID: operationID,
		Summary:     "Get the 24h history of every metric",
		Description: "Returns parallel arrays of the last 24 hours with HH:MM timestamps. Missing measurements are 0. An empty window answers 200 with a message.",
		Group:       SensorGroup,
		Deprecated:  deprecated,
		Handler:     apicommon.ErrorHandler(h.SensorHistory),
		Responses: apicommon.GenerateResponses(map[int]router.ResponseSpec{
			200: {
				Description: "Parallel-array history",
				Type:        sensor.History{},
				Examples: map[string]any{
					"History": sensor.History{
						Timestamps:  []string{"11:00", "12:00"},
						Temperature: []float64{20, 22},
						Humidity:    []float64{55, 54},
						Pressure:    []float64{1012, 1013},
						Altitude:    []float64{0, 0},
						Acceleration: &sensor.AccelerationSeries{
							X: []float64{0.01, 0.02},
							Y: []float64{-0.1, -0.1},
							Z: []float64{9.8, 9.81},
						},
					},
					"Empty": sensor.History{Message: sensor.NoHistoryMessage},
				},
			},
		}),
	}
}

func (h *Handler) RegisterSensorHistory(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, h.sensorHistorySpec("getSensorHistory", ""))
}

// RegisterSensorHistoryAlias serves the same history under the older sensor-data path.
func (h *Handler) RegisterSensorHistoryAlias(path string, rb *router.RouteBuilder) {
	rb.MustGet(path, h.sensorHistorySpec("getSensorDataSensorHistory", "Use /api/sensor-history instead."))
}
