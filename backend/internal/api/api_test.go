package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/services"
	"sensor-dashboard/backend/internal/shared/types"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/generate"
	"sensor-dashboard/backend/pkg/router"
	"sensor-dashboard/backend/pkg/utils"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stubStore struct {
	rows    []sensor.Row
	err     error
	pingErr error
}

func (s *stubStore) Kind() store.Kind           { return store.KindSupabase }
func (s *stubStore) Ping(context.Context) error { return s.pingErr }
func (s *stubStore) Close() error               { return nil }

func (s *stubStore) Latest(context.Context) (sensor.Row, error) {
	if s.err != nil {
		return sensor.Row{}, s.err
	}

	if len(s.rows) == 0 {
		return sensor.Row{}, store.ErrNoData
	}

	return s.rows[len(s.rows)-1], nil
}

func (s *stubStore) Since(context.Context, time.Time) ([]sensor.Row, error) {
	return s.rows, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, st store.Store, openapi DocumentFunc) http.Handler {
	t.Helper()

	l := discardLogger()
	svc := services.NewServices(l, st, nil, services.Options{Now: func() time.Time { return now }})
	h := NewHandler(l, svc, "v0.0.0-test", openapi)

	rb, err := router.NewRouteBuilder(l, generate.NoopCollector{})
	if err != nil {
		t.Fatalf("NewRouteBuilder() error = %v", err)
	}

	rb.Route("/api", func(rb *router.RouteBuilder) {
		h.RegisterPing("/ping", rb)
		h.RegisterHealth("/health", rb)
		h.RegisterOpenAPI("/openapi.yaml", rb)
		h.RegisterSensorHistory("/sensor-history", rb)
		rb.Route("/sensor-data", func(rb *router.RouteBuilder) {
			h.RegisterSensorData("/", rb)
			h.RegisterTemperatureHistory("/history", rb)
			h.RegisterSensorHistoryAlias("/sensor-history", rb)
		})
	})

	return rb.Router()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	v, err := utils.FromJSONStreamLenient[T](rec.Body)
	if err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}

	return v
}

func fullRow() sensor.Row {
	return sensor.Row{
		ID:          "r1",
		CreatedAt:   now,
		Temperature: utils.Ptr(24.56),
		Humidity:    utils.Ptr(58.21),
		Pressure:    utils.Ptr(1012.44),
		AccelX:      utils.Ptr(0.031),
		AccelY:      utils.Ptr(-0.117),
		AccelZ:      utils.Ptr(9.806),
	}
}

func TestSensorData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		store      *stubStore
		wantStatus int
		wantError  string
	}{
		{"latest reading", &stubStore{rows: []sensor.Row{fullRow()}}, http.StatusOK, ""},
		{"empty table", &stubStore{}, http.StatusServiceUnavailable, NoSensorDataMessage},
		{"backend failure", &stubStore{err: errors.New("connection refused")}, http.StatusInternalServerError, SensorDataFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := get(t, newTestRouter(t, tt.store, nil), "/api/sensor-data")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantError != "" {
				body := decode[types.ErrorResponse](t, rec)
				if body.Message != tt.wantError {
					t.Errorf("error = %q, want %q", body.Message, tt.wantError)
				}

				if strings.Contains(rec.Body.String(), "connection refused") {
					t.Error("underlying error leaked to the client")
				}

				return
			}

			got := decode[sensor.Reading](t, rec)
			if got.Temperature != "24.6" || got.Humidity != "58.2" || got.Pressure != "1012.4" {
				t.Errorf("reading = %+v", got)
			}

			if got.Acceleration == nil || got.Acceleration.X != "0.03" || got.Acceleration.Y != "-0.12" || got.Acceleration.Z != "9.81" {
				t.Errorf("acceleration = %+v", got.Acceleration)
			}

			if !strings.Contains(rec.Body.String(), `"altitude":null`) {
				t.Errorf("altitude should be null: %s", rec.Body.String())
			}
		})
	}
}

func TestTemperatureHistory(t *testing.T) {
	t.Parallel()

	rows := []sensor.Row{
		{CreatedAt: now.Add(-2 * time.Hour), Temperature: utils.Ptr(20.0)},
		{CreatedAt: now.Add(-time.Hour), Humidity: utils.Ptr(50.0)},
		{CreatedAt: now, Temperature: utils.Ptr(21.0)},
	}

	rec := get(t, newTestRouter(t, &stubStore{rows: rows}, nil), "/api/sensor-data/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	points := decode[[]sensor.HistoryPoint](t, rec)
	if len(points) != 2 || points[0].Temperature != 20 || points[1].Temperature != 21 {
		t.Errorf("points = %+v", points)
	}

	rec = get(t, newTestRouter(t, &stubStore{}, nil), "/api/sensor-data/history")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty window body = %q, want []", rec.Body.String())
	}

	rec = get(t, newTestRouter(t, &stubStore{err: errors.New("boom")}, nil), "/api/sensor-data/history")
	if rec.Code != http.StatusInternalServerError || decode[types.ErrorResponse](t, rec).Message != HistoricalDataFailedMessage {
		t.Errorf("failure = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSensorHistory(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/api/sensor-history", "/api/sensor-data/sensor-history"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			rec := get(t, newTestRouter(t, &stubStore{rows: []sensor.Row{fullRow()}}, nil), path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}

			h := decode[sensor.History](t, rec)
			if len(h.Timestamps) != 1 || h.Timestamps[0] != "12:00" || h.Altitude[0] != 0 || h.Acceleration == nil {
				t.Errorf("history = %+v", h)
			}

			rec = get(t, newTestRouter(t, &stubStore{}, nil), path)
			if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"message":"No data in last 24 hours"}` {
				t.Errorf("empty window = %d %s", rec.Code, rec.Body.String())
			}

			rec = get(t, newTestRouter(t, &stubStore{err: errors.New("boom")}, nil), path)
			if rec.Code != http.StatusInternalServerError || decode[types.ErrorResponse](t, rec).Message != HistoryFailedMessage {
				t.Errorf("failure = %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCoreRoutes(t *testing.T) {
	t.Parallel()

	doc := func() ([]byte, error) { return []byte("openapi: 3.0.3\n"), nil }

	rec := get(t, newTestRouter(t, &stubStore{}, doc), "/api/ping")
	if ping := decode[types.PingResponse](t, rec); ping.Status != types.PingStatusOK || ping.Version != "v0.0.0-test" {
		t.Errorf("ping = %+v", ping)
	}

	rec = get(t, newTestRouter(t, &stubStore{}, doc), "/api/health")
	if health := decode[types.HealthResponse](t, rec); rec.Code != http.StatusOK || !health.Store || health.StoreKind != "supabase" || health.MQTT != nil {
		t.Errorf("health = %d %+v", rec.Code, health)
	}

	rec = get(t, newTestRouter(t, &stubStore{pingErr: errors.New("down")}, doc), "/api/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d", rec.Code)
	}

	rec = get(t, newTestRouter(t, &stubStore{}, doc), "/api/openapi.yaml")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/yaml" || !strings.HasPrefix(rec.Body.String(), "openapi:") {
		t.Errorf("openapi = %d %q", rec.Code, rec.Body.String())
	}

	rec = get(t, newTestRouter(t, &stubStore{}, nil), "/api/openapi.yaml")
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled openapi status = %d", rec.Code)
	}
}
