package apicommon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"sensor-dashboard/backend/internal/shared/types"
	"sensor-dashboard/backend/pkg/router"
	"sensor-dashboard/backend/pkg/utils"
)

const (
	RequestIDHeader = "X-Request-ID"

	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 30 * time.Second
	WriteTimeout      = 30 * time.Second
	IdleTimeout       = 120 * time.Second
	ShutdownTimeout   = 30 * time.Second
)

const zeroUUID = "00000000-0000-0000-0000-000000000000"

// InternalServerErrorMessage is returned for errors that are not *types.ErrorResponse.
const InternalServerErrorMessage = "Internal Server Error"

type HTTPServer struct {
	l      *slog.Logger
	server *http.Server
}

func NewHTTPServer(l *slog.Logger, addr string, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	return &HTTPServer{
		l:      l.With(slog.String("component", "http-server")),
		server: srv,
	}
}

// StartOnBackground serves in a goroutine and calls cancel if serving fails.
func (s *HTTPServer) StartOnBackground(cancel context.CancelFunc) {
	go func() {
		s.l.Info("starting", slog.String("addr", s.server.Addr))

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("failed", utils.ErrAttr(err))
			cancel()
		}
	}()
}

func (s *HTTPServer) ShutdownWithDefaultTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// HandlerFunc is a HTTP handler that can return an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// NewError creates an error response with a fixed client facing message.
func NewError(statusCode int, message string) *types.ErrorResponse {
	return &types.ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ErrorHandler wraps handlers with error handling. A *types.ErrorResponse
// (possibly wrapped) is sent as is; its cause, if any, is logged only.
func ErrorHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := GetLogger(r.Context())
		requestID := GetRequestID(r.Context())

		err := fn(w, r)
		if err == nil {
			return
		}

		var httpErr *types.ErrorResponse
		if errors.As(err, &httpErr) {
			httpErr.RequestID = requestID

			attrs := []any{slog.Int("status", httpErr.StatusCode), slog.String("message", httpErr.Message)}
			if cause := httpErr.Unwrap(); cause != nil {
				attrs = append(attrs, utils.ErrAttr(cause))
			}

			if httpErr.StatusCode >= http.StatusInternalServerError {
				l.Error("handler returned HTTP error", attrs...)
			} else {
				l.Warn("handler returned HTTP error", attrs...)
			}

			RespondJSON(w, r, httpErr.StatusCode, httpErr)

			return
		}

		l.Error("internal error", utils.ErrAttr(err))
		RespondJSON(w, r, http.StatusInternalServerError, &types.ErrorResponse{
			RequestID: requestID,
			Message:   InternalServerErrorMessage,
		})
	}
}

// RespondJSON sends a JSON response with given status code.
// If data is nil, only headers are sent. Encoding errors are logged, the
// status code has already been written at that point.
func RespondJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}

	if err := utils.ToJSONStream(w, data); err != nil {
		GetLogger(r.Context()).Error("failed to encode JSON response", utils.ErrAttr(err))
	}
}

// GenerateResponses adds the standard 500 response to the given responses map.
func GenerateResponses(responses map[int]router.ResponseSpec) map[int]router.ResponseSpec {
	if _, exists := responses[http.StatusInternalServerError]; !exists {
		responses[http.StatusInternalServerError] = router.ResponseSpec{
			Description: "Internal Server Error",
			Type:        types.ErrorResponse{},
			Examples: map[string]any{
				"Internal Server Error": types.ErrorResponse{
					RequestID: zeroUUID,
					Message:   InternalServerErrorMessage,
				},
			},
		}
	}

	return responses
}
