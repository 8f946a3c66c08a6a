package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/simonsays/internal/api/ctxkeys"
)

// RequestLogger writes one structured line per request.
// Expected order in router: RequestID -> RequestLogger -> Auth -> handlers.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			holder := &userHolder{}
			start := time.Now()

			next.ServeHTTP(recorder, r.WithContext(withUserHolder(r.Context(), holder)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.statusCode),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			if holder.userID != "" {
				fields = append(fields, zap.String("user_id", holder.userID))
			}
			logAt(logger, recorder.statusCode)("http request", fields...)
		})
	}
}

func logAt(logger *zap.Logger, status int) func(string, ...zap.Field) {
	switch {
	case status >= 500:
		return logger.Error
	case status >= 400:
		return logger.Warn
	default:
		return logger.Info
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// userHolder carries the authenticated user back out to the logger, which
// wraps the auth middleware and never sees its context.
type userHolder struct {
	userID string
}

const userHolderKey ctxkeys.Key = "request_log_user"

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, h)
}

// recordUser is called by Auth once the token is verified.
func recordUser(ctx context.Context, userID string) {
	if h, ok := ctx.Value(userHolderKey).(*userHolder); ok {
		h.userID = userID
	}
}
