package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type reqStateKey struct{}

// reqState lets inner middleware report back to the access logger.
type reqState struct {
	userID int64
}

// requestLogger writes one structured line per request after it completes.
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := &reqState{}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), reqStateKey{}, st)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			f := logrus.Fields{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       ww.BytesWritten(),
			}
			if st.userID != 0 {
				f["user_id"] = st.userID
			}
			entry := log.WithFields(f)
			switch {
			case status >= 500:
				entry.Error("request")
			case status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
		})
	}
}

// recordCaller copies the authenticated user id into the logger state.
func recordCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := access.CallerFrom(r.Context()); ok {
			if st, ok := r.Context().Value(reqStateKey{}).(*reqState); ok {
				st.userID = c.ID
			}
		}
		next.ServeHTTP(w, r)
	})
}
