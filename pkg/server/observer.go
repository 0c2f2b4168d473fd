package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Observer receives service measurements.
type Observer interface {
	ObservePreview(elapsed time.Duration, unmatched int)
	ObserveDrop(applied bool)
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObservePreview(time.Duration, int) {}
func (nopObserver) ObserveDrop(bool) {}
func (nopObserver) ObserveHTTP(string, string, int, time.Duration) {}

// instrument records every request against its chi route pattern so path
// parameters do not explode label cardinality.
func instrument(observer Observer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			observer.ObserveHTTP(r.Method, route, status, elapsed)
			logger.Debug("request served",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
