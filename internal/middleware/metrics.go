package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radif/media/internal/metrics"
)

// Metrics counts every request by method, matched route pattern, and status
// class. Requests that match no route are counted as "unmatched".
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := wrap(w)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.HTTPRequest(r.Method, route, ww.statusCode)
		})
	}
}
