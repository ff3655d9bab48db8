package middleware

import (
	"net/http"
	"time"

	"github.com/templui/goalsetter/internal/metrics"
)

// routeMatcher is satisfied by *http.ServeMux.
type routeMatcher interface {
	Handler(r *http.Request) (http.Handler, string)
}

// Metrics records request counts and latency labelled by the matched route
// pattern, never the raw path, to keep label cardinality bounded.
func Metrics(collector *metrics.Collector, routes routeMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unmatched"
			if _, pattern := routes.Handler(r); pattern != "" {
				route = pattern
			}

			start := time.Now()
			rw := wrapResponseWriter(w)

			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
