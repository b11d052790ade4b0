package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gym-admin-api/internal/service"
	"github.com/noah-isme/gym-admin-api/pkg/response"
)

const unmatchedRoute = "unmatched"

// operationalRoutes are hit by health checks and Prometheus itself and stay out of the
// request histograms.
var operationalRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics observes latency per route template and counts error responses by the
// application error code that response.Error sets. Paths with no matching route
// share the "unmatched" label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		if _, skip := operationalRoutes[c.FullPath()]; skip {
			c.Next()
			return
		}

		done := metricsSvc.TrackInFlight()
		start := time.Now()
		c.Next()
		done()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
		if code := c.Writer.Header().Get(response.HeaderErrorCode); code != "" {
			metricsSvc.RecordAPIError(route, code)
		}
	}
}
