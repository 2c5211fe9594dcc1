package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vidora/monetization/internal/metrics"
)

// MetricsMiddleware records request count and latency labelled by the matched route pattern.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		route := c.Route().Path
		method := c.Method()
		metrics.RequestLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		metrics.RequestCount.WithLabelValues(route, method, strconv.Itoa(c.Response().StatusCode())).Inc()

		return err
	}
}
