package http

import (
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/karloscodes/cartridge"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var metricsHandler = adaptor.HTTPHandler(promhttp.Handler())

// MetricsAction serves the Prometheus exposition of the process collectors
// and the ingestion, query and retention metrics.
func MetricsAction(ctx *cartridge.Context) error {
	return metricsHandler(ctx.Ctx)
}
