package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler exposing the collector's registry in the
// Prometheus exposition format, OpenMetrics when the scraper asks for it.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.Handle(cfg.Path, collector.Handler())
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// NewServer returns an HTTP server serving the metrics endpoint at the
// configured address and path.
func (c *Collector) NewServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle(c.config.Path, c.Handler())
	return &http.Server{
		Addr:    c.config.Address,
		Handler: mux,
	}
}
