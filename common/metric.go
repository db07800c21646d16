package common

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = NewLog("common")

const DefaultMetricPort = ":9000"

// NewMetricServer serves the default prometheus registry on its own port.
func NewMetricServer(addr string) *http.Server {
	if addr == "" {
		addr = DefaultMetricPort
	}
	log.Info("Starting metric server", "listen", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metric server stopped", "err", err)
		}
	}()
	return srv
}
