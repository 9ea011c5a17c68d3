package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshSuccesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "makovod_refresh_success_total",
		Help: "Background refreshes that completed.",
	})
	refreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "makovod_refresh_failure_total",
		Help: "Background refresh attempts that failed.",
	})
)
