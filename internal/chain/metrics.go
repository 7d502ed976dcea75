package chain

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the client's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookchain",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total number of contract calls.",
		},
		[]string{"contract", "method", "status"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookchain",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Duration of contract calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"contract", "method"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookchain",
			Subsystem: "tx",
			Name:      "transactions_total",
			Help:      "Transactions by method and final state.",
		},
		[]string{"contract", "method", "state"},
	)

	blocksSeen = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookchain",
			Subsystem: "chain",
			Name:      "blocks_seen_total",
			Help:      "New block heads observed by the block watcher.",
		},
	)
)

func init() {
	Registry.MustRegister(
		rpcCalls,
		rpcDuration,
		transactions,
		blocksSeen,
		prometheus.NewGoCollector(),
	)
}

// MetricsHandler returns an HTTP handler exposing the registered metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func observeCall(contract, method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	rpcCalls.WithLabelValues(contract, method, status).Inc()
	rpcDuration.WithLabelValues(contract, method).Observe(time.Since(start).Seconds())
}

func observeTx(contract, method, state string) {
	transactions.WithLabelValues(contract, method, state).Inc()
}
