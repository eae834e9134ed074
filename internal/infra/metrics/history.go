package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(historyEntries, historyStoreErrorsTotal) }

var (
	historyEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analysis_history_entries",
			Help: "Number of entries currently held in the input history.",
		},
	)

	historyStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_history_store_errors_total",
			Help: "History persistence failures by operation (load/save/remove).",
		},
		[]string{"op"},
	)
)

func SetHistorySize(n int) {
	historyEntries.Set(float64(n))
}

func IncHistoryStoreError(op string) {
	historyStoreErrorsTotal.WithLabelValues(norm(op)).Inc()
}
