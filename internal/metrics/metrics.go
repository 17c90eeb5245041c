package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Exchange API metrics.
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_api_requests_total",
			Help: "Total number of exchange API requests",
		},
		[]string{"exchange", "method", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "exchange_api_request_duration_seconds",
			Help: "Duration of exchange API requests in seconds",
		},
		[]string{"exchange", "method"},
	)
	APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_api_errors_total",
			Help: "Total number of exchange API errors by kind",
		},
		[]string{"exchange", "kind"},
	)
	WebsocketConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_websocket_connections",
			Help: "Number of active exchange websocket connections",
		},
		[]string{"exchange"},
	)

	// Recorder metrics.
	RecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recorder_committed_total",
			Help: "Total number of tickers and trades committed to storage",
		},
		[]string{"exchange", "channel", "storage"},
	)
	ExchangeRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recorder_exchange_retries_total",
			Help: "Total number of exchange function retries",
		},
		[]string{"exchange"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(APIErrorsTotal)
	prometheus.MustRegister(WebsocketConnections)
	prometheus.MustRegister(RecordedTotal)
	prometheus.MustRegister(ExchangeRetries)
}
