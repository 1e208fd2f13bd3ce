package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Detections counts decoder detections by whether the controller acted on them
	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutriscan",
		Name:      "detections_total",
		Help:      "Barcode detections received from decoders.",
	}, []string{"result"}) // "accepted" or "dropped"

	// Cycles counts finished scan cycles by outcome
	Cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutriscan",
		Name:      "cycles_total",
		Help:      "Finished decode-to-lookup cycles.",
	}, []string{"status"})

	// DecoderFailures counts decoder initialization failures
	DecoderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nutriscan",
		Name:      "decoder_init_failures_total",
		Help:      "Decoder initialization failures.",
	})

	// LookupDuration observes product API round trips
	LookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nutriscan",
		Name:      "lookup_duration_seconds",
		Help:      "Product lookup latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	// Sessions tracks open websocket scan sessions
	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nutriscan",
		Name:      "sessions_open",
		Help:      "Open browser scan sessions.",
	})
)
