package importer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	coercionFallbacks *prometheus.CounterVec
	decodeTotal       *prometheus.CounterVec
	decodedRecords    *prometheus.CounterVec
	uploadTotal       *prometheus.CounterVec
	importedRecords   *prometheus.CounterVec
	uploadLatency     *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		coercionFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estate_import",
			Name:      "coercion_fallbacks_total",
			Help:      "Cells whose typed coercion failed and were passed through as text.",
		}, []string{"entity_kind", "reason"}),
		decodeTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estate_import",
			Name:      "decode_total",
			Help:      "File decode attempts by format and result.",
		}, []string{"entity_kind", "format", "result"}),
		decodedRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estate_import",
			Name:      "decoded_records_total",
			Help:      "Records produced by successful decodes.",
		}, []string{"entity_kind"}),
		uploadTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estate_import",
			Name:      "upload_total",
			Help:      "Batch submissions by outcome.",
		}, []string{"entity_kind", "result"}),
		importedRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estate_import",
			Name:      "records_total",
			Help:      "Per-record outcomes reported by the backend.",
		}, []string{"entity_kind", "status"}),
		uploadLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "estate_import",
			Name:      "upload_duration_seconds",
			Help:      "Duration of batch-import calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 900},
		}, []string{"entity_kind", "result"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
