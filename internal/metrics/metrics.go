package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdp_uploads_total",
		Help: "Upload attempts by result.",
	}, []string{"result"})

	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdp_classifications_total",
		Help: "Uploads by outcome of their classification at upload time.",
	}, []string{"outcome"})

	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdp_upload_bytes",
		Help:    "Size of stored documentation photos.",
		Buckets: prometheus.ExponentialBuckets(32*1024, 2, 8),
	})
)

// ObserveUpload counts one upload attempt. Accepted uploads also record
// their size.
func ObserveUpload(result string, size int64) {
	Uploads.WithLabelValues(result).Inc()
	if result == "accepted" && size > 0 {
		UploadBytes.Observe(float64(size))
	}
}

// ObserveOutcomes counts classification outcomes such as "matched" or
// "unmatched".
func ObserveOutcomes(outcomes ...string) {
	for _, outcome := range outcomes {
		Classifications.WithLabelValues(outcome).Inc()
	}
}
