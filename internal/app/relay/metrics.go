package relay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"whisper-relay/internal/app/model"
)

const outcomeSuccess = "success"

// Metrics tracks submission outcomes and provider latency
type Metrics struct {
	submissions     *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

// NewMetrics creates the relay collectors and registers them with reg.
// A nil registerer creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "submissions_total",
			Help:      "Audio submissions by entry channel and outcome.",
		}, []string{"channel", "outcome"}),
		providerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relay",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of transcription provider calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		}, []string{"outcome"}),
	}
}

func (m *Metrics) recordSubmission(channel model.Channel, result model.TranscriptionResult) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if result.Failed() {
		outcome = string(result.ErrorKind)
	}
	m.submissions.WithLabelValues(string(channel), outcome).Inc()
}

func (m *Metrics) observeProvider(elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if failed {
		outcome = "error"
	}
	m.providerLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
