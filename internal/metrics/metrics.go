package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tool invocation outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeNoData        = "no_data"
	OutcomeTimeout       = "timeout"
	OutcomeProviderError = "provider_error"
	OutcomeConfigError   = "config_error"
)

// Metrics bundles the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so tests can leave instrumentation unwired.
type Metrics struct {
	chatRequests       *prometheus.CounterVec
	toolInvocations    *prometheus.CounterVec
	exchangesPersisted prometheus.Counter
	persistFailures    prometheus.Counter
	streamDuration     prometheus.Histogram
}

// New registers the service collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)
	return &Metrics{
		chatRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "wagerwiz_chat_requests_total",
			Help: "Chat requests by terminal outcome.",
		}, []string{"outcome"}),
		toolInvocations: auto.NewCounterVec(prometheus.CounterOpts{
			Name: "wagerwiz_tool_invocations_total",
			Help: "Odds tool invocations by outcome.",
		}, []string{"outcome"}),
		exchangesPersisted: auto.NewCounter(prometheus.CounterOpts{
			Name: "wagerwiz_exchanges_persisted_total",
			Help: "Completed exchanges written to the durable store.",
		}),
		persistFailures: auto.NewCounter(prometheus.CounterOpts{
			Name: "wagerwiz_persist_failures_total",
			Help: "Durable store writes that failed and were swallowed.",
		}),
		streamDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wagerwiz_stream_duration_seconds",
			Help:    "Wall-clock duration of chat response streams.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ChatRequest(outcome string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ToolInvocation(outcome string) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ExchangePersisted() {
	if m == nil {
		return
	}
	m.exchangesPersisted.Inc()
}

func (m *Metrics) PersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *Metrics) ObserveStream(d time.Duration) {
	if m == nil {
		return
	}
	m.streamDuration.Observe(d.Seconds())
}
