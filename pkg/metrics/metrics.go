package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meeting_stats"

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	gatherer prometheus.Gatherer

	meetingsStarted   *prometheus.CounterVec
	meetingsEnded     prometheus.Counter
	meetingsCancelled prometheus.Counter
	meetingMinutes    prometheus.Histogram
	rollovers         prometheus.Counter
	rolledOverRows    prometheus.Counter
	relaySessions     prometheus.Gauge
	relayMessages     *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		meetingsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_started_total",
			Help:      "Meetings started, partitioned by whether they were scheduled",
		}, []string{"scheduled"}),
		meetingsEnded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_ended_total",
			Help:      "Meetings completed",
		}),
		meetingsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_cancelled_total",
			Help:      "Meetings cancelled",
		}),
		meetingMinutes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "meeting_duration_minutes",
			Help:      "Duration of completed meetings in minutes",
			Buckets:   []float64{1, 5, 15, 30, 45, 60, 90, 120, 240},
		}),
		rollovers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollovers_total",
			Help:      "Monthly baseline rollovers performed",
		}),
		rolledOverRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollover_rows_total",
			Help:      "Statistics rows touched by rollovers",
		}),
		relaySessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_sessions",
			Help:      "Open real-time sessions",
		}),
		relayMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Real-time messages, partitioned by direction and event",
		}, []string{"direction", "event"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) MeetingStarted(scheduled bool) {
	label := "false"
	if scheduled {
		label = "true"
	}
	m.meetingsStarted.WithLabelValues(label).Inc()
}

func (m *Metrics) MeetingEnded(durationMinutes int) {
	m.meetingsEnded.Inc()
	m.meetingMinutes.Observe(float64(durationMinutes))
}

func (m *Metrics) MeetingCancelled() {
	m.meetingsCancelled.Inc()
}

func (m *Metrics) RolledOver(rows int64) {
	m.rollovers.Inc()
	m.rolledOverRows.Add(float64(rows))
}

func (m *Metrics) SessionOpened() {
	m.relaySessions.Inc()
}

func (m *Metrics) SessionClosed() {
	m.relaySessions.Dec()
}

func (m *Metrics) MessageReceived(event string) {
	m.relayMessages.WithLabelValues("in", event).Inc()
}

func (m *Metrics) MessageSent(event string) {
	m.relayMessages.WithLabelValues("out", event).Inc()
}
