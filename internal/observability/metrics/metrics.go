package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for assistant conversations.
type ChatMetrics struct {
	turnsTotal        *prometheus.CounterVec
	medicinesRecorded prometheus.Counter
	sessionsTotal     *prometheus.CounterVec
	turnLatency       prometheus.Histogram
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcare",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns answered, by matched intent",
		}, []string{"intent"}),
		medicinesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "healthcare",
			Subsystem: "chat",
			Name:      "medicines_recorded_total",
			Help:      "Medicines recorded into conversation memory",
		}),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcare",
			Subsystem: "chat",
			Name:      "sessions_total",
			Help:      "Chat session lifecycle events",
		}, []string{"event"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "healthcare",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Latency of answering one chat turn, store round trips included",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.medicinesRecorded, m.sessionsTotal, m.turnLatency)
	return m
}

func (m *ChatMetrics) ObserveTurn(intent string, recorded bool, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent).Inc()
	if recorded {
		m.medicinesRecorded.Inc()
	}
	m.turnLatency.Observe(seconds)
}

// ObserveSession counts "started" and "ended" events.
func (m *ChatMetrics) ObserveSession(event string) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(event).Inc()
}

// ReminderMetrics tracks the periodic reminder sweep.
type ReminderMetrics struct {
	sweepsTotal    *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		sweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcare",
			Subsystem: "reminders",
			Name:      "sweeps_total",
			Help:      "Reminder sweeps run, by outcome",
		}, []string{"status"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthcare",
			Subsystem: "reminders",
			Name:      "bookings_total",
			Help:      "Bookings processed by the reminder sweep, by outcome",
		}, []string{"status"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "healthcare",
			Subsystem: "reminders",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one reminder sweep",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sweepsTotal, m.remindersTotal, m.sweepDuration)
	return m
}

func (m *ReminderMetrics) ObserveSweep(status string, seconds float64) {
	if m == nil {
		return
	}
	m.sweepsTotal.WithLabelValues(status).Inc()
	m.sweepDuration.Observe(seconds)
}

// ObserveReminder counts one booking outcome: "notified", "emailed",
// "email_failed", "alert_failed" or "skipped".
func (m *ReminderMetrics) ObserveReminder(status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(status).Inc()
}
