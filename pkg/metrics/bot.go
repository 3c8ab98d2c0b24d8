package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics counts inbound events and the outcome of best-effort side effects.
type BotMetrics struct {
	events        *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
	cooldowns     *prometheus.CounterVec
	ordersCreated prometheus.Counter
	ordersShipped prometheus.Counter
	mirrorWrites  *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewBotMetrics registers the bot metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbot_events_total",
		Help: "Inbound chat events by kind and outcome code.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderbot_event_duration_seconds",
		Help:    "Time spent handling one inbound event.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"kind"})
	cooldowns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbot_cooldown_denials_total",
		Help: "Actions rejected by the cooldown guard.",
	}, []string{"kind"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_orders_created_total",
		Help: "Orders created at the end of checkout.",
	})
	shipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_orders_shipped_total",
		Help: "Orders moved to the completed partition.",
	})
	mirror := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbot_mirror_writes_total",
		Help: "Persistence mirror writes by operation and result.",
	}, []string{"op", "result"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbot_notifications_total",
		Help: "Outbound notifications by result.",
	}, []string{"result"})
	reg.MustRegister(events, duration, cooldowns, created, shipped, mirror, notifications)
	return &BotMetrics{
		events:        events,
		eventDuration: duration,
		cooldowns:     cooldowns,
		ordersCreated: created,
		ordersShipped: shipped,
		mirrorWrites:  mirror,
		notifications: notifications,
	}
}

// ObserveEvent counts one handled event.
func (b *BotMetrics) ObserveEvent(kind, outcome string) {
	if b == nil || b.events == nil {
		return
	}
	b.events.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveEventDuration records how long one event took to handle.
func (b *BotMetrics) ObserveEventDuration(kind string, d time.Duration) {
	if b == nil || b.eventDuration == nil {
		return
	}
	b.eventDuration.WithLabelValues(normalizeLabel(kind)).Observe(d.Seconds())
}

func (b *BotMetrics) IncCooldownDenied(kind string) {
	if b == nil || b.cooldowns == nil {
		return
	}
	b.cooldowns.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (b *BotMetrics) IncOrdersCreated() {
	if b == nil || b.ordersCreated == nil {
		return
	}
	b.ordersCreated.Inc()
}

func (b *BotMetrics) IncOrdersShipped() {
	if b == nil || b.ordersShipped == nil {
		return
	}
	b.ordersShipped.Inc()
}

// ObserveMirrorWrite counts a mirror write; result is ok, failed or dropped.
func (b *BotMetrics) ObserveMirrorWrite(op, result string) {
	if b == nil || b.mirrorWrites == nil {
		return
	}
	b.mirrorWrites.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// ObserveNotification counts a notification attempt; result is sent, error or dropped.
func (b *BotMetrics) ObserveNotification(result string) {
	if b == nil || b.notifications == nil {
		return
	}
	b.notifications.WithLabelValues(normalizeLabel(result)).Inc()
}
