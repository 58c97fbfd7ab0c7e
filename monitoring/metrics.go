package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	waitlistOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_operations_total",
			Help: "Total waitlist operations",
		},
		[]string{"operation", "event_id", "status"},
	)

	activeOffers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_offers_total",
			Help: "Current number of live ticket offers per event",
		},
		[]string{"event_id"},
	)

	offersExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offers_expired_total",
			Help: "Total offers transitioned to expired",
		},
		[]string{"event_id", "trigger"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets issued by the purchase finalizer",
		},
		[]string{"event_id"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total payment webhook deliveries",
		},
		[]string{"provider", "status"},
	)

	offerFillDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offer_fill_duration_seconds",
			Help:    "Time from offer creation to purchase",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"event_id"},
	)
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackWaitlistOperation records one admission/promotion/release outcome.
func (m *Monitor) TrackWaitlistOperation(operation, eventID, status string) {
	waitlistOperations.WithLabelValues(operation, eventID, status).Inc()
}

func (m *Monitor) SetActiveOffers(eventID string, count int) {
	activeOffers.WithLabelValues(eventID).Set(float64(count))
}

// TrackOfferExpired records an expiry with its trigger ("callback" or "sweep").
func (m *Monitor) TrackOfferExpired(eventID, trigger string) {
	offersExpired.WithLabelValues(eventID, trigger).Inc()
}

func (m *Monitor) TrackTicketsIssued(eventID string, count int) {
	ticketsIssued.WithLabelValues(eventID).Add(float64(count))
}

func (m *Monitor) TrackWebhook(provider, status string) {
	webhookEvents.WithLabelValues(provider, status).Inc()
}

func (m *Monitor) TrackOfferFill(eventID string, duration time.Duration) {
	offerFillDuration.WithLabelValues(eventID).Observe(duration.Seconds())
}
