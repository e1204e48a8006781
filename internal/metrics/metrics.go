package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters for the booking and payment flow. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	appointments  *prometheus.CounterVec
	verifications *prometheus.CounterVec
	expired       prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astrologix",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "astrologix",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		appointments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astrologix",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Appointment submissions by outcome",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astrologix",
			Subsystem: "payment",
			Name:      "verifications_total",
			Help:      "Payment verifications by outcome",
		}, []string{"result"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "astrologix",
			Subsystem: "booking",
			Name:      "expired_pending_total",
			Help:      "Pending appointments cancelled for non-payment",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.appointments, m.verifications, m.expired)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(seconds)
}

// AppointmentSubmitted records created, replayed or slot_taken.
func (m *Metrics) AppointmentSubmitted(result string) {
	if m == nil {
		return
	}
	m.appointments.WithLabelValues(result).Inc()
}

// PaymentVerified records confirmed, already_confirmed or failed.
func (m *Metrics) PaymentVerified(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) PendingExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}
