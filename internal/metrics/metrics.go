package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumina",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	appointmentCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumina",
			Name:      "appointment_created_total",
			Help:      "Count of appointments created by status.",
		},
		[]string{"status"},
	)

	conflictRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lumina",
			Name:      "conflict_rejections_total",
			Help:      "Count of bookings rejected by the commit-time conflict check.",
		},
	)

	slotsComputed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lumina",
			Name:      "slots_computed_total",
			Help:      "Count of availability computations performed.",
		},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lumina",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, appointmentCreated, conflictRejections, slotsComputed, availabilityCache)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncAppointmentCreated(status string) {
	appointmentCreated.WithLabelValues(status).Inc()
}

func IncConflictRejection() {
	conflictRejections.Inc()
}

func IncSlotsComputed() {
	slotsComputed.Inc()
}

func IncCacheHit() {
	availabilityCache.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	availabilityCache.WithLabelValues("miss").Inc()
}
