package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praktika",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praktika",
			Name:      "availability_checks_total",
			Help:      "Availability checks by verdict.",
		},
		[]string{"verdict"},
	)

	snapshotFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "praktika",
			Name:      "snapshot_fetch_failures_total",
			Help:      "Booking snapshot reads that failed after retry.",
		},
	)

	commitConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "praktika",
			Name:      "commit_conflicts_total",
			Help:      "Bookings rejected by the commit-time conflict guard.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, availabilityChecks, snapshotFailures, commitConflicts)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAvailabilityCheck counts one engine evaluation by verdict.
func IncAvailabilityCheck(verdict string) {
	availabilityChecks.WithLabelValues(verdict).Inc()
}

// IncSnapshotFailure counts one failed snapshot fetch.
func IncSnapshotFailure() {
	snapshotFailures.Inc()
}

// IncCommitConflict counts one stale-write rejection.
func IncCommitConflict() {
	commitConflicts.Inc()
}
