package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natours_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "natours_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natours_auth_events_total",
		Help: "Authentication events by action and result",
	}, []string{"action", "result"})

	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "natours_bookings_created_total",
		Help: "Bookings recorded from completed checkouts",
	})

	emailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natours_emails_total",
		Help: "Emails by template and result",
	}, []string{"template", "result"})

	ratingRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natours_rating_recomputes_total",
		Help: "Tour rating recomputations by result",
	}, []string{"result"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "natours_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"limiter"})

	resetTokensCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "natours_reset_tokens_cleared_total",
		Help: "Expired password reset tokens cleared by the sweeper",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveAuth counts an authentication event, e.g. ("login", "failure").
func ObserveAuth(action, result string) {
	authEvents.WithLabelValues(action, result).Inc()
}

func IncBookings() {
	bookingsCreated.Inc()
}

// ObserveEmail counts a send attempt for a template.
func ObserveEmail(template, result string) {
	emailsSent.WithLabelValues(template, result).Inc()
}

func ObserveRatingRecompute(result string) {
	ratingRecomputes.WithLabelValues(result).Inc()
}

func IncRateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}

func AddResetTokensCleared(n int64) {
	resetTokensCleared.Add(float64(n))
}

// Result maps an error to a "success"/"failure" label.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
