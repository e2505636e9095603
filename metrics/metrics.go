package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pairline",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pairline",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pairline",
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	matchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pairline",
		Name:      "matches_created_total",
		Help:      "Total number of matches created by the matchmaker",
	})

	matchesEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pairline",
		Name:      "matches_ended_total",
		Help:      "Total number of matches ended, by who ended them",
	}, []string{"moderation"})

	bansIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pairline",
		Name:      "bans_issued_total",
		Help:      "Total number of bans issued",
	})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pairline",
		Name:      "ws_clients",
		Help:      "Current number of connected websocket clients",
	})
)

// MatchCreated increments the created-match counter.
func MatchCreated() { matchesCreated.Inc() }

// MatchEnded increments the ended-match counter, labelled by whether a
// moderator forced the end.
func MatchEnded(moderation bool) {
	matchesEnded.WithLabelValues(strconv.FormatBool(moderation)).Inc()
}

// BanIssued increments the issued-ban counter.
func BanIssued() { bansIssued.Inc() }

// WSClientConnected increments the connected-client gauge.
func WSClientConnected() { wsClients.Inc() }

// WSClientDisconnected decrements the connected-client gauge.
func WSClientDisconnected() { wsClients.Dec() }

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required for websocket upgrades behind the middleware.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request metrics with Prometheus labels.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(rec.status),
		}

		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
