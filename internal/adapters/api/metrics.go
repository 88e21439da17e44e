package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "church_console",
		Subsystem: "backend",
		Name:      "calls_total",
		Help:      "Backend API calls by operation and outcome.",
	}, []string{"op", "outcome"})

	callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "church_console",
		Subsystem: "backend",
		Name:      "call_duration_seconds",
		Help:      "Backend API call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

// Collectors returns the client's metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{callsTotal, callDuration}
}

func observe(op string, err error, d time.Duration) {
	callsTotal.WithLabelValues(op, outcome(err)).Inc()
	callDuration.WithLabelValues(op).Observe(d.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, ErrUnavailable) {
		return "unavailable"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return "server_error"
		}
		return "rejected_" + strconv.Itoa(apiErr.StatusCode)
	}
	return "transport_error"
}
