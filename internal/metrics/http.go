package metrics

import (
	"strconv"
	"strings"
	"time"
)

var skippedSuffixes = []string{"/metrics", "/health", "/ready"}

// RecordHTTPRequest records one request against its route pattern.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.safeExecute("RecordHTTPRequest", func() {
		m.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	})
}

// statusClass maps 204 to "2xx". Codes outside 100-599 are "unknown".
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// ShouldSkipEndpoint reports health and scrape paths, which stay out of the request metrics.
func ShouldSkipEndpoint(path string) bool {
	for _, suffix := range skippedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
