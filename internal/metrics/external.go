package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CRM record ids are opaque alphanumeric tokens of 18+ characters;
// normalize them so every /contacts/{id} call shares one series.
var recordIDPattern = regexp.MustCompile(`/[0-9A-Za-z-]{18,}$`)

// RecordExternalAPICall records CRM API call metrics
func (m *Metrics) RecordExternalAPICall(endpoint, method string, statusCode int, duration time.Duration, err error) {
	m.safeExecute("RecordExternalAPICall", func() {
		endpoint = normalizeEndpoint(endpoint)
		status := strconv.Itoa(statusCode)

		m.ExternalAPIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
		m.ExternalAPIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())

		if err != nil || statusCode >= 400 {
			m.ExternalAPIErrors.WithLabelValues(endpoint, errorType(statusCode, err)).Inc()
		}
	})
}

// normalizeEndpoint converts trailing record ids to a template.
// Example: /contacts/ocQHyuzHvysMo5N5VsXc -> /contacts/{id}
func normalizeEndpoint(endpoint string) string {
	if i := strings.Index(endpoint, "?"); i >= 0 {
		endpoint = endpoint[:i]
	}
	return recordIDPattern.ReplaceAllString(endpoint, "/{id}")
}

// errorType categorizes failures based on status code, then error text
func errorType(statusCode int, err error) string {
	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 429:
		return "too_many_requests"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500 && statusCode < 600:
		return "server_error"
	}

	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "connection refused"):
			return "connection_refused"
		case strings.Contains(msg, "no such host"):
			return "dns_error"
		case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
			return "timeout"
		case strings.Contains(msg, "EOF") || strings.Contains(msg, "connection reset"):
			return "connection_reset"
		}
		return "network_error"
	}

	return "unknown"
}
