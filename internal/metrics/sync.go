package metrics

import "time"

// RecordSyncRun records the outcome of a sync run ("full" or "webhook")
func (m *Metrics) RecordSyncRun(kind, outcome string, duration time.Duration) {
	m.safeExecute("RecordSyncRun", func() {
		m.SyncRunsTotal.WithLabelValues(kind, outcome).Inc()
		if kind == "full" {
			m.SyncRunDuration.Observe(duration.Seconds())
		}
	})
}

// IncrementPagesFetched increments the fetched-page counter for an entity kind
func (m *Metrics) IncrementPagesFetched(kind string) {
	m.safeExecute("IncrementPagesFetched", func() {
		m.SyncPagesFetched.WithLabelValues(kind).Inc()
	})
}

// AddRecordsReconciled adds reconciled record counts ("created" / "updated")
func (m *Metrics) AddRecordsReconciled(kind, action string, count int) {
	m.safeExecute("AddRecordsReconciled", func() {
		m.SyncRecordsReconciled.WithLabelValues(kind, action).Add(float64(count))
	})
}

// IncrementRecordsDropped increments the dropped-record counter
func (m *Metrics) IncrementRecordsDropped(kind, reason string) {
	m.safeExecute("IncrementRecordsDropped", func() {
		m.SyncRecordsDropped.WithLabelValues(kind, reason).Inc()
	})
}

// RecordWebhookEvent records one inbound webhook event by type and outcome
func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	m.safeExecute("RecordWebhookEvent", func() {
		m.WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
	})
}
