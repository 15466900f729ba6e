package domain

import "time"

type MetricsCollector interface {
	RecordPollTick()
	RecordLogReadFailure()
	RecordAPIRequest(method string, status int)
	RecordStageDuration(stage string, d time.Duration)
}
