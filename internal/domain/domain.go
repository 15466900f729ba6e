package domain

import (
	"time"
)

// Session describes a launched tunnel daemon. URL is populated exactly once
// by the log watcher and never mutated afterwards. The daemon is not torn
// down when the program exits; PID is reported so the operator can stop it.
type Session struct {
	PID     int
	LogPath string
	URL     string
}

// RemoteFile is a snapshot of a file fetched from the contents API. SHA is
// the opaque revision marker the API uses to reject stale writes.
type RemoteFile struct {
	Path    string
	SHA     string
	Content string
}

// PublishReport summarizes a completed run.
type PublishReport struct {
	TunnelURL string
	PID       int
	CommitURL string
	Duration  time.Duration
}
