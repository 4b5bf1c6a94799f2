package jobs

import (
	"sync"
	"time"
)

// SweepStatus describes the most recent retention sweep of this process.
type SweepStatus struct {
	FinishedAt      time.Time `json:"finished_at"`
	Cutoff          time.Time `json:"cutoff"`
	SessionsDeleted int64     `json:"sessions_deleted"`
	EventsDeleted   int64     `json:"events_deleted"`
	Error           string    `json:"error,omitempty"`
}

var lastSweep struct {
	sync.RWMutex
	status *SweepStatus
}

// LastSweep returns a copy of the last recorded sweep, or nil when no sweep
// has finished since the process started.
func LastSweep() *SweepStatus {
	lastSweep.RLock()
	defer lastSweep.RUnlock()

	if lastSweep.status == nil {
		return nil
	}
	status := *lastSweep.status
	return &status
}

func recordSweep(finishedAt time.Time, result *RetentionResult, err error) {
	status := &SweepStatus{FinishedAt: finishedAt.UTC()}
	if result != nil {
		status.Cutoff = result.Cutoff
		status.SessionsDeleted = result.SessionsDeleted
		status.EventsDeleted = result.EventsDeleted
	}
	if err != nil {
		status.Error = err.Error()
	}

	lastSweep.Lock()
	lastSweep.status = status
	lastSweep.Unlock()
}
