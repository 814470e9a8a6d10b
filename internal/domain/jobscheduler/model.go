package jobscheduler

import "time"

const (
	JobWeekRefresh = "week_refresh"
	JobReminder    = "reminder"
	JobStartup     = "startup_refresh"

	// JobSettingsRefresh regenerates the live week's seed after an admin edit.
	JobSettingsRefresh = "settings_refresh"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusSkipped   RunStatus = "skipped"
	StatusFailed    RunStatus = "failed"
	StatusAbandoned RunStatus = "abandoned"
)

// RunEvent is the latest state of one job firing. Retries of the same firing
// share a RunID.
type RunEvent struct {
	RunID        string
	JobName      string
	Week         string
	Status       RunStatus
	Attempts     int
	Detail       map[string]any
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}
