package scheduler

import "time"

// Actions understood by the ambiance scheduler.
const (
	ActionPlay = "play"
	ActionStop = "stop"
)

// ScheduleEvent is a pending action in the scheduler heap.
type ScheduleEvent struct {
	// Action is what to do when TriggerAt is reached (ActionPlay or ActionStop).
	Action string
	// TriggerAt is the wall-clock time when the action fires.
	TriggerAt time.Time
	// CronExpr is the cron expression for recurring actions.
	// Empty string means one-shot: no re-scheduling after firing.
	CronExpr string
}

// Entry is a recurring action as written in a manifest.
type Entry struct {
	Action string `json:"action"`
	Cron   string `json:"cron"`
}
