// Package scheduler starts and stops the ambiance on cron expressions.
// It implements a single-goroutine scheduler using a min-heap of ScheduleEvents
// sorted by trigger time, with a 60-second max-sleep-cap to handle NTP steps,
// DST transitions, and system sleep (macOS monotonic clock pause).
//
// The scheduler fires events by calling a registered onTrigger callback.
// It does not persist state; the heap is rebuilt from the manifest schedule
// on every start.
package scheduler
