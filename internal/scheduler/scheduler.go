package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

// ErrNoOccurrence is returned for cron expressions that never fire within a year.
var ErrNoOccurrence = errors.New("cron expression has no occurrence within a year")

// Scheduler manages scheduled actions using a min-heap.
// It runs a background goroutine that sleeps until the next event's
// trigger time, then calls the onTrigger callback with the event.
type Scheduler struct {
	addChan    chan ScheduleEvent
	removeChan chan string
	ctx        context.Context
	now        func() time.Time
}

// New creates and starts a new Scheduler.
// The onTrigger callback is invoked when a scheduled event fires.
// The scheduler goroutine exits when ctx is cancelled.
func New(ctx context.Context, onTrigger func(ScheduleEvent)) *Scheduler {
	s := &Scheduler{
		addChan:    make(chan ScheduleEvent, 64),
		removeChan: make(chan string, 64),
		ctx:        ctx,
		now:        time.Now,
	}
	go s.run(onTrigger)
	return s
}

// Add enqueues a new schedule event.
func (s *Scheduler) Add(event ScheduleEvent) {
	select {
	case s.addChan <- event:
	case <-s.ctx.Done():
	}
}

// Remove cancels every scheduled event with the given action.
func (s *Scheduler) Remove(action string) {
	select {
	case s.removeChan <- action:
	case <-s.ctx.Done():
	}
}

// run is the core scheduler goroutine implementing the active-object pattern.
// It maintains a min-heap of events and sleeps with a 60s max-sleep-cap.
// For recurring events (CronExpr != ""), after firing it computes the next
// occurrence and re-adds it to the heap automatically.
func (s *Scheduler) run(onTrigger func(ScheduleEvent)) {
	h := &scheduleHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			// No events: block indefinitely on channels
			return nil
		}
		dur := min(max((*h)[0].TriggerAt.Sub(s.now()), 0), maxSleepCap)
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event := <-s.addChan:
			heapPush(h, event)
			timerCh = resetTimer()

		case action := <-s.removeChan:
			heapRemoveAction(h, action)
			timerCh = resetTimer()

		case <-timerCh:
			// Fire all events whose time has arrived
			now := s.now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				event := heapPop(h)
				onTrigger(event)
				if event.CronExpr != "" {
					next, err := nextCronOccurrence(event.CronExpr, now)
					if err == nil {
						heapPush(h, ScheduleEvent{
							Action:    event.Action,
							TriggerAt: next,
							CronExpr:  event.CronExpr,
						})
					}
				}
			}
			timerCh = resetTimer()
		}
	}
}

// nextCronOccurrence returns the next time the cron expression fires strictly
// after start. Uses gronx.NextTickAfter with inclRefTime=false.
func nextCronOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// hasOccurrenceWithinYear checks if a cron expression has any occurrence
// within 1 year from the given time. Returns false for invalid expressions
// or if no occurrence exists within the 1-year window.
func hasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}

// CheckCron reports whether expr is a valid cron expression firing at
// least once in the year after from.
func CheckCron(expr string, from time.Time) error {
	if !gronx.New().IsValid(expr) {
		return fmt.Errorf("invalid cron expression %q", expr)
	}
	if !hasOccurrenceWithinYear(expr, from) {
		return fmt.Errorf("%w: %q", ErrNoOccurrence, expr)
	}
	return nil
}

// LoadSchedules turns manifest entries into the first ScheduleEvent of
// every entry after now. Entries with an invalid cron expression are
// returned as an error.
func LoadSchedules(entries []Entry, now time.Time) ([]ScheduleEvent, error) {
	future := make([]ScheduleEvent, 0, len(entries))
	for _, e := range entries {
		next, err := nextCronOccurrence(e.Cron, now)
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", e.Action, e.Cron, err)
		}
		future = append(future, ScheduleEvent{
			Action:    e.Action,
			TriggerAt: next,
			CronExpr:  e.Cron,
		})
	}
	return future, nil
}

// Resolve returns the action whose latest occurrence at or before now is
// the most recent one, i.e. the action that should currently be in effect.
// ok is false when no entry has fired in the past year.
func Resolve(entries []Entry, now time.Time) (action string, ok bool) {
	var latest time.Time
	for _, e := range entries {
		prev, err := gronx.PrevTickBefore(e.Cron, now, true)
		if err != nil || prev.Before(now.Add(-365*24*time.Hour)) {
			continue
		}
		if !ok || prev.After(latest) {
			latest = prev
			action = e.Action
			ok = true
		}
	}
	return action, ok
}
