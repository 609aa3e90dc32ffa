package ambiance

import (
	"math/rand/v2"
	"slices"
)

// MaxCount is the maximum number of events planned for one period.
const MaxCount = 16

// ScheduledEvent is one planned sound trigger.
type ScheduledEvent struct {
	// Sound is the index of the sound in the layer.
	Sound int
	// Start is the trigger time in seconds, relative to the period start.
	Start float64
	// Pitch is the playback pitch drawn for this event.
	Pitch float64
}

// PlanRequest holds the inputs of one planning run.
type PlanRequest struct {
	// Count is the wanted number of events, clamped to [0, MaxCount].
	Count int
	// Silence is the minimum gap kept after every event, in seconds.
	Silence float64
	// Pitch is the range each event pitch is drawn from.
	Pitch Range
	// Period is the length of the window to fill, in seconds.
	Period float64
	// Durations is the nominal duration of every sound, indexed like the pool values.
	Durations []float64
}

// Planner computes random, non-overlapping sound timings.
// A Planner is not safe for concurrent use; every layer owns its own.
type Planner struct {
	rng   *rand.Rand
	cuts  [MaxCount]float64
	spans [MaxCount]float64
}

// NewPlanner returns a planner drawing pitches and gaps from rng.
func NewPlanner(rng *rand.Rand) *Planner {
	return &Planner{rng: rng}
}

// Plan fills out with at most req.Count events drawn from pool and returns
// how many were planned. Fewer events are returned when the period cannot
// hold them all.
//
// Events are sorted by start time, never overlap, and every event ends
// before req.Period.
func (pl *Planner) Plan(req PlanRequest, pool *RandomPool, out []ScheduledEvent) int {
	if len(req.Durations) == 0 || pool == nil {
		return 0
	}
	count := min(max(req.Count, 0), MaxCount, len(out))

	// Pick sounds while they still fit in the remaining time.
	remaining := req.Period
	n := 0
	for ; n < count; n++ {
		sound := pool.Next()
		pitch := req.Pitch.Sample(pl.rng)
		span := req.Durations[sound]/pitch + req.Silence
		if !(span <= remaining) {
			break
		}
		remaining -= span
		out[n] = ScheduledEvent{Sound: sound, Pitch: pitch}
		pl.spans[n] = span
	}

	// Spread the unused time: n sorted cut points in [0, remaining]; the
	// distance between two cuts is the idle gap before the next event.
	cuts := pl.cuts[:n]
	for i := range cuts {
		cuts[i] = pl.rng.Float64() * remaining
	}
	slices.Sort(cuts)

	var prev, end float64
	for i := 0; i < n; i++ {
		gap := cuts[i] - prev
		out[i].Start = end + gap
		end += gap + pl.spans[i]
		prev = cuts[i]
	}
	return n
}
