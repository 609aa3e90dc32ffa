package ambiance

import (
	"math"
	"math/rand/v2"
)

// PlayerState is the playback state of a LayerPlayer.
type PlayerState int

const (
	StateStopped PlayerState = iota
	StatePlaying
)

func (s PlayerState) String() string {
	if s == StatePlaying {
		return "playing"
	}
	return "stopped"
}

// PlayerOption configures a LayerPlayer.
type PlayerOption func(*playerOptions)

type playerOptions struct {
	rng     *rand.Rand
	catchUp bool
}

// WithRand makes the player draw all its randomness from rng.
// rng must not be shared with another player.
func WithRand(rng *rand.Rand) PlayerOption {
	return func(o *playerOptions) {
		o.rng = rng
	}
}

// WithSeed seeds the player's random source. Two players built from the same
// configuration and seed, fed the same updates, issue the same calls.
func WithSeed(seed uint64) PlayerOption {
	return func(o *playerOptions) {
		o.rng = NewRand(seed)
	}
}

// WithCatchUp makes a random player fire every overdue event on an update
// instead of one event per update.
func WithCatchUp(catchUp bool) PlayerOption {
	return func(o *playerOptions) {
		o.catchUp = catchUp
	}
}

// NewRand returns a PCG random source seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// PlayerSnapshot is a point-in-time view of a LayerPlayer.
type PlayerSnapshot struct {
	Mode    Mode
	State   PlayerState
	Elapsed float64
	Period  float64
	// Events is the batch planned for the current period.
	Events []ScheduledEvent
	// Next is the index of the next event to fire in Events.
	Next int
	// Fired counts the one-shots triggered since the player was created.
	Fired uint64
}

// LayerPlayer drives the backend of one layer. The behavior is selected by
// the layer mode when the player is created:
//
//   - ModeRandom plans a batch of events at every period rollover and fires
//     them as their start time is reached.
//   - ModeLoop keeps the first sound looping and follows property edits.
//
// A LayerPlayer is not safe for concurrent use.
type LayerPlayer struct {
	mode    Mode
	cfg     *LayerConfig
	backend Backend
	state   PlayerState
	dirty   bool
	routing string

	rng       *rand.Rand
	catchUp   bool
	planner   *Planner
	pool      *RandomPool
	durations []float64
	noRepeat  int
	elapsed   float64
	events    [MaxCount]ScheduledEvent
	count     int
	next      int
	fired     uint64
}

// NewLayerPlayer creates a stopped player for cfg. cfg is read on every
// update and must outlive the player.
func NewLayerPlayer(cfg *LayerConfig, b Backend, opts ...PlayerOption) (*LayerPlayer, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	var o playerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = NewRand(rand.Uint64())
	}
	p := &LayerPlayer{
		mode:    cfg.Mode,
		cfg:     cfg,
		backend: b,
		rng:     o.rng,
		catchUp: o.catchUp,
		routing: cfg.Routing,
	}
	switch p.mode {
	case ModeRandom:
		p.planner = NewPlanner(p.rng)
		p.rebuild()
		b.SetProperties(Properties{Volume: 1, Pitch: 1, Routing: cfg.Routing})
	case ModeLoop:
		b.SetClip(cfg.Sounds[0].ID)
		b.SetProperties(p.loopProperties())
	}
	return p, nil
}

// Mode returns the mode the player was created with.
func (p *LayerPlayer) Mode() Mode {
	return p.mode
}

// State returns the playback state.
func (p *LayerPlayer) State() PlayerState {
	return p.state
}

// Backend returns the backend the player drives.
func (p *LayerPlayer) Backend() Backend {
	return p.backend
}

// MarkDirty tells the player its configuration was edited. Random players
// restart their period; loop players reload their clip.
func (p *LayerPlayer) MarkDirty() {
	p.dirty = true
}

// Play starts playback. A random player only arms itself: sounds are
// triggered by Update once a batch has been planned.
func (p *LayerPlayer) Play() {
	if p.mode == ModeLoop {
		p.backend.Play()
	}
	p.state = StatePlaying
}

// Stop silences the backend. A random player drops its planned batch and
// restarts its period from zero; a new batch is planned at the first
// rollover after the next Play.
func (p *LayerPlayer) Stop() {
	p.backend.Stop()
	p.state = StateStopped
	if p.mode == ModeRandom {
		p.elapsed = 0
		p.discard()
	}
}

// Update advances the player by dt seconds.
func (p *LayerPlayer) Update(dt float64) {
	switch p.mode {
	case ModeRandom:
		p.updateRandom(dt)
	case ModeLoop:
		p.updateLoop()
	}
}

// Snapshot returns the current player state.
func (p *LayerPlayer) Snapshot() PlayerSnapshot {
	s := PlayerSnapshot{
		Mode:    p.mode,
		State:   p.state,
		Elapsed: p.elapsed,
		Period:  p.cfg.Period,
		Next:    p.next,
		Fired:   p.fired,
	}
	if p.count > 0 {
		s.Events = append([]ScheduledEvent(nil), p.events[:p.count]...)
	}
	return s
}

func (p *LayerPlayer) updateRandom(dt float64) {
	if p.cfg.Routing != p.routing {
		p.routing = p.cfg.Routing
		p.backend.SetProperties(Properties{Volume: 1, Pitch: 1, Routing: p.routing})
	}
	p.sync()

	p.elapsed += dt
	if p.elapsed >= p.cfg.Period {
		if p.catchUp && p.state == StatePlaying {
			p.fireDue(math.Inf(1))
		}
		p.elapsed -= p.cfg.Period
		if p.state == StatePlaying {
			p.plan()
		}
	}
	if p.state == StatePlaying {
		p.fireDue(p.elapsed)
	}
}

// sync picks up configuration edits made since the previous update.
func (p *LayerPlayer) sync() {
	resized := len(p.cfg.Sounds) != len(p.durations)
	if !resized && !p.dirty && p.cfg.NoRepeat == p.noRepeat {
		// A clip can be swapped for another one of a different length.
		p.durations = p.cfg.durations(p.durations)
		return
	}
	if p.dirty {
		p.dirty = false
		p.backend.Stop()
	}
	if resized {
		p.rebuild()
	} else {
		p.refresh()
	}
	p.restart()
}

// rebuild recreates the duration cache and the pool for the current sounds.
func (p *LayerPlayer) rebuild() {
	p.durations = p.cfg.durations(p.durations)
	p.noRepeat = p.cfg.NoRepeat
	pool, err := NewRandomPool(len(p.durations), p.noRepeat, p.rng)
	if err != nil {
		// Every sound was removed; nothing is planned until one comes back.
		p.pool = nil
		return
	}
	p.pool = pool
}

// refresh reloads durations and the no-repeat window without reshuffling.
func (p *LayerPlayer) refresh() {
	p.durations = p.cfg.durations(p.durations)
	p.noRepeat = p.cfg.NoRepeat
	if p.pool == nil {
		p.rebuild()
		return
	}
	p.pool.SetNoRepeatCount(p.noRepeat)
}

// restart starts a new period right away.
func (p *LayerPlayer) restart() {
	p.elapsed = 0
	p.discard()
	if p.state == StatePlaying {
		p.plan()
	}
}

func (p *LayerPlayer) discard() {
	p.count = 0
	p.next = 0
}

func (p *LayerPlayer) plan() {
	req := PlanRequest{
		Count:     p.cfg.Count.Sample(p.rng),
		Silence:   p.cfg.Silence,
		Pitch:     p.cfg.Pitch,
		Period:    p.cfg.Period,
		Durations: p.durations,
	}
	p.count = p.planner.Plan(req, p.pool, p.events[:])
	p.next = 0
}

// fireDue fires events that start at or before now: one per call unless
// catch-up is enabled.
func (p *LayerPlayer) fireDue(now float64) {
	for p.next < p.count && p.events[p.next].Start <= now {
		ev := p.events[p.next]
		p.next++
		p.fire(ev)
		if !p.catchUp {
			return
		}
	}
}

func (p *LayerPlayer) fire(ev ScheduledEvent) {
	if ev.Sound >= len(p.cfg.Sounds) {
		return
	}
	volume := p.cfg.Volume.Sample(p.rng)
	pan := p.cfg.Pan.Sample(p.rng)
	p.backend.PlayOneShot(p.cfg.Sounds[ev.Sound].ID, volume, ev.Pitch, pan)
	p.fired++
}

func (p *LayerPlayer) updateLoop() {
	if p.dirty {
		p.dirty = false
		if len(p.cfg.Sounds) > 0 {
			p.backend.SetClip(p.cfg.Sounds[0].ID)
			if p.state == StatePlaying {
				p.backend.Play()
			}
		}
	}
	p.backend.SetProperties(p.loopProperties())
}

func (p *LayerPlayer) loopProperties() Properties {
	return Properties{
		Volume:  p.cfg.Volume.Min,
		Pitch:   p.cfg.Pitch.Min,
		Pan:     p.cfg.Pan.Min,
		Routing: p.cfg.Routing,
	}
}
