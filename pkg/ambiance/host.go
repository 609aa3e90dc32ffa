package ambiance

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/warpdl/ambiance/pkg/logger"
)

// ErrHostClosed is returned by Host methods called after Close.
var ErrHostClosed = errors.New("ambiance host is closed")

// Trigger describes one one-shot fired by a random layer.
type Trigger struct {
	Layer  int     `json:"layer"`
	Name   string  `json:"name"`
	Sound  string  `json:"sound"`
	Volume float64 `json:"volume"`
	Pitch  float64 `json:"pitch"`
	Pan    float64 `json:"pan"`
}

// LayerStatus is the state of one layer as reported by Host.Status.
type LayerStatus struct {
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Mode    Mode    `json:"mode"`
	State   string  `json:"state"`
	Mute    bool    `json:"mute"`
	Solo    bool    `json:"solo"`
	Muted   bool    `json:"muted"`
	Sounds  int     `json:"sounds"`
	Routing string  `json:"routing,omitempty"`
	Elapsed float64 `json:"elapsed"`
	Period  float64 `json:"period"`
	Planned int     `json:"planned"`
	Pending int     `json:"pending"`
	Fired   uint64  `json:"fired"`
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the logger used for layer lifecycle messages.
func WithLogger(l logger.Logger) HostOption {
	return func(h *Host) {
		h.log = l
	}
}

// WithHostSeed makes every layer player of the host draw from a random
// source derived from seed.
func WithHostSeed(seed uint64) HostOption {
	return func(h *Host) {
		h.seeds = NewRand(seed)
	}
}

// WithHostCatchUp enables catch-up on every random layer. See WithCatchUp.
func WithHostCatchUp(catchUp bool) HostOption {
	return func(h *Host) {
		h.catchUp = catchUp
	}
}

type hostLayer struct {
	cfg     LayerConfig
	backend Backend
	player  *LayerPlayer
	muted   bool
}

// Host plays a whole ambiance: one LayerPlayer and one Backend per layer.
// All methods are safe for concurrent use.
type Host struct {
	mu        sync.Mutex
	name      string
	layers    []*hostLayer
	factory   BackendFactory
	log       logger.Logger
	seeds     *rand.Rand
	catchUp   bool
	playing   bool
	closed    bool
	onTrigger func(Trigger)
	onState   func(playing bool)
	flags     []MixFlags
	mutes     []bool
}

// NewHost creates a stopped host for amb. The ambiance is copied; later
// edits go through the host. factory is called once per layer.
func NewHost(amb *Ambiance, factory BackendFactory, opts ...HostOption) (*Host, error) {
	if factory == nil {
		return nil, ErrNilBackend
	}
	h := &Host{
		name:    amb.Name,
		factory: factory,
		log:     logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	for i := range amb.Layers {
		if _, err := h.addLayer(amb.Layers[i].Clone()); err != nil {
			h.closeLayers()
			return nil, err
		}
	}
	h.applyMutes()
	return h, nil
}

// Name returns the ambiance name.
func (h *Host) Name() string {
	return h.name
}

// OnTrigger registers fn to be called for every one-shot fired by a layer.
// fn runs while the host is locked and must not call back into it.
func (h *Host) OnTrigger(fn func(Trigger)) {
	h.mu.Lock()
	h.onTrigger = fn
	h.mu.Unlock()
}

// OnState registers fn to be called after every Play and Stop, with the
// new playing state. fn runs while the host is locked and must not call
// back into it.
func (h *Host) OnState(fn func(playing bool)) {
	h.mu.Lock()
	h.onState = fn
	h.mu.Unlock()
}

// Play starts every layer.
func (h *Host) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	for _, l := range h.layers {
		l.player.Play()
	}
	h.playing = true
	h.log.Info("ambiance %q: playing %d layers", h.name, len(h.layers))
	h.emitState()
	return nil
}

// Stop stops every layer.
func (h *Host) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	h.stopLayers()
	h.log.Info("ambiance %q: stopped", h.name)
	h.emitState()
	return nil
}

// IsPlaying reports whether the host is playing.
func (h *Host) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

// Update advances every layer by dt seconds. Layers only advance while the
// host is playing.
func (h *Host) Update(dt float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing || h.closed {
		return
	}
	for _, l := range h.layers {
		l.player.Update(dt)
	}
}

// Len returns the number of layers.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.layers)
}

// AddLayer validates cfg, appends it and returns its index. The new layer
// starts right away when the host is playing.
func (h *Host) AddLayer(cfg LayerConfig) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrHostClosed
	}
	cfg.Validate()
	l, err := h.addLayer(cfg.Clone())
	if err != nil {
		return 0, err
	}
	if h.playing {
		l.player.Play()
	}
	h.applyMutes()
	return len(h.layers) - 1, nil
}

// RemoveLayer stops and removes the layer at index i. Its backend is
// closed when it implements io.Closer.
func (h *Host) RemoveLayer(i int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, err := h.layer(i)
	if err != nil {
		return err
	}
	l.player.Stop()
	h.layers = slices.Delete(h.layers, i, i+1)
	h.applyMutes()
	h.log.Info("ambiance %q: removed layer %q", h.name, l.cfg.Name)
	return closeBackend(l.backend)
}

// SwapLayers exchanges the layers at indices i and j.
func (h *Host) SwapLayers(i, j int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.layer(i); err != nil {
		return err
	}
	if _, err := h.layer(j); err != nil {
		return err
	}
	h.layers[i], h.layers[j] = h.layers[j], h.layers[i]
	return nil
}

// Layer returns a copy of the configuration of layer i.
func (h *Host) Layer(i int) (LayerConfig, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, err := h.layer(i)
	if err != nil {
		return LayerConfig{}, err
	}
	return l.cfg.Clone(), nil
}

// Find returns the index of the first layer named name, or -1.
func (h *Host) Find(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.IndexFunc(h.layers, func(l *hostLayer) bool {
		return l.cfg.Name == name
	})
}

// EditLayer applies fn to the configuration of layer i. The result is
// validated; an edit that fails or leaves the layer unplayable is rolled
// back.
//
// A mode change replaces the player on the same backend. A change of the
// sound list or of the timing of a random layer marks the player dirty.
// Other properties are read by the player on its next update.
func (h *Host) EditLayer(i int, fn func(cfg *LayerConfig) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, err := h.layer(i)
	if err != nil {
		return err
	}
	prev := l.cfg.Clone()
	if err := fn(&l.cfg); err != nil {
		l.cfg = prev
		return fmt.Errorf("edit layer %d: %w", i, err)
	}
	l.cfg.Validate()
	if err := l.cfg.Check(); err != nil {
		l.cfg = prev
		return fmt.Errorf("edit layer %d: %w", i, err)
	}

	switch {
	case l.cfg.Mode != prev.Mode:
		l.player.Stop()
		if err := h.newPlayer(l); err != nil {
			l.cfg = prev
			_ = h.newPlayer(l)
			return fmt.Errorf("edit layer %d: %w", i, err)
		}
		if h.playing {
			l.player.Play()
		}
		h.log.Info("ambiance %q: layer %q switched to %s mode", h.name, l.cfg.Name, l.cfg.Mode)
	case !slices.Equal(l.cfg.Sounds, prev.Sounds):
		l.player.MarkDirty()
		h.log.Info("ambiance %q: layer %q now has %d sounds", h.name, l.cfg.Name, len(l.cfg.Sounds))
	case l.cfg.Mode == ModeRandom && timingChanged(&prev, &l.cfg):
		// The planned batch no longer matches the layer; start a new period.
		l.player.MarkDirty()
	}
	if l.cfg.Mute != prev.Mute || l.cfg.Solo != prev.Solo {
		h.applyMutes()
	}
	return nil
}

// timingChanged reports whether an edit invalidates the planned batch of a
// random layer.
func timingChanged(prev, cur *LayerConfig) bool {
	return cur.Count != prev.Count || cur.Period != prev.Period ||
		cur.Silence != prev.Silence || cur.NoRepeat != prev.NoRepeat
}

// SetMute sets the mute flag of layer i.
func (h *Host) SetMute(i int, mute bool) error {
	return h.setFlags(i, func(f *LayerConfig) { f.Mute = mute })
}

// SetSolo sets the solo flag of layer i.
func (h *Host) SetSolo(i int, solo bool) error {
	return h.setFlags(i, func(f *LayerConfig) { f.Solo = solo })
}

func (h *Host) setFlags(i int, fn func(*LayerConfig)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, err := h.layer(i)
	if err != nil {
		return err
	}
	fn(&l.cfg)
	h.applyMutes()
	return nil
}

// Status reports the state of every layer.
func (h *Host) Status() []LayerStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LayerStatus, len(h.layers))
	for i, l := range h.layers {
		snap := l.player.Snapshot()
		out[i] = LayerStatus{
			Index:   i,
			Name:    l.cfg.Name,
			Mode:    snap.Mode,
			State:   snap.State.String(),
			Mute:    l.cfg.Mute,
			Solo:    l.cfg.Solo,
			Muted:   l.muted,
			Sounds:  len(l.cfg.Sounds),
			Routing: l.cfg.Routing,
			Elapsed: snap.Elapsed,
			Period:  snap.Period,
			Planned: len(snap.Events),
			Pending: len(snap.Events) - snap.Next,
			Fired:   snap.Fired,
		}
	}
	return out
}

// Ambiance returns a copy of the ambiance as currently configured.
func (h *Host) Ambiance() *Ambiance {
	h.mu.Lock()
	defer h.mu.Unlock()
	a := &Ambiance{Name: h.name, Layers: make([]LayerConfig, len(h.layers))}
	for i, l := range h.layers {
		a.Layers[i] = l.cfg.Clone()
	}
	return a
}

// Close stops every layer and closes the backends. The host cannot be
// used afterwards.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.stopLayers()
	h.closed = true
	return h.closeLayers()
}

func (h *Host) stopLayers() {
	for _, l := range h.layers {
		l.player.Stop()
	}
	h.playing = false
}

func (h *Host) closeLayers() error {
	var errs []error
	for _, l := range h.layers {
		if err := closeBackend(l.backend); err != nil {
			errs = append(errs, err)
		}
	}
	h.layers = nil
	return errors.Join(errs...)
}

func (h *Host) layer(i int) (*hostLayer, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	if i < 0 || i >= len(h.layers) {
		return nil, fmt.Errorf("layer %d: %w", i, ErrLayerIndex)
	}
	return h.layers[i], nil
}

func (h *Host) addLayer(cfg LayerConfig) (*hostLayer, error) {
	l := &hostLayer{cfg: cfg}
	if err := l.cfg.Check(); err != nil {
		return nil, err
	}
	b, err := h.factory(len(h.layers), &l.cfg)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", cfg.Name, err)
	}
	if b == nil {
		return nil, fmt.Errorf("layer %q: %w", cfg.Name, ErrNilBackend)
	}
	l.backend = b
	if err := h.newPlayer(l); err != nil {
		_ = closeBackend(b)
		return nil, err
	}
	h.layers = append(h.layers, l)
	h.log.Info("ambiance %q: layer %q ready (%s, %d sounds)", h.name, cfg.Name, cfg.Mode, len(cfg.Sounds))
	return l, nil
}

func (h *Host) newPlayer(l *hostLayer) error {
	opts := []PlayerOption{WithCatchUp(h.catchUp)}
	if h.seeds != nil {
		opts = append(opts, WithSeed(h.seeds.Uint64()))
	}
	p, err := NewLayerPlayer(&l.cfg, &observedBackend{Backend: l.backend, host: h, layer: l}, opts...)
	if err != nil {
		return err
	}
	l.player = p
	return nil
}

func (h *Host) applyMutes() {
	h.flags = h.flags[:0]
	for _, l := range h.layers {
		h.flags = append(h.flags, MixFlags{Mute: l.cfg.Mute, Solo: l.cfg.Solo})
	}
	h.mutes = ResolveMutes(h.flags, h.mutes)
	for i, l := range h.layers {
		if l.muted != h.mutes[i] {
			h.log.Info("ambiance %q: layer %q muted=%t", h.name, l.cfg.Name, h.mutes[i])
		}
		l.muted = h.mutes[i]
		l.backend.SetMuted(l.muted)
	}
}

func (h *Host) emit(l *hostLayer, id string, volume, pitch, pan float64) {
	if h.onTrigger == nil {
		return
	}
	h.onTrigger(Trigger{
		Layer:  slices.Index(h.layers, l),
		Name:   l.cfg.Name,
		Sound:  id,
		Volume: volume,
		Pitch:  pitch,
		Pan:    pan,
	})
}

func (h *Host) emitState() {
	if h.onState != nil {
		h.onState(h.playing)
	}
}

func closeBackend(b Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// observedBackend reports one-shots to the host trigger hook.
type observedBackend struct {
	Backend
	host  *Host
	layer *hostLayer
}

func (o *observedBackend) PlayOneShot(id string, volume, pitch, pan float64) {
	o.Backend.PlayOneShot(id, volume, pitch, pan)
	o.host.emit(o.layer, id, volume, pitch, pan)
}
