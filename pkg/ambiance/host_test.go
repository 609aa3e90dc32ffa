package ambiance

import (
	"errors"
	"strings"
	"testing"

	"github.com/warpdl/ambiance/pkg/logger"
)

func testAmbiance() *Ambiance {
	birds := *testLayer()
	wind := DefaultLayerConfig()
	wind.Name = "wind"
	wind.Mode = ModeLoop
	wind.Sounds = []Sound{{ID: "gust", Duration: 8}}
	return &Ambiance{Name: "forest", Layers: []LayerConfig{birds, wind}}
}

func newTestHost(t *testing.T, opts ...HostOption) (*Host, *[]*Recorder) {
	t.Helper()
	var recs []*Recorder
	h, err := NewHost(testAmbiance(), RecorderFactory(&recs), append([]HostOption{WithHostSeed(1)}, opts...)...)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h, &recs
}

type closingRecorder struct {
	*Recorder
	closed bool
}

func (c *closingRecorder) Close() error {
	c.closed = true
	return nil
}

func TestNewHost(t *testing.T) {
	if _, err := NewHost(testAmbiance(), nil); !errors.Is(err, ErrNilBackend) {
		t.Errorf("expected ErrNilBackend, got %v", err)
	}

	amb := testAmbiance()
	amb.Layers[1].Sounds = nil
	var closed []*closingRecorder
	factory := func(int, *LayerConfig) (Backend, error) {
		c := &closingRecorder{Recorder: NewRecorder()}
		closed = append(closed, c)
		return c, nil
	}
	if _, err := NewHost(amb, factory); !errors.Is(err, ErrNoSounds) {
		t.Fatalf("expected ErrNoSounds, got %v", err)
	}
	if len(closed) != 1 || !closed[0].closed {
		t.Error("expected the backends of the built layers to be closed")
	}

	boom := errors.New("device busy")
	_, err := NewHost(testAmbiance(), func(int, *LayerConfig) (Backend, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestHost_CopiesAmbiance(t *testing.T) {
	amb := testAmbiance()
	h, err := NewHost(amb, RecorderFactory(nil))
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	defer h.Close()
	amb.Layers[0].Name = "changed"
	if cfg, _ := h.Layer(0); cfg.Name != "birds" {
		t.Errorf("host shares layers with the caller: %q", cfg.Name)
	}
	if got := h.Ambiance(); got.Name != "forest" || len(got.Layers) != 2 {
		t.Errorf("unexpected ambiance: %+v", got)
	}
}

func TestHost_PlayUpdateStop(t *testing.T) {
	h, recs := newTestHost(t)
	birds, wind := (*recs)[0], (*recs)[1]

	h.Update(20)
	if len(birds.CallsOf(CallPlayOneShot)) != 0 {
		t.Fatal("stopped host must not update its layers")
	}

	if err := h.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !h.IsPlaying() {
		t.Fatal("expected playing host")
	}
	if len(wind.CallsOf(CallPlay)) != 1 {
		t.Error("expected loop layer started")
	}
	h.Update(10)
	for range 600 {
		h.Update(1.0 / 60)
	}
	if n := len(birds.CallsOf(CallPlayOneShot)); n == 0 {
		t.Error("expected random layer to fire")
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if h.IsPlaying() || len(wind.CallsOf(CallStop)) != 1 || len(birds.CallsOf(CallStop)) != 1 {
		t.Error("expected every layer stopped")
	}
	for _, st := range h.Status() {
		if st.State != "stopped" {
			t.Errorf("layer %q still %s", st.Name, st.State)
		}
	}
}

func TestHost_OnTrigger(t *testing.T) {
	h, recs := newTestHost(t)
	var got []Trigger
	h.OnTrigger(func(tr Trigger) { got = append(got, tr) })
	_ = h.Play()
	h.Update(10)
	for range 600 {
		h.Update(1.0 / 60)
	}
	shots := (*recs)[0].CallsOf(CallPlayOneShot)
	if len(got) != len(shots) || len(got) == 0 {
		t.Fatalf("expected one trigger per one-shot, got %d for %d", len(got), len(shots))
	}
	for i, tr := range got {
		if tr.Layer != 0 || tr.Name != "birds" || tr.Sound != shots[i].ID {
			t.Errorf("unexpected trigger %+v", tr)
		}
	}
}

func TestHost_OnState(t *testing.T) {
	h, _ := newTestHost(t)
	var got []bool
	h.OnState(func(playing bool) { got = append(got, playing) })
	_ = h.Play()
	_ = h.Stop()
	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("expected [true false], got %v", got)
	}
}

func TestHost_MuteSolo(t *testing.T) {
	h, recs := newTestHost(t)
	birds, wind := (*recs)[0], (*recs)[1]

	if birds.Muted() || wind.Muted() {
		t.Fatal("layers should start unmuted")
	}
	if err := h.SetSolo(1, true); err != nil {
		t.Fatalf("SetSolo: %v", err)
	}
	if !birds.Muted() || wind.Muted() {
		t.Errorf("solo on wind: birds muted=%t wind muted=%t", birds.Muted(), wind.Muted())
	}
	if err := h.SetMute(1, true); err != nil {
		t.Fatalf("SetMute: %v", err)
	}
	if wind.Muted() {
		t.Error("solo must win over mute")
	}
	_ = h.SetSolo(1, false)
	if birds.Muted() || !wind.Muted() {
		t.Errorf("after unsolo: birds muted=%t wind muted=%t", birds.Muted(), wind.Muted())
	}
	st := h.Status()
	if !st[1].Mute || st[1].Solo || !st[1].Muted || st[0].Muted {
		t.Errorf("unexpected status: %+v", st)
	}
	if err := h.SetMute(5, true); !errors.Is(err, ErrLayerIndex) {
		t.Errorf("expected ErrLayerIndex, got %v", err)
	}
}

func TestHost_AddRemoveSwap(t *testing.T) {
	h, recs := newTestHost(t)
	_ = h.Play()

	creek := DefaultLayerConfig()
	creek.Name = "creek"
	creek.Mode = ModeLoop
	creek.Solo = true
	creek.Sounds = []Sound{{ID: "water"}}
	i, err := h.AddLayer(creek)
	if err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	if i != 2 || h.Len() != 3 {
		t.Fatalf("expected third layer, got index %d len %d", i, h.Len())
	}
	rec := (*recs)[2]
	if len(rec.CallsOf(CallPlay)) != 1 {
		t.Error("layer added while playing should start")
	}
	if !(*recs)[0].Muted() || !(*recs)[1].Muted() {
		t.Error("solo of the new layer should mute the others")
	}

	if err := h.SwapLayers(0, 2); err != nil {
		t.Fatalf("SwapLayers: %v", err)
	}
	if h.Find("creek") != 0 || h.Find("birds") != 2 || h.Find("nope") != -1 {
		t.Errorf("unexpected order: %+v", h.Status())
	}

	if err := h.RemoveLayer(0); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}
	if len(rec.CallsOf(CallStop)) != 1 {
		t.Error("removed layer should be stopped")
	}
	if (*recs)[0].Muted() || (*recs)[1].Muted() {
		t.Error("removing the soloed layer should unmute the others")
	}
	if err := h.RemoveLayer(2); !errors.Is(err, ErrLayerIndex) {
		t.Errorf("expected ErrLayerIndex, got %v", err)
	}

	bad := DefaultLayerConfig()
	if _, err := h.AddLayer(bad); !errors.Is(err, ErrNoSounds) {
		t.Errorf("expected ErrNoSounds, got %v", err)
	}
}

func TestHost_EditLayer(t *testing.T) {
	mock := logger.NewMockLogger()
	h, recs := newTestHost(t, WithLogger(mock))
	birds := (*recs)[0]
	_ = h.Play()
	h.Update(10)

	err := h.EditLayer(0, func(c *LayerConfig) error {
		c.Volume = Range{Min: 0.1, Max: 0.2}
		c.Period = 0
		return nil
	})
	if err != nil {
		t.Fatalf("EditLayer: %v", err)
	}
	cfg, _ := h.Layer(0)
	if cfg.Period != MinPeriod {
		t.Errorf("expected edit validated, period %v", cfg.Period)
	}
	if len(birds.CallsOf(CallStop)) != 0 {
		t.Error("property edit must not silence the layer")
	}

	_ = h.EditLayer(0, func(c *LayerConfig) error {
		c.Sounds = append(c.Sounds, Sound{ID: "d", Duration: 0.5})
		return nil
	})
	h.Update(0.01)
	if len(birds.CallsOf(CallStop)) != 1 {
		t.Error("sound list edit should restart the layer")
	}

	_ = h.EditLayer(0, func(c *LayerConfig) error {
		c.Mode = ModeLoop
		return nil
	})
	st := h.Status()[0]
	if st.Mode != ModeLoop || st.State != "playing" {
		t.Errorf("expected playing loop layer, got %+v", st)
	}
	if len(birds.CallsOf(CallPlay)) != 1 || birds.CallsOf(CallSetClip)[0].ID != "a" {
		t.Error("expected the new loop player to start on the same backend")
	}

	err = h.EditLayer(0, func(c *LayerConfig) error {
		c.Sounds = nil
		return nil
	})
	if !errors.Is(err, ErrNoSounds) {
		t.Fatalf("expected ErrNoSounds, got %v", err)
	}
	if cfg, _ := h.Layer(0); len(cfg.Sounds) != 4 {
		t.Errorf("expected the edit rolled back, got %d sounds", len(cfg.Sounds))
	}

	boom := errors.New("bad edit")
	err = h.EditLayer(0, func(c *LayerConfig) error {
		c.Name = "half-applied"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the edit error, got %v", err)
	}
	if cfg, _ := h.Layer(0); cfg.Name != "birds" {
		t.Errorf("expected a failed edit rolled back, got name %q", cfg.Name)
	}

	found := false
	for _, msg := range mock.InfoCalls {
		if strings.Contains(msg, "switched to loop mode") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected mode change logged, got %v", mock.InfoCalls)
	}
}

func TestHost_EditLayerTimingRestartsPeriod(t *testing.T) {
	h, recs := newTestHost(t)
	birds, wind := (*recs)[0], (*recs)[1]
	_ = h.Play()
	h.Update(10)
	for range 120 {
		h.Update(1.0 / 60)
	}
	before := h.Status()[0]
	if before.Elapsed < 1.9 || before.Planned != 3 {
		t.Fatalf("unexpected state before the edit: %+v", before)
	}

	err := h.EditLayer(0, func(c *LayerConfig) error {
		c.Period = 50
		c.Silence = 2
		c.Count = CountRange{Min: 5, Max: 5}
		return nil
	})
	if err != nil {
		t.Fatalf("EditLayer: %v", err)
	}
	h.Update(0.01)

	after := h.Status()[0]
	if after.Elapsed > 0.02 {
		t.Errorf("expected the period restarted, elapsed %v", after.Elapsed)
	}
	if after.Period != 50 || after.Planned != 5 {
		t.Errorf("expected a new batch of 5 over 50s, got %+v", after)
	}
	if len(birds.CallsOf(CallStop)) != 1 {
		t.Error("expected the old batch silenced")
	}

	// Timing fields mean nothing to a loop layer.
	_ = h.EditLayer(1, func(c *LayerConfig) error {
		c.Period = 30
		return nil
	})
	h.Update(0.01)
	if len(wind.CallsOf(CallStop)) != 0 || len(wind.CallsOf(CallPlay)) != 1 {
		t.Error("loop layer must keep playing after a timing edit")
	}
}

func TestHost_Close(t *testing.T) {
	var backs []*closingRecorder
	factory := func(int, *LayerConfig) (Backend, error) {
		c := &closingRecorder{Recorder: NewRecorder()}
		backs = append(backs, c)
		return c, nil
	}
	h, err := NewHost(testAmbiance(), factory)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	_ = h.Play()
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, b := range backs {
		if !b.closed {
			t.Error("expected backend closed")
		}
	}
	if err := h.Play(); !errors.Is(err, ErrHostClosed) {
		t.Errorf("expected ErrHostClosed, got %v", err)
	}
	if err := h.SetMute(0, true); !errors.Is(err, ErrHostClosed) {
		t.Errorf("expected ErrHostClosed, got %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestHost_SeedIsReproducible(t *testing.T) {
	run := func() []Call {
		var recs []*Recorder
		h, err := NewHost(testAmbiance(), RecorderFactory(&recs), WithHostSeed(77))
		if err != nil {
			t.Fatalf("NewHost: %v", err)
		}
		defer h.Close()
		_ = h.Play()
		for range 2000 {
			h.Update(1.0 / 30)
		}
		return recs[0].Calls()
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("call counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("call %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
