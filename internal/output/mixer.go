// Package output renders layer playback to an audio device. A Mixer turns
// the calls of every layer Source into interleaved float32 stereo; an Engine
// streams the mixer to the sound card.
package output

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"

	"github.com/warpdl/ambiance/internal/clips"
	"github.com/warpdl/ambiance/pkg/ambiance"
	"github.com/warpdl/ambiance/pkg/logger"
)

const (
	// DefaultSampleRate is the output rate used when none is given.
	DefaultSampleRate = 44100
	// Channels is the number of interleaved output channels.
	Channels = 2
	// MaxVoices caps the one-shots a source plays at once; the oldest is
	// dropped first.
	MaxVoices = 32
)

// ClipSource resolves clip ids to decoded clips.
type ClipSource interface {
	Get(id string) (*clips.Clip, error)
}

// Mixer sums the voices of every source. It is safe for concurrent use:
// layers drive their sources while the device goroutine reads the mix.
type Mixer struct {
	mu      sync.Mutex
	rate    int
	clips   ClipSource
	log     logger.Logger
	sources []*Source
	buses   map[string]float64
	master  float64
	scratch []float32
}

// NewMixer creates a mixer producing rate Hz stereo from lib.
func NewMixer(rate int, lib ClipSource, l logger.Logger) *Mixer {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Mixer{
		rate:   rate,
		clips:  lib,
		log:    l,
		buses:  make(map[string]float64),
		master: 1,
	}
}

// SampleRate returns the output rate in Hz.
func (m *Mixer) SampleRate() int {
	return m.rate
}

// SetBusGain sets the gain applied to every source routed to bus.
func (m *Mixer) SetBusGain(bus string, gain float64) {
	m.mu.Lock()
	m.buses[bus] = max(gain, 0)
	m.mu.Unlock()
}

// SetMasterGain sets the gain applied to the whole mix.
func (m *Mixer) SetMasterGain(gain float64) {
	m.mu.Lock()
	m.master = max(gain, 0)
	m.mu.Unlock()
}

// NewSource adds a source to the mix.
func (m *Mixer) NewSource(name string) *Source {
	s := &Source{m: m, name: name, props: ambiance.Properties{Volume: 1, Pitch: 1}}
	m.mu.Lock()
	m.sources = append(m.sources, s)
	m.mu.Unlock()
	return s
}

// Factory returns a BackendFactory creating one source per layer.
func (m *Mixer) Factory() ambiance.BackendFactory {
	return func(_ int, cfg *ambiance.LayerConfig) (ambiance.Backend, error) {
		return m.NewSource(cfg.Name), nil
	}
}

// Voices returns the number of voices currently playing.
func (m *Mixer) Voices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sources {
		n += len(s.shots)
		if s.loop != nil {
			n++
		}
	}
	return n
}

// Mix renders len(dst)/2 stereo frames into dst.
func (m *Mixer) Mix(dst []float32) {
	clear(dst)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		gain := float32(m.master * m.busGain(s.props.Routing))
		if s.muted {
			// Muted sources keep their position.
			gain = 0
		}
		if s.loop != nil {
			s.loop.mix(dst, gain)
		}
		s.shots = slices.DeleteFunc(s.shots, func(v *voice) bool {
			return v.mix(dst, gain)
		})
	}
	for i, v := range dst {
		dst[i] = min(max(v, -1), 1)
	}
}

// Read fills p with float32 little-endian stereo samples. It implements
// io.Reader for the audio device.
func (m *Mixer) Read(p []byte) (int, error) {
	n := len(p) / (4 * Channels) * Channels
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	buf := m.scratch[:n]
	m.Mix(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	clear(p[n*4:])
	return len(p), nil
}

func (m *Mixer) busGain(bus string) float64 {
	if bus == "" {
		return 1
	}
	if g, ok := m.buses[bus]; ok {
		return g
	}
	return 1
}

func (m *Mixer) remove(s *Source) {
	m.sources = slices.DeleteFunc(m.sources, func(x *Source) bool { return x == s })
}

// voice plays one clip at a fixed rate and pan.
type voice struct {
	clip   *clips.Clip
	pos    float64
	step   float64
	left   float32
	right  float32
	looped bool
}

func newVoice(c *clips.Clip, rate int, volume, pitch, pan float64, looped bool) *voice {
	v := &voice{clip: c, looped: looped}
	v.set(rate, volume, pitch, pan)
	return v
}

// set applies volume, pitch and a constant-power pan.
func (v *voice) set(rate int, volume, pitch, pan float64) {
	v.step = pitch * float64(v.clip.SampleRate) / float64(rate)
	angle := (min(max(pan, -1), 1) + 1) * math.Pi / 4
	v.left = float32(volume * math.Cos(angle))
	v.right = float32(volume * math.Sin(angle))
}

// mix adds the voice to dst and reports whether it has finished.
func (v *voice) mix(dst []float32, gain float32) bool {
	frames := v.clip.Frames
	n := len(frames)
	if n == 0 || v.step <= 0 {
		return !v.looped
	}
	for i := 0; i+1 < len(dst); i += 2 {
		idx := int(v.pos)
		next := idx + 1
		if next >= n {
			next = idx
			if v.looped {
				next = 0
			}
		}
		frac := float32(v.pos - float64(idx))
		a, b := frames[idx], frames[next]
		dst[i] += (a[0] + (b[0]-a[0])*frac) * v.left * gain
		dst[i+1] += (a[1] + (b[1]-a[1])*frac) * v.right * gain

		v.pos += v.step
		if v.pos >= float64(n) {
			if !v.looped {
				return true
			}
			v.pos = math.Mod(v.pos, float64(n))
		}
	}
	return false
}
