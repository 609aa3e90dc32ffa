package ambiance

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// MinPeriod is the shortest period Validate lets a layer plan over, in seconds.
const MinPeriod = 1.0

// Mode selects how a layer turns its sounds into playback.
type Mode int

const (
	// ModeRandom plays sounds chosen at random, at random times within every period.
	ModeRandom Mode = iota
	// ModeLoop loops the first sound of the layer.
	ModeLoop
)

func (m Mode) String() string {
	switch m {
	case ModeRandom:
		return "random"
	case ModeLoop:
		return "loop"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the textual form of a Mode ("random" or "loop").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random", "":
		return ModeRandom, nil
	case "loop":
		return ModeLoop, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeRandom && m != ModeLoop {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Range is an inclusive [Min, Max] interval sampled uniformly.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fixed returns a Range that always samples v.
func Fixed(v float64) Range {
	return Range{Min: v, Max: v}
}

// Sample draws a uniform value in the range using rng.
func (r Range) Sample(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

func (r Range) clamped(lo float64) Range {
	r.Min = max(r.Min, lo)
	r.Max = max(r.Max, r.Min)
	return r
}

// CountRange is an inclusive [Min, Max] interval of event counts.
type CountRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Sample draws a uniform count in the range using rng.
func (c CountRange) Sample(rng *rand.Rand) int {
	if c.Max <= c.Min {
		return c.Min
	}
	return c.Min + rng.IntN(c.Max-c.Min+1)
}

// Sound is one playable clip of a layer.
type Sound struct {
	// ID identifies the clip in the playback backend.
	ID string `json:"id"`
	// Duration is the nominal clip length in seconds, at pitch 1.
	Duration float64 `json:"duration,omitempty"`
}

// LayerConfig describes how the sounds of one layer must be played.
// Players read it on every update; edits are picked up on the next tick.
type LayerConfig struct {
	Name     string     `json:"name"`
	Mode     Mode       `json:"mode"`
	Volume   Range      `json:"volume"`
	Pitch    Range      `json:"pitch"`
	Pan      Range      `json:"pan"`
	Count    CountRange `json:"count"`
	Period   float64    `json:"period"`
	Silence  float64    `json:"silence"`
	NoRepeat int        `json:"noRepeat"`
	Routing  string     `json:"routing,omitempty"`
	Sounds   []Sound    `json:"sounds"`
	Mute     bool       `json:"mute,omitempty"`
	Solo     bool       `json:"solo,omitempty"`
}

// DefaultLayerConfig returns the configuration of a freshly created layer.
func DefaultLayerConfig() LayerConfig {
	return LayerConfig{
		Mode:   ModeRandom,
		Volume: Fixed(1),
		Pitch:  Fixed(1),
		Pan:    Fixed(0),
		Count:  CountRange{Min: 1, Max: 1},
		Period: 10,
	}
}

// Validate clamps every property into its valid domain.
func (c *LayerConfig) Validate() {
	c.Volume = c.Volume.clamped(0)
	c.Pitch = c.Pitch.clamped(0)
	c.Pan.Min = min(max(c.Pan.Min, -1), 1)
	c.Pan.Max = min(max(c.Pan.Max, c.Pan.Min), 1)
	c.Count.Min = min(max(c.Count.Min, 0), MaxCount)
	c.Count.Max = min(max(c.Count.Max, c.Count.Min), MaxCount)
	c.Period = max(c.Period, MinPeriod)
	c.Silence = max(c.Silence, 0)
	c.NoRepeat = max(c.NoRepeat, 0)
}

// Check reports whether a player can be built from the configuration.
func (c *LayerConfig) Check() error {
	if c.Mode != ModeRandom && c.Mode != ModeLoop {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(c.Mode))
	}
	if len(c.Sounds) == 0 {
		return fmt.Errorf("layer %q: %w", c.Name, ErrNoSounds)
	}
	return nil
}

// InsertSound inserts s before index i. i == len(Sounds) appends.
func (c *LayerConfig) InsertSound(i int, s Sound) error {
	if i < 0 || i > len(c.Sounds) {
		return ErrSoundIndex
	}
	c.Sounds = append(c.Sounds, Sound{})
	copy(c.Sounds[i+1:], c.Sounds[i:])
	c.Sounds[i] = s
	return nil
}

// RemoveSound removes the sound at index i.
func (c *LayerConfig) RemoveSound(i int) error {
	if i < 0 || i >= len(c.Sounds) {
		return ErrSoundIndex
	}
	c.Sounds = append(c.Sounds[:i], c.Sounds[i+1:]...)
	return nil
}

// Clone returns a deep copy of the configuration.
func (c LayerConfig) Clone() LayerConfig {
	c.Sounds = append([]Sound(nil), c.Sounds...)
	return c
}

// durations writes the nominal duration of every sound into dst, growing it if needed.
func (c *LayerConfig) durations(dst []float64) []float64 {
	if cap(dst) < len(c.Sounds) {
		dst = make([]float64, len(c.Sounds))
	}
	dst = dst[:len(c.Sounds)]
	for i, s := range c.Sounds {
		dst[i] = max(s.Duration, 0)
	}
	return dst
}
