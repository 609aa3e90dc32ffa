// Package manifest reads ambiance manifests: the JSON file naming the
// layers of an ambiance, where their clips live, the routing bus gains and
// an optional play/stop schedule.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/adhocore/gronx"
	"github.com/spf13/afero"

	"github.com/warpdl/ambiance/internal/scheduler"
	"github.com/warpdl/ambiance/pkg/ambiance"
)

var (
	ErrNoLayers    = errors.New("manifest has no layers")
	ErrUnknownClip = errors.New("sound has no known duration")
	ErrBadSchedule = errors.New("invalid schedule entry")
	ErrBadBus      = errors.New("invalid bus gain")
)

// Schedule actions.
const (
	ActionPlay = scheduler.ActionPlay
	ActionStop = scheduler.ActionStop
)

// ScheduleEntry starts or stops the ambiance on a cron expression.
type ScheduleEntry = scheduler.Entry

// Manifest is the decoded manifest file.
type Manifest struct {
	Name     string                 `json:"name"`
	Clips    string                 `json:"clips"`
	Buses    map[string]float64     `json:"buses,omitempty"`
	Schedule []ScheduleEntry        `json:"schedule,omitempty"`
	Layers   []ambiance.LayerConfig `json:"layers"`

	// Path is the file the manifest was loaded from.
	Path string `json:"-"`
}

// DurationLookup returns the nominal duration of a clip.
type DurationLookup func(id string) (float64, bool)

// Load reads and checks the manifest at name.
func Load(fs afero.Fs, name string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	m.Path = name
	return m, nil
}

// Parse decodes and checks a manifest. Layer defaults apply to omitted fields.
func Parse(data []byte) (*Manifest, error) {
	var raw struct {
		Manifest
		Layers []json.RawMessage `json:"layers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	m := raw.Manifest
	m.Layers = make([]ambiance.LayerConfig, 0, len(raw.Layers))
	for i, msg := range raw.Layers {
		cfg := ambiance.DefaultLayerConfig()
		if err := json.Unmarshal(msg, &cfg); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if cfg.Name == "" {
			cfg.Name = fmt.Sprintf("layer %d", i+1)
		}
		m.Layers = append(m.Layers, cfg)
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Check validates the parts of the manifest that do not need the clips.
func (m *Manifest) Check() error {
	if len(m.Layers) == 0 {
		return ErrNoLayers
	}
	for i := range m.Layers {
		if err := m.Layers[i].Check(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	for bus, gain := range m.Buses {
		if gain < 0 {
			return fmt.Errorf("%w: %q = %v", ErrBadBus, bus, gain)
		}
	}
	gron := gronx.New()
	for i, e := range m.Schedule {
		if e.Action != ActionPlay && e.Action != ActionStop {
			return fmt.Errorf("%w: entry %d: unknown action %q", ErrBadSchedule, i, e.Action)
		}
		if !gron.IsValid(e.Cron) {
			return fmt.Errorf("%w: entry %d: bad cron expression %q", ErrBadSchedule, i, e.Cron)
		}
	}
	return nil
}

// ClipDir returns the clip directory, resolved against the manifest location.
func (m *Manifest) ClipDir() string {
	dir := m.Clips
	if dir == "" {
		dir = "."
	}
	if path.IsAbs(dir) || m.Path == "" {
		return path.Clean(dir)
	}
	return path.Join(path.Dir(strings.ReplaceAll(m.Path, "\\", "/")), dir)
}

// Ambiance builds the validated ambiance described by the manifest. Sounds
// without a duration get the one reported by durations.
func (m *Manifest) Ambiance(durations DurationLookup) (*ambiance.Ambiance, error) {
	amb := &ambiance.Ambiance{Name: m.Name}
	for i := range m.Layers {
		cfg := m.Layers[i].Clone()
		cfg.Validate()
		for j := range cfg.Sounds {
			s := &cfg.Sounds[j]
			if s.Duration > 0 {
				continue
			}
			d, ok := 0.0, false
			if durations != nil {
				d, ok = durations(s.ID)
			}
			// Loop layers never plan, they only need the clip.
			if !ok && cfg.Mode == ambiance.ModeRandom {
				return nil, fmt.Errorf("layer %q: %w: %q", cfg.Name, ErrUnknownClip, s.ID)
			}
			s.Duration = d
		}
		amb.AddLayer(cfg)
	}
	return amb, nil
}

// SoundIDs returns every clip id referenced by the layers, in order of
// first use.
func (m *Manifest) SoundIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range m.Layers {
		for _, s := range l.Sounds {
			if !seen[s.ID] {
				seen[s.ID] = true
				ids = append(ids, s.ID)
			}
		}
	}
	return ids
}
