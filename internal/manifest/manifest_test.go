package manifest

import (
	"errors"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/warpdl/ambiance/pkg/ambiance"
)

const forest = `{
	"name": "forest",
	"clips": "sounds",
	"buses": {"birds": 0.8},
	"schedule": [
		{"action": "play", "cron": "0 7 * * *"},
		{"action": "stop", "cron": "0 22 * * *"}
	],
	"layers": [
		{
			"name": "birds",
			"mode": "random",
			"volume": {"min": 0.6, "max": 1},
			"count": {"min": 2, "max": 4},
			"period": 20,
			"silence": 0.5,
			"noRepeat": 1,
			"routing": "birds",
			"sounds": [{"id": "chirp1"}, {"id": "chirp2", "duration": 1.2}]
		},
		{
			"mode": "loop",
			"sounds": [{"id": "wind"}]
		}
	]
}`

func writeManifest(t *testing.T, fs afero.Fs, name, data string) {
	t.Helper()
	if err := afero.WriteFile(fs, name, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "amb/forest.json", forest)

	m, err := Load(fs, "amb/forest.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "forest" || len(m.Layers) != 2 || len(m.Schedule) != 2 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.ClipDir() != "amb/sounds" {
		t.Errorf("expected clip dir next to the manifest, got %q", m.ClipDir())
	}
	if m.Buses["birds"] != 0.8 {
		t.Errorf("unexpected buses: %v", m.Buses)
	}

	birds := m.Layers[0]
	if birds.Count != (ambiance.CountRange{Min: 2, Max: 4}) || birds.Routing != "birds" {
		t.Errorf("unexpected birds layer: %+v", birds)
	}
	if birds.Pitch != ambiance.Fixed(1) {
		t.Errorf("omitted pitch should keep the default, got %+v", birds.Pitch)
	}

	wind := m.Layers[1]
	if wind.Name != "layer 2" || wind.Mode != ambiance.ModeLoop || wind.Period != 10 {
		t.Errorf("unexpected default layer: %+v", wind)
	}
	if ids := m.SoundIDs(); !slices.Equal(ids, []string{"chirp1", "chirp2", "wind"}) {
		t.Errorf("unexpected sound ids: %v", ids)
	}
}

func TestAmbiance_ResolvesDurations(t *testing.T) {
	m, err := Parse([]byte(forest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lookup := func(id string) (float64, bool) {
		d, ok := map[string]float64{"chirp1": 0.7, "chirp2": 9}[id]
		return d, ok
	}
	amb, err := m.Ambiance(lookup)
	if err != nil {
		t.Fatalf("Ambiance: %v", err)
	}
	sounds := amb.Layers[0].Sounds
	if sounds[0].Duration != 0.7 {
		t.Errorf("expected looked-up duration, got %v", sounds[0].Duration)
	}
	if sounds[1].Duration != 1.2 {
		t.Errorf("explicit duration must win, got %v", sounds[1].Duration)
	}
	if amb.Layers[1].Sounds[0].Duration != 0 {
		t.Errorf("unknown loop clip should be accepted, got %v", amb.Layers[1].Sounds[0].Duration)
	}
	if m.Layers[0].Sounds[0].Duration != 0 {
		t.Error("building the ambiance must not modify the manifest")
	}

	if _, err := m.Ambiance(nil); !errors.Is(err, ErrUnknownClip) {
		t.Errorf("expected ErrUnknownClip, got %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"no layers", `{"name":"x","layers":[]}`, ErrNoLayers},
		{"no sounds", `{"layers":[{"name":"a"}]}`, ambiance.ErrNoSounds},
		{"bad mode", `{"layers":[{"mode":"shuffle","sounds":[{"id":"a"}]}]}`, ambiance.ErrUnknownMode},
		{"bad action", `{"schedule":[{"action":"pause","cron":"* * * * *"}],"layers":[{"sounds":[{"id":"a"}]}]}`, ErrBadSchedule},
		{"bad cron", `{"schedule":[{"action":"play","cron":"every day"}],"layers":[{"sounds":[{"id":"a"}]}]}`, ErrBadSchedule},
		{"bad bus", `{"buses":{"b":-1},"layers":[{"sounds":[{"id":"a"}]}]}`, ErrBadBus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Parse([]byte(`{"layers": [`)); err == nil {
		t.Error("expected a decode error")
	}
	if _, err := Load(afero.NewMemMapFs(), "missing.json"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestClipDir(t *testing.T) {
	tests := []struct {
		path, clips, want string
	}{
		{"", "", "."},
		{"forest.json", "", "."},
		{"a/b/forest.json", "../sounds", "a/sounds"},
		{"a/forest.json", "/abs/clips", "/abs/clips"},
	}
	for _, tt := range tests {
		m := Manifest{Path: tt.path, Clips: tt.clips}
		if got := m.ClipDir(); got != tt.want {
			t.Errorf("ClipDir(%q, %q) = %q, want %q", tt.path, tt.clips, got, tt.want)
		}
	}
}
