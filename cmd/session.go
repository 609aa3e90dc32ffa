package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/warpdl/ambiance/cmd/common"
	"github.com/warpdl/ambiance/internal/clips"
	"github.com/warpdl/ambiance/internal/manifest"
	"github.com/warpdl/ambiance/pkg/ambiance"
)

var errNoManifest = errors.New("no manifest provided")

// session is a loaded manifest with its decoded clips.
type session struct {
	manifest *manifest.Manifest
	lib      *clips.Library
	amb      *ambiance.Ambiance
	// clipErr is set when the clip directory could not be loaded and lib is nil.
	clipErr error
}

// loadSession reads the manifest at name and the clips it points to. When
// requireClips is false a broken clip directory is tolerated as long as
// every random sound declares its duration.
func loadSession(fs afero.Fs, name string, requireClips bool) (*session, error) {
	m, err := manifest.Load(fs, name)
	if err != nil {
		return nil, err
	}
	s := &session{manifest: m}
	s.lib, s.clipErr = clips.LoadDir(fs, m.ClipDir())
	if s.clipErr != nil && requireClips {
		return nil, s.clipErr
	}
	var lookup manifest.DurationLookup
	if s.lib != nil {
		lookup = s.lib.Duration
	}
	s.amb, err = m.Ambiance(lookup)
	if err != nil {
		if s.clipErr != nil {
			return nil, fmt.Errorf("%w (%v)", err, s.clipErr)
		}
		return nil, err
	}
	return s, nil
}

// missingClips returns the sounds of the manifest that have no decoded clip.
func (s *session) missingClips() []string {
	var missing []string
	for _, id := range s.manifest.SoundIDs() {
		if s.lib == nil {
			missing = append(missing, id)
			continue
		}
		if _, err := s.lib.Get(id); err != nil {
			missing = append(missing, id)
		}
	}
	return missing
}

// fitCell pads or truncates s to exactly n columns.
func fitCell(s string, n int) string {
	switch l := len(s); {
	case l > n:
		return s[:n-3] + "..."
	case l < n:
		return common.Beaut(s, n)
	}
	return s
}
