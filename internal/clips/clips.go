// Package clips loads the audio clips an ambiance plays from WAV files.
package clips

import (
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

var (
	ErrNotFound   = errors.New("clip not found")
	ErrInvalidWAV = errors.New("not a valid wav file")
	ErrChannels   = errors.New("unsupported channel count")
)

// Ext is the extension of the files LoadDir picks up.
const Ext = ".wav"

// Clip is a decoded clip as stereo float frames in [-1, 1].
type Clip struct {
	ID         string
	SampleRate int
	Frames     [][2]float32
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Frames)) / float64(c.SampleRate)
}

// Decode reads a mono or stereo PCM WAV stream.
func Decode(id string, r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("clip %q: %w", id, ErrInvalidWAV)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("clip %q: decode: %w", id, err)
	}
	chans := buf.Format.NumChannels
	if chans != 1 && chans != 2 {
		return nil, fmt.Errorf("clip %q: %w: %d", id, ErrChannels, chans)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	scale := float32(int(1) << (depth - 1))
	offset := 0
	if depth == 8 {
		// 8-bit PCM is unsigned.
		offset = 128
	}
	sample := func(v int) float32 {
		return float32(v-offset) / scale
	}

	frames := make([][2]float32, len(buf.Data)/chans)
	for i := range frames {
		l := sample(buf.Data[i*chans])
		r := l
		if chans == 2 {
			r = sample(buf.Data[i*chans+1])
		}
		frames[i] = [2]float32{l, r}
	}
	return &Clip{ID: id, SampleRate: buf.Format.SampleRate, Frames: frames}, nil
}

// Library holds decoded clips by id. It is safe for concurrent use.
type Library struct {
	mu    sync.RWMutex
	clips map[string]*Clip
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{clips: make(map[string]*Clip)}
}

// Add stores c, replacing any clip with the same id.
func (l *Library) Add(c *Clip) {
	l.mu.Lock()
	l.clips[c.ID] = c
	l.mu.Unlock()
}

// Get returns the clip named id.
func (l *Library) Get(id string) (*Clip, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.clips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c, nil
}

// Duration returns the length of clip id in seconds.
func (l *Library) Duration(id string) (float64, bool) {
	c, err := l.Get(id)
	if err != nil {
		return 0, false
	}
	return c.Duration(), true
}

// IDs returns the sorted ids of every clip.
func (l *Library) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.clips))
	for id := range l.clips {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of clips.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clips)
}

// LoadFile decodes the WAV file at name and stores it under its base name
// without extension.
func (l *Library) LoadFile(fs afero.Fs, name string) error {
	f, err := fs.Open(name)
	if err != nil {
		return fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()
	c, err := Decode(ClipID(name), f)
	if err != nil {
		return err
	}
	l.Add(c)
	return nil
}

// LoadDir decodes every WAV file directly under dir.
func LoadDir(fs afero.Fs, dir string) (*Library, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read clip dir: %w", err)
	}
	lib := NewLibrary()
	for _, fi := range infos {
		if fi.IsDir() || !strings.EqualFold(path.Ext(fi.Name()), Ext) {
			continue
		}
		if err := lib.LoadFile(fs, path.Join(dir, fi.Name())); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// ClipID returns the id of the clip stored at name.
func ClipID(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
