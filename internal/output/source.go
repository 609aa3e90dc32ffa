package output

import (
	"github.com/warpdl/ambiance/pkg/ambiance"
)

// Source is the playback backend of one layer. One-shots are mixed on top
// of the loop voice started by Play.
type Source struct {
	m      *Mixer
	name   string
	clip   string
	props  ambiance.Properties
	muted  bool
	loop   *voice
	shots  []*voice
	closed bool
}

var _ ambiance.Backend = (*Source)(nil)

// Name returns the layer name the source was created for.
func (s *Source) Name() string {
	return s.name
}

// Play starts the selected clip as a loop, from its beginning.
func (s *Source) Play() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed || s.clip == "" {
		return
	}
	c, err := s.m.clips.Get(s.clip)
	if err != nil {
		s.m.log.Warning("layer %q: %v", s.name, err)
		return
	}
	s.loop = newVoice(c, s.m.rate, s.props.Volume, s.props.Pitch, s.props.Pan, true)
}

// Stop silences the loop and every one-shot.
func (s *Source) Stop() {
	s.m.mu.Lock()
	s.loop = nil
	s.shots = nil
	s.m.mu.Unlock()
}

// PlayOneShot plays clip id once.
func (s *Source) PlayOneShot(id string, volume, pitch, pan float64) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed || pitch <= 0 {
		return
	}
	c, err := s.m.clips.Get(id)
	if err != nil {
		s.m.log.Warning("layer %q: %v", s.name, err)
		return
	}
	if len(s.shots) >= MaxVoices {
		s.shots = s.shots[1:]
	}
	s.shots = append(s.shots, newVoice(c, s.m.rate, volume, pitch, pan, false))
}

// SetClip selects the clip the next Play loops.
func (s *Source) SetClip(id string) {
	s.m.mu.Lock()
	s.clip = id
	s.m.mu.Unlock()
}

// SetProperties applies volume, pitch and pan to the loop voice and the
// routing bus to the whole source.
func (s *Source) SetProperties(p ambiance.Properties) {
	s.m.mu.Lock()
	s.props = p
	if s.loop != nil {
		s.loop.set(s.m.rate, p.Volume, p.Pitch, p.Pan)
	}
	s.m.mu.Unlock()
}

// SetMuted silences the source without stopping its voices.
func (s *Source) SetMuted(muted bool) {
	s.m.mu.Lock()
	s.muted = muted
	s.m.mu.Unlock()
}

// Close removes the source from the mix.
func (s *Source) Close() error {
	s.m.mu.Lock()
	s.closed = true
	s.loop = nil
	s.shots = nil
	s.m.remove(s)
	s.m.mu.Unlock()
	return nil
}
