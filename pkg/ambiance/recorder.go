package ambiance

import "sync"

// Call kinds recorded by Recorder.
const (
	CallPlay          = "play"
	CallStop          = "stop"
	CallPlayOneShot   = "oneshot"
	CallSetClip       = "clip"
	CallSetProperties = "props"
	CallSetMuted      = "muted"
)

// Call is one backend call captured by Recorder.
type Call struct {
	Kind   string
	ID     string
	Volume float64
	Pitch  float64
	Pan    float64
	Props  Properties
	Muted  bool
}

// Recorder is a Backend that records every call instead of producing audio.
// It is used for dry runs and tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	muted bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecorderFactory is a BackendFactory handing out fresh Recorders.
// Every created recorder is also appended to *created when created is not nil.
func RecorderFactory(created *[]*Recorder) BackendFactory {
	return func(int, *LayerConfig) (Backend, error) {
		r := NewRecorder()
		if created != nil {
			*created = append(*created, r)
		}
		return r, nil
	}
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *Recorder) Play() { r.record(Call{Kind: CallPlay}) }

func (r *Recorder) Stop() { r.record(Call{Kind: CallStop}) }

func (r *Recorder) PlayOneShot(id string, volume, pitch, pan float64) {
	r.record(Call{Kind: CallPlayOneShot, ID: id, Volume: volume, Pitch: pitch, Pan: pan})
}

func (r *Recorder) SetClip(id string) { r.record(Call{Kind: CallSetClip, ID: id}) }

func (r *Recorder) SetProperties(p Properties) {
	r.record(Call{Kind: CallSetProperties, Props: p})
}

func (r *Recorder) SetMuted(muted bool) {
	r.mu.Lock()
	r.muted = muted
	r.calls = append(r.calls, Call{Kind: CallSetMuted, Muted: muted})
	r.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsOf returns the recorded calls of the given kind.
func (r *Recorder) CallsOf(kind string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Muted reports the last muted state set on the recorder.
func (r *Recorder) Muted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.muted
}

// Reset drops every recorded call.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

var _ Backend = (*Recorder)(nil)
