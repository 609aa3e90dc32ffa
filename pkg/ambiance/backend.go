package ambiance

// Properties are the continuous playback settings of a backend source.
type Properties struct {
	Volume  float64
	Pitch   float64
	Pan     float64
	Routing string
}

// Backend is the audio output a layer plays through. Implementations own
// decoding, mixing and the device; the layer only issues calls.
type Backend interface {
	// Play starts the current clip.
	Play()
	// Stop silences everything the backend is playing.
	Stop()
	// PlayOneShot plays clip id once, on top of whatever is already playing.
	PlayOneShot(id string, volume, pitch, pan float64)
	// SetClip selects the clip Play starts.
	SetClip(id string)
	// SetProperties applies volume, pitch, pan and routing.
	SetProperties(p Properties)
	// SetMuted mutes or unmutes the backend without stopping it.
	SetMuted(muted bool)
}

// BackendFactory creates the backend of one layer.
type BackendFactory func(index int, cfg *LayerConfig) (Backend, error)
