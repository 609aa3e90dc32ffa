package ambiance

import "errors"

var (
	ErrEmptyPool   = errors.New("random pool needs at least one value")
	ErrNoSounds    = errors.New("layer has no sounds to play")
	ErrNilBackend  = errors.New("layer player needs a playback backend")
	ErrUnknownMode = errors.New("unknown layer playback mode")

	ErrLayerIndex = errors.New("layer index is out of range")
	ErrSoundIndex = errors.New("sound index is out of range")
)
