//go:build !headless

package output

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// bufferBytes is about 50ms of float32 stereo at 44.1kHz.
const bufferBytes = 2205 * 4 * Channels

// Engine streams a Mixer to the default audio device.
type Engine struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

// NewEngine opens the audio device at the mixer rate. Only one engine may
// exist per process.
func NewEngine(m *Mixer) (*Engine, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   m.SampleRate(),
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	player := ctx.NewPlayer(m)
	player.SetBufferSize(bufferBytes)
	return &Engine{ctx: ctx, player: player}, nil
}

// Start begins streaming.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started && e.player != nil {
		e.player.Play()
		e.started = true
	}
}

// Stop pauses streaming; voices keep their position.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started && e.player != nil {
		e.player.Pause()
		e.started = false
	}
}

// Close releases the device player.
func (e *Engine) Close() error {
	e.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return nil
	}
	err := e.player.Close()
	e.player = nil
	return err
}

// IsStarted reports whether the engine is streaming.
func (e *Engine) IsStarted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}
