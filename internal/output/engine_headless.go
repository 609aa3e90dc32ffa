//go:build headless

package output

import "sync"

// Engine is the device-less twin used by headless builds. It never opens
// an audio device; the mixer is left to whoever reads it.
type Engine struct {
	mu      sync.Mutex
	m       *Mixer
	started bool
}

func NewEngine(m *Mixer) (*Engine, error) {
	return &Engine{m: m}, nil
}

func (e *Engine) Start() {
	e.mu.Lock()
	e.started = true
	e.mu.Unlock()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	e.started = false
	e.mu.Unlock()
}

func (e *Engine) Close() error {
	e.Stop()
	return nil
}

func (e *Engine) IsStarted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}
