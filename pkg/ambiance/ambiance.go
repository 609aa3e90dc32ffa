// Package ambiance schedules layered, randomized sound ambiances.
//
// An Ambiance is a list of layers. Each layer is driven by a LayerPlayer
// that either loops one sound or plans, every period, a random batch of
// non-overlapping one-shots drawn from a RandomPool. Players never touch
// audio themselves: they issue calls to a Backend. A Host owns the players
// of a whole ambiance and applies mute and solo across layers.
package ambiance

import "fmt"

// Ambiance is a named set of layers played together.
type Ambiance struct {
	Name   string        `json:"name"`
	Layers []LayerConfig `json:"layers"`
}

// AddLayer appends cfg and returns its index.
func (a *Ambiance) AddLayer(cfg LayerConfig) int {
	a.Layers = append(a.Layers, cfg)
	return len(a.Layers) - 1
}

// RemoveLayer removes the layer at index i.
func (a *Ambiance) RemoveLayer(i int) error {
	if i < 0 || i >= len(a.Layers) {
		return fmt.Errorf("remove layer %d: %w", i, ErrLayerIndex)
	}
	a.Layers = append(a.Layers[:i], a.Layers[i+1:]...)
	return nil
}

// SwapLayers exchanges the layers at indices i and j.
func (a *Ambiance) SwapLayers(i, j int) error {
	if i < 0 || i >= len(a.Layers) || j < 0 || j >= len(a.Layers) {
		return fmt.Errorf("swap layers %d and %d: %w", i, j, ErrLayerIndex)
	}
	a.Layers[i], a.Layers[j] = a.Layers[j], a.Layers[i]
	return nil
}

// Validate clamps the properties of every layer.
func (a *Ambiance) Validate() {
	for i := range a.Layers {
		a.Layers[i].Validate()
	}
}

// Clone returns a deep copy of the ambiance.
func (a *Ambiance) Clone() *Ambiance {
	c := &Ambiance{Name: a.Name, Layers: make([]LayerConfig, len(a.Layers))}
	for i, l := range a.Layers {
		c.Layers[i] = l.Clone()
	}
	return c
}
