package common

import "github.com/warpdl/ambiance/pkg/ambiance"

// VersionResult is returned by system.getVersion.
type VersionResult struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Type    string `json:"type,omitempty"`
}

// StatusResult is returned by ambiance.status, ambiance.play and ambiance.stop.
type StatusResult struct {
	Name    string `json:"name"`
	Playing bool   `json:"playing"`
	Layers  int    `json:"layers"`
}

// LayerListResult is returned by layer.list.
type LayerListResult struct {
	Layers []ambiance.LayerStatus `json:"layers"`
}

// LayerRef selects a layer by index or, when Name is set, by name.
type LayerRef struct {
	Index int    `json:"index,omitempty"`
	Name  string `json:"name,omitempty"`
}

// LayerFlagParams are the parameters of layer.setMute and layer.setSolo.
type LayerFlagParams struct {
	LayerRef
	Value bool `json:"value"`
}

// LayerEditParams are the parameters of layer.edit. Only the fields that
// are set are changed.
type LayerEditParams struct {
	LayerRef
	Mode     string               `json:"mode,omitempty"`
	Volume   *ambiance.Range      `json:"volume,omitempty"`
	Pitch    *ambiance.Range      `json:"pitch,omitempty"`
	Pan      *ambiance.Range      `json:"pan,omitempty"`
	Count    *ambiance.CountRange `json:"count,omitempty"`
	Period   *float64             `json:"period,omitempty"`
	Silence  *float64             `json:"silence,omitempty"`
	NoRepeat *int                 `json:"noRepeat,omitempty"`
	Routing  *string              `json:"routing,omitempty"`
}

// Apply copies the set fields of p onto cfg.
func (p *LayerEditParams) Apply(cfg *ambiance.LayerConfig) error {
	if p.Mode != "" {
		mode, err := ambiance.ParseMode(p.Mode)
		if err != nil {
			return err
		}
		cfg.Mode = mode
	}
	if p.Volume != nil {
		cfg.Volume = *p.Volume
	}
	if p.Pitch != nil {
		cfg.Pitch = *p.Pitch
	}
	if p.Pan != nil {
		cfg.Pan = *p.Pan
	}
	if p.Count != nil {
		cfg.Count = *p.Count
	}
	if p.Period != nil {
		cfg.Period = *p.Period
	}
	if p.Silence != nil {
		cfg.Silence = *p.Silence
	}
	if p.NoRepeat != nil {
		cfg.NoRepeat = *p.NoRepeat
	}
	if p.Routing != nil {
		cfg.Routing = *p.Routing
	}
	return nil
}

// TriggerNotification is the payload of layer.triggered.
type TriggerNotification struct {
	ambiance.Trigger
}

// StateNotification is the payload of ambiance.state.
type StateNotification struct {
	Name   string      `json:"name"`
	Action StateAction `json:"action"`
}
