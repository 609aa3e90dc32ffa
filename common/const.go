package common

// JSON-RPC method names served on /jsonrpc.
const (
	MethodGetVersion     = "system.getVersion"
	MethodAmbiancePlay   = "ambiance.play"
	MethodAmbianceStop   = "ambiance.stop"
	MethodAmbianceStatus = "ambiance.status"
	MethodLayerList      = "layer.list"
	MethodLayerSetMute   = "layer.setMute"
	MethodLayerSetSolo   = "layer.setSolo"
	MethodLayerEdit      = "layer.edit"
)

// Notification methods pushed to WebSocket clients.
const (
	NotifyLayerTriggered = "layer.triggered"
	NotifyAmbianceState  = "ambiance.state"
)

// StateAction is the value of an ambiance.state notification.
type StateAction string

const (
	StatePlaying StateAction = "playing"
	StateStopped StateAction = "stopped"
)
