package server

import (
	"context"

	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/warpdl/ambiance/common"
	"github.com/warpdl/ambiance/pkg/ambiance"
	"github.com/warpdl/ambiance/pkg/logger"
)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // Auth token (required, empty means every call is rejected)
	ListenAll bool   // If true, bind to 0.0.0.0 instead of 127.0.0.1
	Port      int    // TCP port, 0 picks a free one
	Version   string
	Commit    string
	BuildType string
}

// RPCServer serves the ambiance control methods over the JSON-RPC 2.0
// HTTP bridge and over WebSocket sessions.
type RPCServer struct {
	bridge    jhttp.Bridge
	methods   handler.Map
	notifier  *RPCNotifier
	host      *ambiance.Host
	log       logger.Logger
	secret    string
	version   string
	commit    string
	buildType string
}

// NewRPCServer creates the method handlers for h and hooks the host
// trigger and state callbacks to the WebSocket notifier.
func NewRPCServer(cfg *RPCConfig, h *ambiance.Host, l logger.Logger) *RPCServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	rs := &RPCServer{
		notifier:  NewRPCNotifier(l),
		host:      h,
		log:       l,
		secret:    cfg.Secret,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
	}

	rs.methods = handler.Map{
		common.MethodGetVersion:     handler.New(rs.systemGetVersion),
		common.MethodAmbiancePlay:   handler.New(rs.ambiancePlay),
		common.MethodAmbianceStop:   handler.New(rs.ambianceStop),
		common.MethodAmbianceStatus: handler.New(rs.ambianceStatus),
		common.MethodLayerList:      handler.New(rs.layerList),
		common.MethodLayerSetMute:   handler.New(rs.layerSetMute),
		common.MethodLayerSetSolo:   handler.New(rs.layerSetSolo),
		common.MethodLayerEdit:      handler.New(rs.layerEdit),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)

	h.OnTrigger(func(tr ambiance.Trigger) {
		rs.notifier.Publish(common.NotifyLayerTriggered, &common.TriggerNotification{Trigger: tr})
	})
	h.OnState(func(playing bool) {
		action := common.StateStopped
		if playing {
			action = common.StatePlaying
		}
		rs.notifier.Publish(common.NotifyAmbianceState, &common.StateNotification{
			Name:   h.Name(),
			Action: action,
		})
	})
	return rs
}

// Notifier returns the WebSocket push notifier.
func (rs *RPCServer) Notifier() *RPCNotifier {
	return rs.notifier
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResult, error) {
	return &common.VersionResult{
		Version: rs.version,
		Commit:  rs.commit,
		Type:    rs.buildType,
	}, nil
}

func (rs *RPCServer) ambiancePlay(_ context.Context) (*common.StatusResult, error) {
	if err := rs.host.Play(); err != nil {
		return nil, rpcError(err)
	}
	return rs.status(), nil
}

func (rs *RPCServer) ambianceStop(_ context.Context) (*common.StatusResult, error) {
	if err := rs.host.Stop(); err != nil {
		return nil, rpcError(err)
	}
	return rs.status(), nil
}

func (rs *RPCServer) ambianceStatus(_ context.Context) (*common.StatusResult, error) {
	return rs.status(), nil
}

func (rs *RPCServer) status() *common.StatusResult {
	return &common.StatusResult{
		Name:    rs.host.Name(),
		Playing: rs.host.IsPlaying(),
		Layers:  rs.host.Len(),
	}
}

func (rs *RPCServer) layerList(_ context.Context) (*common.LayerListResult, error) {
	return &common.LayerListResult{Layers: rs.host.Status()}, nil
}

func (rs *RPCServer) layerSetMute(_ context.Context, p *common.LayerFlagParams) (*ambiance.LayerStatus, error) {
	i, err := rs.resolve(p.LayerRef)
	if err != nil {
		return nil, err
	}
	if err := rs.host.SetMute(i, p.Value); err != nil {
		return nil, rpcError(err)
	}
	return rs.layerStatus(i)
}

func (rs *RPCServer) layerSetSolo(_ context.Context, p *common.LayerFlagParams) (*ambiance.LayerStatus, error) {
	i, err := rs.resolve(p.LayerRef)
	if err != nil {
		return nil, err
	}
	if err := rs.host.SetSolo(i, p.Value); err != nil {
		return nil, rpcError(err)
	}
	return rs.layerStatus(i)
}

// layerEdit applies a partial layer edit. The edit is rejected as a whole
// when it fails or the resulting layer is invalid.
func (rs *RPCServer) layerEdit(_ context.Context, p *common.LayerEditParams) (*ambiance.LayerStatus, error) {
	i, err := rs.resolve(p.LayerRef)
	if err != nil {
		return nil, err
	}
	if err := rs.host.EditLayer(i, p.Apply); err != nil {
		return nil, rpcError(err)
	}
	return rs.layerStatus(i)
}

// resolve turns a layer reference into an index. A name wins over an index.
func (rs *RPCServer) resolve(ref common.LayerRef) (int, error) {
	if ref.Name == "" {
		return ref.Index, nil
	}
	i := rs.host.Find(ref.Name)
	if i < 0 {
		return 0, errLayerNotFound
	}
	return i, nil
}

func (rs *RPCServer) layerStatus(i int) (*ambiance.LayerStatus, error) {
	layers := rs.host.Status()
	if i < 0 || i >= len(layers) {
		return nil, errLayerNotFound
	}
	return &layers[i], nil
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
