package server

import (
	"errors"

	"github.com/creachadair/jrpc2"

	"github.com/warpdl/ambiance/pkg/ambiance"
)

// Custom JSON-RPC error codes for ambiance operations.
const (
	codeLayerNotFound = jrpc2.Code(-32001)
	codeHostClosed    = jrpc2.Code(-32002)
	codeInvalidParams = jrpc2.Code(-32602)
)

var errLayerNotFound = &jrpc2.Error{Code: codeLayerNotFound, Message: "layer not found"}

// rpcError maps a host error onto a JSON-RPC error.
func rpcError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ambiance.ErrLayerIndex):
		return &jrpc2.Error{Code: codeLayerNotFound, Message: err.Error()}
	case errors.Is(err, ambiance.ErrHostClosed):
		return &jrpc2.Error{Code: codeHostClosed, Message: err.Error()}
	default:
		return &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
}
