package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creachadair/jrpc2"

	"github.com/warpdl/ambiance/pkg/logger"
)

const (
	// notifyQueueSize bounds the notifications waiting for Run.
	notifyQueueSize = 256

	// DefaultPushTimeout bounds the delivery of one notification to one client.
	DefaultPushTimeout = 5 * time.Second
)

type notification struct {
	method string
	params any
}

// RPCNotifier maintains a set of connected jrpc2 WebSocket servers
// and broadcasts push notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
	queue   chan notification
	dropped atomic.Uint64

	// pushTimeout bounds a single Notify call. A client that does not
	// accept a push in time is unregistered.
	pushTimeout time.Duration
}

// NewRPCNotifier creates a new notifier. A nil logger discards messages.
func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     l,
		queue:   make(chan notification, notifyQueueSize),

		pushTimeout: DefaultPushTimeout,
	}
}

// Register adds a server to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to all registered servers.
// Servers that fail or stall past the push timeout are unregistered.
func (n *RPCNotifier) Broadcast(method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := n.notify(srv, method, params); err != nil {
			n.log.Warning("RPC push failed: %v", err)
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// notify delivers one push. A stalled Send keeps its goroutine until the
// connection fails; the caller is released after pushTimeout.
func (n *RPCNotifier) notify(srv *jrpc2.Server, method string, params any) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.pushTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- srv.Notify(ctx, method, params)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish queues a notification for Run without blocking. The
// notification is dropped when the queue is full or nobody listens.
func (n *RPCNotifier) Publish(method string, params any) {
	if n.Count() == 0 {
		return
	}
	select {
	case n.queue <- notification{method: method, params: params}:
	default:
		if n.dropped.Add(1) == 1 {
			n.log.Warning("RPC push queue full, dropping notifications")
		}
	}
}

// Dropped returns how many notifications Publish discarded.
func (n *RPCNotifier) Dropped() uint64 {
	return n.dropped.Load()
}

// Run broadcasts queued notifications until ctx is done.
func (n *RPCNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			n.Broadcast(msg.method, msg.params)
		}
	}
}

// Count returns the number of registered servers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}
