package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cws "github.com/coder/websocket"

	"github.com/warpdl/ambiance/common"
	"github.com/warpdl/ambiance/pkg/ambiance"
)

// newTestWSServer starts an httptest server in front of a Server for a
// fresh test host and returns the WebSocket URL, the secret and the server.
func newTestWSServer(t *testing.T) (string, string, *Server, *ambiance.Host) {
	t.Helper()
	secret := "ws-test-secret"
	h, _ := newTestHost(t)
	s := NewServer(&RPCConfig{Secret: secret, Version: "1.0.0"}, h, nil)
	srv := httptest.NewServer(s.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	go s.Notifier().Run(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Close()
		s.rpc.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/jsonrpc/ws", secret, s, h
}

func dialWS(t *testing.T, ctx context.Context, wsURL, secret string) *cws.Conn {
	t.Helper()
	conn, _, err := cws.Dial(ctx, wsURL, &cws.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + secret},
		},
	})
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	return conn
}

func wsCall(t *testing.T, ctx context.Context, conn *cws.Conn, id int, method string) {
	t.Helper()
	data, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      id,
	})
	if err := conn.Write(ctx, cws.MessageText, data); err != nil {
		t.Fatalf("WebSocket write failed: %v", err)
	}
}

func wsRead(t *testing.T, ctx context.Context, conn *cws.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("WebSocket read failed: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, n *RPCNotifier, want int) {
	t.Helper()
	for range 100 {
		if n.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d registered servers, got %d", want, n.Count())
}

func TestWebSocketEndpoint_AuthRequired(t *testing.T) {
	wsURL, _, _, _ := newTestWSServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, header := range []http.Header{nil, {"Authorization": []string{"Bearer wrong-token"}}} {
		_, resp, err := cws.Dial(ctx, wsURL, &cws.DialOptions{HTTPHeader: header})
		if err == nil {
			t.Fatal("expected error for unauthorized WebSocket connection")
		}
		if resp != nil && resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	}
}

func TestWebSocketEndpoint_MultipleRequests(t *testing.T) {
	wsURL, secret, _, _ := newTestWSServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, wsURL, secret)
	defer conn.Close(cws.StatusNormalClosure, "")

	methods := []string{common.MethodGetVersion, common.MethodAmbianceStatus, common.MethodLayerList}
	for i, method := range methods {
		wsCall(t, ctx, conn, i+1, method)
		resp := wsRead(t, ctx, conn)
		if int(resp["id"].(float64)) != i+1 {
			t.Fatalf("expected id %d, got %v", i+1, resp["id"])
		}
		if resp["result"] == nil {
			t.Fatalf("%s: expected result, got error: %v", method, resp["error"])
		}
	}
}

func TestWebSocketEndpoint_NotifierRegistration(t *testing.T) {
	wsURL, secret, s, _ := newTestWSServer(t)
	n := s.Notifier()
	if n.Count() != 0 {
		t.Fatalf("expected 0 registered servers before connection, got %d", n.Count())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, wsURL, secret)
	waitForClients(t, n, 1)

	conn.Close(cws.StatusNormalClosure, "")
	waitForClients(t, n, 0)
}

func TestWebSocketEndpoint_StatePush(t *testing.T) {
	wsURL, secret, s, h := newTestWSServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, wsURL, secret)
	defer conn.Close(cws.StatusNormalClosure, "")
	waitForClients(t, s.Notifier(), 1)

	wsCall(t, ctx, conn, 1, common.MethodAmbiancePlay)

	// The reply and the push race each other.
	var gotReply, gotPush bool
	for range 2 {
		msg := wsRead(t, ctx, conn)
		switch {
		case msg["method"] == common.NotifyAmbianceState:
			params := msg["params"].(map[string]any)
			if params["action"] != string(common.StatePlaying) || params["name"] != "forest" {
				t.Errorf("unexpected state push: %v", params)
			}
			gotPush = true
		case msg["id"] != nil:
			gotReply = true
		}
	}
	if !gotReply || !gotPush {
		t.Fatalf("expected reply and push, got reply=%t push=%t", gotReply, gotPush)
	}
	if !h.IsPlaying() {
		t.Fatal("expected host to be playing")
	}
}
