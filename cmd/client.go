package cmd

import (
	"context"
	"net/http"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
)

// rpcClient calls the control endpoint of a running player.
type rpcClient struct {
	cli *jrpc2.Client
}

func newRPCClient(url, secret string) *rpcClient {
	hc := &http.Client{
		Timeout:   DEF_TIMEOUT,
		Transport: &bearerTransport{token: secret, base: http.DefaultTransport},
	}
	ch := jhttp.NewChannel(url, &jhttp.ChannelOptions{Client: hc})
	return &rpcClient{cli: jrpc2.NewClient(ch, nil)}
}

func (c *rpcClient) Call(ctx context.Context, method string, params, result any) error {
	return c.cli.CallResult(ctx, method, params, result)
}

func (c *rpcClient) Close() error {
	return c.cli.Close()
}

// bearerTransport adds the control token to every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(r)
}
