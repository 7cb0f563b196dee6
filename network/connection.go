package network

import (
	"context"
	"net/http"
	"time"

	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/ybbus/jsonrpc/v3"
)

type (
	// Connection is a handle to one remote agent. SendMessage returns the raw
	// JSON-RPC envelope; interpreting it is left to the caller.
	Connection interface {
		Card() *entity.AgentCard
		SendMessage(ctx context.Context, params *entity.MessageSendParams) (*jsonrpc.RPCResponse, error)
	}

	RemoteConnection struct {
		card    *entity.AgentCard
		addr    string
		timeout time.Duration
		client  jsonrpc.RPCClient
	}
)

var _ Connection = (*RemoteConnection)(nil)

func NewRemoteConnection(card *entity.AgentCard, addr string, httpClient *http.Client, timeout time.Duration) *RemoteConnection {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := jsonrpc.NewClientWithOpts(addr, &jsonrpc.RPCClientOpts{
		HTTPClient:         httpClient,
		AllowUnknownFields: true,
	})
	return &RemoteConnection{
		card:    card,
		addr:    addr,
		timeout: timeout,
		client:  client,
	}
}

func (c *RemoteConnection) Card() *entity.AgentCard {
	return c.card
}

func (c *RemoteConnection) Addr() string {
	return c.addr
}

// SendMessage performs one `message/send` round trip. When the agent answers
// with an HTTP error status but a JSON-RPC body, both the envelope and a
// *jsonrpc.HTTPError are returned.
func (c *RemoteConnection) SendMessage(ctx context.Context, params *entity.MessageSendParams) (*jsonrpc.RPCResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Call(ctx, entity.MethodSendMessage, params)
	if err != nil {
		return resp, errors.Wrapf(err, "failed to send message to %s", c.card.Name)
	}

	return resp, nil
}
