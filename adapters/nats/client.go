package nats

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	natsgo "github.com/nats-io/nats.go"

	"github.com/giellatekno/fstq-go/core/lookup"
	"github.com/giellatekno/fstq-go/internal/codec"
)

// RemoteClient performs lookups against a Server over NATS request/reply.
// It satisfies the same LookupClient interface the server serves, so callers
// can swap a local actor for a remote one.
type RemoteClient struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	codec   codec.Codec
	subject string

	closed atomic.Bool
}

type ClientConfig struct {
	Connect       Connector // Connect creates the NATS connection. If nil, ConnectDefault() is used.
	SubjectPrefix string    // SubjectPrefix must match the server's, defaults to "fstq".
}

func NewClient(cfg ClientConfig) (*RemoteClient, error) {
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "fstq"
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, err
	}

	return &RemoteClient{
		nc:      nc,
		closeNc: closeNc,
		codec:   codec.JSONCodec{},
		subject: prefix + ".lookup",
	}, nil
}

func (c *RemoteClient) Lookup(ctx context.Context, query string) (*lookup.Results, error) {
	if c.closed.Load() {
		return nil, ErrServerClosed
	}

	payload, err := c.codec.Marshal(lookupRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("nats: encode request: %w", err)
	}

	msg, err := c.nc.RequestWithContext(ctx, c.subject, payload)
	if err != nil {
		return nil, fmt.Errorf("nats: request: %w", err)
	}

	var resp lookupResponse
	if err := c.codec.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("nats: decode response: %w", err)
	}
	if resp.Err != "" {
		return nil, errors.New(resp.Err)
	}
	return resp.toResults(), nil
}

func (c *RemoteClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.closeNc()
	return nil
}

var _ LookupClient = (*RemoteClient)(nil)
