// Package nats exposes a lookup actor over NATS request/reply and provides
// the matching remote client.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	natsgo "github.com/nats-io/nats.go"

	"github.com/giellatekno/fstq-go/core/lookup"
	"github.com/giellatekno/fstq-go/internal/codec"
)

var ErrServerClosed = errors.New("nats: server is closed")

// LookupClient is what the server serves. Both *lookup.Client and
// *lookup.CachedClient satisfy it.
type LookupClient interface {
	Lookup(ctx context.Context, query string) (*lookup.Results, error)
}

type ServerConfig struct {
	Connect       Connector     // Connect creates the NATS connection. If nil, ConnectDefault() is used.
	Log           *slog.Logger  // Log for diagnostics (optional)
	SubjectPrefix string        // SubjectPrefix for subjects, e.g. "fstq" -> fstq.lookup
	QueueGroup    string        // QueueGroup balances requests across servers (optional)
	Client        LookupClient  // Client handles the lookups
	Timeout       time.Duration // Timeout bounds each served lookup. Defaults to 30s.
}

// Server subscribes to <prefix>.lookup and answers requests through the
// configured lookup client.
type Server struct {
	id      string
	nc      *natsgo.Conn
	closeNc closeFunc
	log     *slog.Logger
	codec   codec.Codec
	client  LookupClient
	sub     *natsgo.Subscription
	timeout time.Duration

	closed atomic.Bool
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("nats: server requires a lookup client")
	}

	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "fstq"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, err
	}

	id := gonanoid.Must()
	s := &Server{
		id:      id,
		nc:      nc,
		closeNc: closeNc,
		log:     log.With(slog.String("server_id", id)),
		codec:   codec.JSONCodec{},
		client:  cfg.Client,
		timeout: timeout,
	}

	subj := prefix + ".lookup"
	group := cfg.QueueGroup
	if group == "" {
		group = prefix
	}
	sub, err := nc.QueueSubscribe(subj, group, func(msg *natsgo.Msg) {
		go s.handle(msg)
	})
	if err != nil {
		closeNc()
		return nil, fmt.Errorf("nats: subscribe %s: %w", subj, err)
	}
	s.sub = sub

	s.log.Info("lookup server listening", slog.String("subject", subj), slog.String("queue_group", group))
	return s, nil
}

func (s *Server) handle(msg *natsgo.Msg) {
	if s.closed.Load() || msg.Reply == "" {
		return
	}

	var req lookupRequest
	if err := s.codec.Unmarshal(msg.Data, &req); err != nil {
		s.log.Error("failed to decode request", slog.Any("error", err))
		s.respond(msg, lookupResponse{Err: "bad request: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.client.Lookup(ctx, req.Query)
	if err != nil {
		s.respond(msg, lookupResponse{Err: err.Error()})
		return
	}
	s.respond(msg, responseFrom(res))
}

func (s *Server) respond(msg *natsgo.Msg, resp lookupResponse) {
	b, err := s.codec.Marshal(resp)
	if err != nil {
		s.log.Error("failed to encode response", slog.Any("error", err))
		return
	}
	if err := msg.Respond(b); err != nil {
		s.log.Error("failed to publish reply", slog.Any("error", err))
	}
}

// Close unsubscribes and releases the connection. It does not stop the
// lookup client; the owner of the actor does that.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return ErrServerClosed
	}
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.nc != nil {
		_ = s.nc.Drain()
		s.closeNc()
	}
	return nil
}
