package nats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/giellatekno/fstq-go/core/engine"
	"github.com/giellatekno/fstq-go/core/lookup"
)

func TestServer_roundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	connect := ReuseConnection(NewTestContainer(t))

	stub := &engine.Stub{
		Delay: time.Millisecond,
		Fn: func(query string) []engine.Result {
			return []engine.Result{{Output: query + "+N+Sg+Nom", Weight: 1}}
		},
	}
	c, err := lookup.Start(stub, lookup.Options{QueueSize: 8})
	require.NoError(t, err)

	srv, err := NewServer(ServerConfig{Connect: connect, Client: c})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	rc, err := NewClient(ClientConfig{Connect: connect})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	res, err := rc.Lookup(t.Context(), "guolli")
	require.NoError(t, err)
	require.Equal(t, []engine.Result{{Output: "guolli+N+Sg+Nom", Weight: 1}}, res.Results)
	require.Positive(t, res.LookupDuration)
	require.Positive(t, res.TotalDuration)

	// Server errors travel back to the caller.
	_, err = c.Stop(t.Context())
	require.NoError(t, err)
	_, err = rc.Lookup(t.Context(), "guolli")
	require.Error(t, err)
	require.Contains(t, err.Error(), lookup.ErrChannelClosed.Error())
}

func TestServer_concurrentClients(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	connect := ReuseConnection(NewTestContainer(t))

	stub := &engine.Stub{Delay: time.Millisecond}
	c, err := lookup.Start(stub, lookup.Options{QueueSize: 16})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = c.Stop(t.Context()) })

	srv, err := NewServer(ServerConfig{Connect: connect, Client: c})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	rc, err := NewClient(ClientConfig{Connect: connect})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	errCh := make(chan error, 20)
	for range 20 {
		go func() {
			_, err := rc.Lookup(t.Context(), "mannat")
			errCh <- err
		}()
	}
	for range 20 {
		require.NoError(t, <-errCh)
	}
	require.Equal(t, 20, stub.CallCount())
}

func TestNewServer_requiresClient(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	require.Error(t, err)
}
