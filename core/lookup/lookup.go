package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/giellatekno/fstq-go/core/engine"
)

// ErrChannelClosed is returned for any submission or pending wait that
// targets an actor that has stopped (or stopped mid-flight). It is safe to
// retry against a freshly started actor.
var ErrChannelClosed = errors.New("lookup: channel to actor is closed")

// Options configures Start.
type Options struct {
	// QueueSize is the mailbox capacity. Required, must be at least 1.
	QueueSize int

	// Logger for diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives instrumentation callbacks. Defaults to NopMetrics().
	Metrics Metrics
}

// Client is the caller-facing handle to a running actor. It holds no engine
// state, only the submission side of the mailbox; copy it or share the
// pointer freely across goroutines. Dropping every Client does not stop the
// actor; only [Client.Stop] does.
type Client struct {
	a *actor
}

// Start takes exclusive ownership of eng and runs an actor goroutine for it.
// From here on the actor is the only goroutine allowed to call eng.Lookup;
// ownership comes back via [Client.Stop].
func Start(eng engine.Engine, opts Options) (*Client, error) {
	if eng == nil {
		return nil, errors.New("lookup: engine must not be nil")
	}
	if opts.QueueSize < 1 {
		return nil, fmt.Errorf("lookup: queue size must be at least 1, got %d", opts.QueueSize)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}

	a := &actor{
		log:     opts.Logger,
		metrics: opts.Metrics,
		mailbox: make(chan message, opts.QueueSize),
		stopped: make(chan struct{}),
	}
	go a.loop(eng)

	return &Client{a: a}, nil
}

// Lookup submits query to the actor and waits for the reply.
//
// If the mailbox is full the submission blocks until a slot frees up; that
// wait respects ctx and is reported as Results.EntryWait. After enqueueing,
// the call suspends until the actor delivers the reply. Cancelling ctx while
// waiting abandons the reply: the lookup is still performed (the engine
// offers no interruption) and its result is discarded.
//
// Returns ErrChannelClosed when the actor has stopped, whether before
// submission or while the request was in flight.
func (c *Client) Lookup(ctx context.Context, query string) (*Results, error) {
	a := c.a
	start := time.Now()

	select {
	case <-a.stopped:
		return nil, ErrChannelClosed
	default:
	}

	req := &request{
		id:    gonanoid.Must(8),
		query: query,
		ctx:   ctx,
		reply: make(chan reply, 1),
	}

	var entryWait time.Duration
	msg := message{req: req}
	select {
	case a.mailbox <- msg:
	default:
		// Mailbox full: wait for a slot, and time the wait.
		t0 := time.Now()
		select {
		case a.mailbox <- msg:
			entryWait = time.Since(t0)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-a.stopped:
			return nil, ErrChannelClosed
		}
	}
	a.metrics.QueueDepth(len(a.mailbox))
	a.metrics.EntryWait(entryWait)

	enqueued := time.Now()
	var rep reply
	select {
	case rep = <-req.reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.stopped:
		// The reply may have been delivered just before shutdown; the
		// conduit is buffered, so check it once more.
		select {
		case rep = <-req.reply:
		default:
			return nil, ErrChannelClosed
		}
	}
	roundTrip := time.Since(enqueued)

	// Derived, not stamped at dequeue. Scheduling jitter between the
	// enqueue timestamp and the actor's compute-start stamp can push the
	// difference slightly negative.
	queueWait := roundTrip - rep.lookupDuration
	if queueWait < 0 {
		queueWait = 0
	}
	a.metrics.QueueWait(queueWait)

	return &Results{
		Results:        rep.results,
		EntryWait:      entryWait,
		QueueWait:      queueWait,
		LookupDuration: rep.lookupDuration,
		TotalDuration:  time.Since(start),
	}, nil
}

// Stop shuts the actor down and returns the engine passed to Start.
//
// The stop signal goes through the mailbox, so requests already queued are
// served before the actor exits; requests submitted after the signal is
// processed fail with ErrChannelClosed. ctx bounds only the submission of
// the signal — once accepted, Stop waits for the drain to finish, since
// abandoning that wait would leak the engine.
//
// When several Stop calls race, exactly one receives the engine; the others
// get ErrChannelClosed.
func (c *Client) Stop(ctx context.Context) (engine.Engine, error) {
	a := c.a

	handover := make(chan engine.Engine, 1)
	select {
	case a.mailbox <- message{stop: handover}:
	case <-a.stopped:
		return nil, ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case eng := <-handover:
		return eng, nil
	case <-a.stopped:
		// Another stop signal won the race, or ours was handled right at
		// shutdown; the handover channel is buffered, so check it.
		select {
		case eng := <-handover:
			return eng, nil
		default:
			return nil, ErrChannelClosed
		}
	}
}
