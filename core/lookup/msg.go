package lookup

import (
	"context"
	"time"

	"github.com/giellatekno/fstq-go/core/engine"
)

// Results is the outcome of one [Client.Lookup] call, together with the
// timing breakdown of where the request spent its time.
type Results struct {
	// Results in the engine's own order.
	Results []engine.Result

	// EntryWait is how long the submission was blocked because the mailbox
	// was full. Zero when the request entered the queue immediately.
	EntryWait time.Duration

	// QueueWait is how long the request sat in the mailbox before the actor
	// began processing it. Derived as round trip minus LookupDuration, not
	// measured at dequeue, so it absorbs a little scheduling jitter.
	QueueWait time.Duration

	// LookupDuration is the engine call itself, measured by the actor.
	LookupDuration time.Duration

	// TotalDuration is the full elapsed time of the Lookup call.
	TotalDuration time.Duration

	// Cached is set by [CachedClient] when the results were served from
	// cache without touching the actor.
	Cached bool
}

// request is one pending query. Each request owns exactly one reply conduit,
// fulfilled exactly once by the actor.
type request struct {
	id    string
	query string

	// ctx is the submitting caller's context. The actor consults it only
	// after delivery, to spot callers that gave up waiting.
	ctx context.Context

	// reply has capacity 1 so delivery never blocks the actor, even when
	// the caller has abandoned the wait.
	reply chan reply
}

// reply is what the actor sends back for one request.
type reply struct {
	results        []engine.Result
	lookupDuration time.Duration
}

// message is a mailbox slot: either a request or the stop signal. The stop
// signal travels through the same FIFO mailbox so that everything queued
// ahead of it drains first; the engine is handed over on the stop channel.
type message struct {
	req  *request
	stop chan engine.Engine
}
