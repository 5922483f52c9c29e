package lookup

import (
	"log/slog"
	"time"

	"github.com/giellatekno/fstq-go/core/engine"
)

// actor owns the engine for its whole lifetime. Its loop goroutine is the
// only thread of control that ever calls eng.Lookup; that single call site,
// not a lock, is what satisfies the engine's no-concurrent-use contract.
type actor struct {
	log     *slog.Logger
	metrics Metrics

	mailbox chan message

	// stopped is closed when the loop has exited. Submissions and pending
	// waits select on it to observe shutdown.
	stopped chan struct{}
}

func (a *actor) loop(eng engine.Engine) {
	defer close(a.stopped)

	for msg := range a.mailbox {
		if msg.stop != nil {
			a.log.Debug("stop signal received, handing engine back")
			msg.stop <- eng
			return
		}

		req := msg.req
		a.metrics.QueueDepth(len(a.mailbox))

		tm := a.metrics.LookupDuration()
		t0 := time.Now()
		results := eng.Lookup(req.query)
		took := time.Since(t0)
		tm.ObserveDuration()

		// Never blocks: the conduit is buffered and single-use.
		req.reply <- reply{results: results, lookupDuration: took}

		if req.ctx.Err() != nil {
			// The caller gave up while we were working. The lookup was
			// performed anyway and its result is dropped; not an error.
			a.metrics.ReplyAbandoned()
			a.log.Debug("reply abandoned by caller",
				slog.String("req", req.id),
				slog.Duration("took", took),
			)
			continue
		}

		a.metrics.RequestDone()
		a.log.Debug("lookup served",
			slog.String("req", req.id),
			slog.Int("results", len(results)),
			slog.Duration("took", took),
		)
	}
}
