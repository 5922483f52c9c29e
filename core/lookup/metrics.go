package lookup

import (
	"time"

	"github.com/giellatekno/fstq-go/core/metrics"
)

// Metrics is the instrumentation hook for the lookup actor. All methods must
// be safe for concurrent use; they are called from both the actor goroutine
// and submitting callers.
type Metrics interface {
	// QueueDepth reports the mailbox depth after an enqueue or dequeue.
	QueueDepth(depth int)
	// EntryWait records how long a submission was blocked on a full
	// mailbox (zero when it entered immediately).
	EntryWait(d time.Duration)
	// QueueWait records the derived in-queue wait of a served request.
	QueueWait(d time.Duration)
	// LookupDuration times one engine call.
	LookupDuration() metrics.Timer
	// RequestDone counts a request whose reply was received by its caller.
	RequestDone()
	// ReplyAbandoned counts a delivery whose caller had already given up.
	ReplyAbandoned()
}

type nopMetrics struct{}

func (nopMetrics) QueueDepth(int)                {}
func (nopMetrics) EntryWait(time.Duration)       {}
func (nopMetrics) QueueWait(time.Duration)       {}
func (nopMetrics) LookupDuration() metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) RequestDone()                  {}
func (nopMetrics) ReplyAbandoned()               {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
