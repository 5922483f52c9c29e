package lookup

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/giellatekno/fstq-go/core/engine"
	"github.com/giellatekno/fstq-go/core/metrics"
)

// recordingMetrics counts instrumentation events; used to observe mailbox
// depth and abandoned replies from outside the actor.
type recordingMetrics struct {
	mu        sync.Mutex
	maxDepth  int
	enqueues  int
	abandoned int
	done      int
}

func (m *recordingMetrics) QueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueues++
	if depth > m.maxDepth {
		m.maxDepth = depth
	}
}

func (m *recordingMetrics) EntryWait(time.Duration)       {}
func (m *recordingMetrics) QueueWait(time.Duration)       {}
func (m *recordingMetrics) LookupDuration() metrics.Timer { return metrics.NopTimer() }

func (m *recordingMetrics) RequestDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done++
}

func (m *recordingMetrics) ReplyAbandoned() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandoned++
}

func (m *recordingMetrics) snapshot() (maxDepth, enqueues, abandoned, done int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxDepth, m.enqueues, m.abandoned, m.done
}

var _ Metrics = (*recordingMetrics)(nil)

func TestStart_validation(t *testing.T) {
	_, err := Start(nil, Options{QueueSize: 1})
	require.ErrorContains(t, err, "engine must not be nil")

	for _, size := range []int{0, -1} {
		_, err := Start(&engine.Stub{}, Options{QueueSize: size})
		require.ErrorContains(t, err, "queue size must be at least 1")
	}
}

func TestLookup_single(t *testing.T) {
	stub := &engine.Stub{Delay: time.Millisecond}
	c, err := Start(stub, Options{QueueSize: 4})
	require.NoError(t, err)

	res, err := c.Lookup(t.Context(), "viessu")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Equal(t, "viessu#1", res.Results[0].Output)
	require.Equal(t, float32(1.0), res.Results[0].Weight)
	require.Zero(t, res.EntryWait)
	require.Greater(t, res.LookupDuration, time.Duration(0))
	require.GreaterOrEqual(t, res.TotalDuration, res.LookupDuration)

	_, err = c.Stop(t.Context())
	require.NoError(t, err)
}

// Requests are served in the order they entered the mailbox. The actor is
// plugged on a gated query while requests are enqueued one by one, so the
// enqueue order is known exactly.
func TestLookup_fifoOrder(t *testing.T) {
	gate := make(chan struct{})
	stub := &engine.Stub{Gate: gate}
	rec := &recordingMetrics{}
	c, err := Start(stub, Options{QueueSize: 16, Metrics: rec})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errCh := make(chan error, 11)

	lookupAsync := func(q string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Lookup(t.Context(), q)
			errCh <- err
		}()
	}

	lookupAsync("plug")
	require.Eventually(t, func() bool { return stub.CallCount() == 1 },
		time.Second, time.Millisecond)
	// Let the plug's own queue-depth events (submitter + actor) settle so
	// they don't count against the submissions below.
	time.Sleep(10 * time.Millisecond)
	_, base, _, _ := rec.snapshot()

	for i := range 10 {
		lookupAsync(fmt.Sprintf("q-%02d", i))
		// The actor is stuck inside the plug lookup, so queue-depth events
		// only come from submitters; wait for this submission to be in.
		want := base + i + 1
		require.Eventually(t, func() bool {
			_, enq, _, _ := rec.snapshot()
			return enq >= want
		}, time.Second, time.Millisecond)
	}

	close(gate)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	calls := stub.Calls()
	require.Len(t, calls, 11)
	require.Equal(t, "plug", calls[0])
	for i, q := range calls[1:] {
		require.Equal(t, fmt.Sprintf("q-%02d", i), q)
	}

	_, err = c.Stop(t.Context())
	require.NoError(t, err)
}

// Five staggered submissions against capacity 2: the late ones must block at
// the mailbox door and report a non-zero entry wait.
func TestLookup_entryWaitUnderBackpressure(t *testing.T) {
	stub := &engine.Stub{Delay: 20 * time.Millisecond}
	c, err := Start(stub, Options{QueueSize: 2})
	require.NoError(t, err)

	type out struct {
		query string
		res   *Results
		err   error
	}
	outCh := make(chan out, 5)

	for _, q := range []string{"a", "b", "c", "d", "e"} {
		go func() {
			res, err := c.Lookup(t.Context(), q)
			outCh <- out{query: q, res: res, err: err}
		}()
		time.Sleep(5 * time.Millisecond)
	}

	seen := map[string]bool{}
	waited := 0
	for range 5 {
		o := <-outCh
		require.NoError(t, o.err)
		require.Len(t, o.res.Results, 1)
		require.Equal(t, o.query+"#1", o.res.Results[0].Output)
		require.Equal(t, float32(1.0), o.res.Results[0].Weight)
		seen[o.query] = true
		if o.res.EntryWait > 0 {
			waited++
		}
	}
	require.Len(t, seen, 5)
	require.GreaterOrEqual(t, waited, 2, "late submissions must wait to enter the queue")

	_, err = c.Stop(t.Context())
	require.NoError(t, err)
}

// total ≈ entry wait + queue wait + lookup duration, within scheduling slop.
func TestLookup_timingIdentity(t *testing.T) {
	stub := &engine.Stub{Delay: 10 * time.Millisecond}
	c, err := Start(stub, Options{QueueSize: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan *Results, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Lookup(t.Context(), "x")
			if err == nil {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	n := 0
	for res := range results {
		n++
		sum := res.EntryWait + res.QueueWait + res.LookupDuration
		require.GreaterOrEqual(t, res.TotalDuration, res.LookupDuration)
		require.InDelta(t, res.TotalDuration.Seconds(), sum.Seconds(), 0.05)
	}
	require.Equal(t, 4, n)

	_, err = c.Stop(t.Context())
	require.NoError(t, err)
}

// The mailbox never holds more than QueueSize requests.
func TestLookup_mailboxBounded(t *testing.T) {
	const capacity = 3

	stub := &engine.Stub{Delay: 2 * time.Millisecond}
	rec := &recordingMetrics{}
	c, err := Start(stub, Options{QueueSize: capacity, Metrics: rec})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errCh := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Lookup(t.Context(), fmt.Sprintf("q-%d", i))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	maxDepth, _, _, done := rec.snapshot()
	require.LessOrEqual(t, maxDepth, capacity)
	require.Equal(t, 20, done)

	_, err = c.Stop(t.Context())
	require.NoError(t, err)
}

func TestStop_returnsSameEngine(t *testing.T) {
	stub := &engine.Stub{}
	c, err := Start(stub, Options{QueueSize: 4})
	require.NoError(t, err)

	eng, err := c.Stop(t.Context())
	require.NoError(t, err)
	require.Same(t, engine.Engine(stub), eng)

	// The mailbox is closed for good.
	_, err = c.Lookup(t.Context(), "anything")
	require.ErrorIs(t, err, ErrChannelClosed)

	// Only one caller ever gets the engine.
	_, err = c.Stop(t.Context())
	require.ErrorIs(t, err, ErrChannelClosed)
}

// Requests queued ahead of the stop signal are drained before shutdown.
func TestStop_drainsQueuedRequests(t *testing.T) {
	gate := make(chan struct{})
	stub := &engine.Stub{Gate: gate}
	rec := &recordingMetrics{}
	c, err := Start(stub, Options{QueueSize: 8, Metrics: rec})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var base int
	errCh := make(chan error, 4)
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Lookup(t.Context(), fmt.Sprintf("q-%d", i))
			errCh <- err
		}()
		if i == 0 {
			// Make sure the first request is inside the engine, so the
			// other three really sit in the mailbox.
			require.Eventually(t, func() bool { return stub.CallCount() == 1 },
				time.Second, time.Millisecond)
			time.Sleep(10 * time.Millisecond)
			_, base, _, _ = rec.snapshot()
		}
	}

	// Wait until all three are queued behind the plugged first request.
	require.Eventually(t, func() bool {
		_, enq, _, _ := rec.snapshot()
		return enq >= base+3
	}, time.Second, time.Millisecond)

	type stopOut struct {
		eng engine.Engine
		err error
	}
	stopDone := make(chan stopOut, 1)
	go func() {
		eng, err := c.Stop(context.Background())
		stopDone <- stopOut{eng: eng, err: err}
	}()

	// Stop must not complete while requests are still queued.
	select {
	case <-stopDone:
		t.Fatal("stop completed before queued requests were drained")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	select {
	case out := <-stopDone:
		require.NoError(t, out.err)
		require.Same(t, engine.Engine(stub), out.eng)
	case <-time.After(time.Second):
		t.Fatal("stop did not complete after drain")
	}
	require.Equal(t, 4, stub.CallCount())
}

// A caller that cancels its wait does not disturb the actor: the lookup is
// still performed and its result silently dropped.
func TestLookup_callerAbandonsReply(t *testing.T) {
	gate := make(chan struct{})
	stub := &engine.Stub{Gate: gate}
	rec := &recordingMetrics{}
	c, err := Start(stub, Options{QueueSize: 8, Metrics: rec})
	require.NoError(t, err)

	plugErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(context.Background(), "plug")
		plugErr <- err
	}()
	require.Eventually(t, func() bool { return stub.CallCount() == 1 },
		time.Second, time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	_, base, _, _ := rec.snapshot()

	ctx, cancel := context.WithCancel(t.Context())
	abandonedErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(ctx, "abandoned")
		abandonedErr <- err
	}()
	require.Eventually(t, func() bool {
		_, enq, _, _ := rec.snapshot()
		return enq >= base+1
	}, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-abandonedErr, context.Canceled)

	close(gate)
	require.NoError(t, <-plugErr)

	// The actor still performed the abandoned lookup.
	require.Eventually(t, func() bool { return stub.CallCount() == 2 },
		time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		_, _, abandoned, _ := rec.snapshot()
		return abandoned == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, []string{"plug", "abandoned"}, stub.Calls())

	eng, err := c.Stop(t.Context())
	require.NoError(t, err)
	require.Same(t, engine.Engine(stub), eng)
}

// A submission blocked on a full mailbox gets ErrChannelClosed if the actor
// stops underneath it... but only after the drain: the stop signal is queued
// behind the blocker's competitors, so this exercises the stopped-channel
// path in the blocking enqueue.
func TestLookup_blockedSubmissionSeesShutdown(t *testing.T) {
	gate := make(chan struct{})
	stub := &engine.Stub{Gate: gate}
	rec := &recordingMetrics{}
	c, err := Start(stub, Options{QueueSize: 1, Metrics: rec})
	require.NoError(t, err)

	// Plug the engine, fill the single slot with the stop signal.
	plugErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(context.Background(), "plug")
		plugErr <- err
	}()
	require.Eventually(t, func() bool { return stub.CallCount() == 1 },
		time.Second, time.Millisecond)

	stopErr := make(chan error, 1)
	go func() {
		_, err := c.Stop(context.Background())
		stopErr <- err
	}()
	// Wait for the stop signal to occupy the mailbox slot.
	time.Sleep(20 * time.Millisecond)

	// This submission blocks on the full mailbox and must resolve to
	// ErrChannelClosed once the actor exits.
	lateErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(context.Background(), "late")
		lateErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	close(gate)
	require.NoError(t, <-plugErr)
	require.NoError(t, <-stopErr)
	require.ErrorIs(t, <-lateErr, ErrChannelClosed)
}
