// Package lookup provides safe concurrent access to a single non-thread-safe
// lookup engine through a mailbox-based actor.
//
// An [engine.Engine] supports exactly one in-flight Lookup call at a time;
// calling it from two goroutines corrupts it. This package arbitrates: one
// dedicated goroutine (the actor) takes exclusive ownership of the engine and
// drains a bounded FIFO mailbox of requests, one at a time. Any number of
// goroutines submit through a shared [Client] and each gets its reply on a
// private conduit.
//
// # Usage
//
//	client, err := lookup.Start(eng, lookup.Options{QueueSize: 100})
//	if err != nil {
//	    return err
//	}
//
//	var wg sync.WaitGroup
//	for range 9 {
//	    wg.Add(1)
//	    go func() {
//	        defer wg.Done()
//	        res, err := client.Lookup(ctx, "viessu")
//	        if err != nil {
//	            return
//	        }
//	        for _, r := range res.Results {
//	            fmt.Println(r.Output, r.Weight)
//	        }
//	    }()
//	}
//	wg.Wait()
//
//	// Hand the engine back and release it.
//	eng, err = client.Stop(ctx)
//	if err == nil {
//	    eng.Close()
//	}
//
// # Backpressure and timing
//
// The mailbox is a bounded channel. A submission that finds it full blocks
// until a slot frees up, and the time spent blocked is reported as
// [Results.EntryWait]. Time spent queued before the actor picked the request
// up is reported as [Results.QueueWait]; it is derived (round trip minus the
// lookup's own duration), not stamped at dequeue. [Results.LookupDuration] is
// the engine call itself, measured by the actor.
//
// # Shutdown
//
// [Client.Stop] sends a stop signal through the same mailbox, so every
// request queued ahead of it is still served. Once the signal is processed
// the actor exits and the engine is returned to the stopping caller; all
// later calls on any handle fail with [ErrChannelClosed].
//
// The package imposes no timeouts of its own. Callers that want a deadline
// wrap their context before calling [Client.Lookup].
package lookup
