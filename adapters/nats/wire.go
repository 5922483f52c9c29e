package nats

import (
	"time"

	"github.com/giellatekno/fstq-go/core/engine"
	"github.com/giellatekno/fstq-go/core/lookup"
)

// lookupRequest is the payload published to <prefix>.lookup.
type lookupRequest struct {
	Query string `json:"query"`
}

// wireTimings mirrors the timing breakdown of lookup.Results in nanoseconds.
type wireTimings struct {
	EntryWait      time.Duration `json:"entry_wait"`
	QueueWait      time.Duration `json:"queue_wait"`
	LookupDuration time.Duration `json:"lookup_duration"`
	TotalDuration  time.Duration `json:"total_duration"`
}

type lookupResponse struct {
	Results []engine.Result `json:"results"`
	Timings *wireTimings    `json:"timings,omitempty"`
	Cached  bool            `json:"cached,omitempty"`
	Err     string          `json:"err,omitempty"`
}

func responseFrom(res *lookup.Results) lookupResponse {
	return lookupResponse{
		Results: res.Results,
		Cached:  res.Cached,
		Timings: &wireTimings{
			EntryWait:      res.EntryWait,
			QueueWait:      res.QueueWait,
			LookupDuration: res.LookupDuration,
			TotalDuration:  res.TotalDuration,
		},
	}
}

func (r lookupResponse) toResults() *lookup.Results {
	out := &lookup.Results{Results: r.Results, Cached: r.Cached}
	if r.Timings != nil {
		out.EntryWait = r.Timings.EntryWait
		out.QueueWait = r.Timings.QueueWait
		out.LookupDuration = r.Timings.LookupDuration
		out.TotalDuration = r.Timings.TotalDuration
	}
	return out
}
