package chain

import (
	"context"
	"sync"
	"time"
)

// Target is one endpoint to probe.
type Target struct {
	Network string
	URL     string
	ChainID int64 // expected chain id
}

// Endpoint is the result of probing a Target.
type Endpoint struct {
	Target
	Latency      time.Duration
	BlockNumber  uint64
	ReportedID   int64
	ChainIDMatch bool
	Healthy      bool
	Err          error
}

// Dialer opens a Backend. Swapped out in tests.
type Dialer func(ctx context.Context, url string) (Backend, error)

// Ping dials t.URL and reads the head block and chain id within timeout.
func Ping(ctx context.Context, dial Dialer, t Target, timeout time.Duration) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ep := Endpoint{Target: t}
	start := time.Now()

	b, err := dial(ctx, t.URL)
	if err != nil {
		ep.Err = err
		ep.Latency = time.Since(start)
		return ep
	}
	defer b.Close()

	head, err := b.BlockNumber(ctx)
	ep.Latency = time.Since(start)
	if err != nil {
		ep.Err = err
		return ep
	}
	ep.BlockNumber = head

	id, err := b.ChainID(ctx)
	if err != nil {
		ep.Err = err
		return ep
	}
	ep.ReportedID = id.Int64()
	ep.ChainIDMatch = ep.ReportedID == t.ChainID
	ep.Healthy = ep.ChainIDMatch
	return ep
}

// PingAll probes every target in parallel. Results keep the input order.
func PingAll(ctx context.Context, dial Dialer, targets []Target, timeout time.Duration) []Endpoint {
	out := make([]Endpoint, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			out[i] = Ping(ctx, dial, t, timeout)
		}(i, t)
	}
	wg.Wait()
	return out
}
