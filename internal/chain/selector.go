package chain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoHealthyRPC is returned when no probed endpoint is usable.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// ParseAlgorithm validates an algorithm name. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return AlgorithmFastest, nil
	case AlgorithmFastest, AlgorithmFailover:
		return a, nil
	default:
		return "", fmt.Errorf("unknown rpc algorithm %q (want %s or %s)", s, AlgorithmFastest, AlgorithmFailover)
	}
}

// Pick chooses among probed endpoints. Failover takes the first healthy one
// in configured order; fastest scores healthy, non-stale endpoints by latency
// and head recency.
func Pick(endpoints []Endpoint, algo Algorithm) (*Endpoint, error) {
	if algo == AlgorithmFailover {
		for i := range endpoints {
			if endpoints[i].Healthy {
				return &endpoints[i], nil
			}
		}
		return nil, ErrNoHealthyRPC
	}

	var bestBlock uint64
	for _, e := range endpoints {
		if e.Healthy && e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var winner *Endpoint
	var bestScore float64
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Healthy {
			continue
		}
		if bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, bestBlock); winner == nil || s > bestScore {
			winner, bestScore = e, s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}
	return winner, nil
}

// SelectURL probes every candidate URL of one network in parallel and
// returns the one Pick chooses along with all probe results. A single URL is
// returned without probing.
func SelectURL(ctx context.Context, dial Dialer, network string, chainID int64, urls []string, algo Algorithm, timeout time.Duration) (string, []Endpoint, error) {
	switch len(urls) {
	case 0:
		return "", nil, ErrNoHealthyRPC
	case 1:
		return urls[0], nil, nil
	}

	targets := make([]Target, len(urls))
	for i, u := range urls {
		targets[i] = Target{Network: network, URL: u, ChainID: chainID}
	}
	results := PingAll(ctx, dial, targets, timeout)
	winner, err := Pick(results, algo)
	if err != nil {
		return "", results, fmt.Errorf("%s: %w", network, err)
	}
	return winner.URL, results, nil
}

// --- scoring ---

func score(e *Endpoint, bestBlock uint64) float64 {
	var s float64

	// Latency score: higher = faster.
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else {
		s += 1000.0
	}

	// Loses 1 point per block behind the best head.
	s += float64(10 - int64(bestBlock-e.BlockNumber))
	return s
}
