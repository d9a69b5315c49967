package chain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitxelroads/btrd/internal/chain"
)

// probed builds an endpoint as PingAll would report it.
func probed(url string, latency time.Duration, block uint64, healthy bool) chain.Endpoint {
	return chain.Endpoint{
		Target:      chain.Target{URL: url},
		Latency:     latency,
		BlockNumber: block,
		Healthy:     healthy,
	}
}

// ---------------------------------------------------------------------------
// Pick
// ---------------------------------------------------------------------------

func TestPickSelectsFastest(t *testing.T) {
	endpoints := []chain.Endpoint{
		probed("http://slow.rpc", 200*time.Millisecond, 100, true),
		probed("http://fast.rpc", 30*time.Millisecond, 100, true),
		probed("http://medium.rpc", 80*time.Millisecond, 100, true),
	}

	winner, err := chain.Pick(endpoints, chain.AlgorithmFastest)
	require.NoError(t, err)
	assert.Equal(t, "http://fast.rpc", winner.URL)
}

func TestPickDiscardsStaleNodes(t *testing.T) {
	endpoints := []chain.Endpoint{
		probed("http://fresh.rpc", 50*time.Millisecond, 1000, true),
		probed("http://stale.rpc", 10*time.Millisecond, 990, true), // 10 blocks behind
	}

	winner, err := chain.Pick(endpoints, chain.AlgorithmFastest)
	require.NoError(t, err)
	assert.Equal(t, "http://fresh.rpc", winner.URL, "stale node should be discarded even if faster")
}

func TestPickIgnoresUnhealthyHead(t *testing.T) {
	// An unhealthy node reporting a far-ahead head must not make the others stale.
	endpoints := []chain.Endpoint{
		probed("http://wrong-chain.rpc", 5*time.Millisecond, 5_000_000, false),
		probed("http://ok.rpc", 50*time.Millisecond, 1000, true),
	}

	winner, err := chain.Pick(endpoints, chain.AlgorithmFastest)
	require.NoError(t, err)
	assert.Equal(t, "http://ok.rpc", winner.URL)
}

func TestPickFailover(t *testing.T) {
	endpoints := []chain.Endpoint{
		probed("http://primary", 0, 100, false),
		probed("http://secondary", 90*time.Millisecond, 100, true),
		probed("http://tertiary", 10*time.Millisecond, 100, true),
	}

	winner, err := chain.Pick(endpoints, chain.AlgorithmFailover)
	require.NoError(t, err)
	assert.Equal(t, "http://secondary", winner.URL, "should fail over to secondary when primary is unhealthy")
}

func TestPickErrorsWhenAllUnhealthy(t *testing.T) {
	endpoints := []chain.Endpoint{
		probed("http://rpc1", 100*time.Millisecond, 0, false),
		probed("http://rpc2", 200*time.Millisecond, 0, false),
	}

	_, err := chain.Pick(endpoints, chain.AlgorithmFastest)
	assert.ErrorIs(t, err, chain.ErrNoHealthyRPC)
	_, err = chain.Pick(endpoints, chain.AlgorithmFailover)
	assert.ErrorIs(t, err, chain.ErrNoHealthyRPC)
}

func TestPickEmptyEndpoints(t *testing.T) {
	_, err := chain.Pick(nil, chain.AlgorithmFastest)
	assert.ErrorIs(t, err, chain.ErrNoHealthyRPC)
}

// ---------------------------------------------------------------------------
// ParseAlgorithm
// ---------------------------------------------------------------------------

func TestParseAlgorithm(t *testing.T) {
	a, err := chain.ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, chain.AlgorithmFastest, a)

	a, err = chain.ParseAlgorithm("failover")
	require.NoError(t, err)
	assert.Equal(t, chain.AlgorithmFailover, a)

	_, err = chain.ParseAlgorithm("round-robin")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// SelectURL
// ---------------------------------------------------------------------------

type headBackend struct {
	chain.Backend
	head uint64
	id   int64
}

func (b headBackend) BlockNumber(context.Context) (uint64, error) { return b.head, nil }
func (b headBackend) ChainID(context.Context) (*big.Int, error)   { return big.NewInt(b.id), nil }
func (b headBackend) Close()                                      {}

func TestSelectURLSingleSkipsProbe(t *testing.T) {
	dial := func(context.Context, string) (chain.Backend, error) {
		t.Fatal("single URL must not be probed")
		return nil, nil
	}
	url, results, err := chain.SelectURL(context.Background(), dial, "baseSepolia", 84532, []string{"http://only"}, chain.AlgorithmFastest, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://only", url)
	assert.Nil(t, results)
}

func TestSelectURLSkipsDeadAndWrongChain(t *testing.T) {
	dial := func(_ context.Context, url string) (chain.Backend, error) {
		switch url {
		case "http://dead":
			return nil, errors.New("connection refused")
		case "http://mainnet":
			return headBackend{head: 100, id: 8453}, nil
		default:
			return headBackend{head: 100, id: 84532}, nil
		}
	}

	url, results, err := chain.SelectURL(context.Background(), dial, "baseSepolia", 84532,
		[]string{"http://dead", "http://mainnet", "http://good"}, chain.AlgorithmFailover, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://good", url)
	require.Len(t, results, 3)
	assert.Error(t, results[0].Err)
	assert.False(t, results[1].ChainIDMatch)
}

func TestSelectURLNoneHealthy(t *testing.T) {
	dial := func(context.Context, string) (chain.Backend, error) { return nil, errors.New("down") }

	_, _, err := chain.SelectURL(context.Background(), dial, "baseSepolia", 84532,
		[]string{"http://a", "http://b"}, chain.AlgorithmFastest, time.Second)
	assert.ErrorIs(t, err, chain.ErrNoHealthyRPC)
	assert.ErrorContains(t, err, "baseSepolia")
}
