package chain_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitxelroads/btrd/internal/chain"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// fakeBackend answers receipt and head queries from fields. The receipt only
// becomes visible after minedAfter lookups; head grows by one per BlockNumber.
type fakeBackend struct {
	chain.Backend

	mu         sync.Mutex
	receipt    *types.Receipt
	minedAfter int
	lookups    int
	head       uint64
	receiptErr error
	headErr    error
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	f.lookups++
	if f.receipt == nil || f.lookups <= f.minedAfter {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeBackend) BlockNumber(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return 0, f.headErr
	}
	h := f.head
	f.head++
	return h, nil
}

func receiptAt(block int64, status uint64) *types.Receipt {
	return &types.Receipt{
		Status:      status,
		BlockNumber: big.NewInt(block),
		TxHash:      common.HexToHash("0xabc"),
	}
}

// ---------------------------------------------------------------------------
// WaitMined
// ---------------------------------------------------------------------------

func TestWaitMinedPollsUntilReceipt(t *testing.T) {
	b := &fakeBackend{receipt: receiptAt(10, types.ReceiptStatusSuccessful), minedAfter: 2}

	r, err := chain.WaitMined(context.Background(), b, common.HexToHash("0xabc"), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.BlockNumber.Int64())
	assert.Equal(t, 3, b.lookups)
}

func TestWaitMinedReverted(t *testing.T) {
	b := &fakeBackend{receipt: receiptAt(10, types.ReceiptStatusFailed)}

	r, err := chain.WaitMined(context.Background(), b, common.HexToHash("0xabc"), time.Millisecond)
	require.ErrorIs(t, err, chain.ErrReverted)
	require.NotNil(t, r)
	assert.Equal(t, types.ReceiptStatusFailed, r.Status)
}

func TestWaitMinedRPCError(t *testing.T) {
	b := &fakeBackend{receiptErr: errors.New("boom")}

	_, err := chain.WaitMined(context.Background(), b, common.HexToHash("0xabc"), time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestWaitMinedContextCancelled(t *testing.T) {
	b := &fakeBackend{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := chain.WaitMined(ctx, b, common.HexToHash("0xabc"), time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// ---------------------------------------------------------------------------
// Confirmations
// ---------------------------------------------------------------------------

func TestConfirmationsCountsInclusionBlock(t *testing.T) {
	r := receiptAt(100, types.ReceiptStatusSuccessful)
	assert.Equal(t, uint64(0), chain.Confirmations(r, 99))
	assert.Equal(t, uint64(1), chain.Confirmations(r, 100))
	assert.Equal(t, uint64(5), chain.Confirmations(r, 104))
}

func TestWaitConfirmations(t *testing.T) {
	b := &fakeBackend{head: 100}
	r := receiptAt(100, types.ReceiptStatusSuccessful)

	head, err := chain.WaitConfirmations(context.Background(), b, r, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(104), head)
}

func TestWaitConfirmationsAlreadyDeep(t *testing.T) {
	b := &fakeBackend{head: 500}
	r := receiptAt(100, types.ReceiptStatusSuccessful)

	head, err := chain.WaitConfirmations(context.Background(), b, r, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), head)
}

func TestWaitConfirmationsHeadError(t *testing.T) {
	b := &fakeBackend{headErr: errors.New("rpc down")}
	r := receiptAt(100, types.ReceiptStatusSuccessful)

	_, err := chain.WaitConfirmations(context.Background(), b, r, 1, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc down")
}
