package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrReverted is returned when a mined transaction has a failed status.
var ErrReverted = errors.New("transaction reverted")

// WaitMined polls every interval until hash is mined or ctx ends. A mined but
// reverted transaction returns its receipt together with ErrReverted.
func WaitMined(ctx context.Context, b Backend, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := b.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash.Hex())
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("fetching receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Confirmations returns how many blocks confirm a receipt at head.
// The inclusion block itself counts as the first confirmation.
func Confirmations(receipt *types.Receipt, head uint64) uint64 {
	included := receipt.BlockNumber.Uint64()
	if head < included {
		return 0
	}
	return head - included + 1
}

// WaitConfirmations polls the chain head until receipt has at least n
// confirmations and returns the head that satisfied it.
func WaitConfirmations(ctx context.Context, b Backend, receipt *types.Receipt, n uint64, interval time.Duration) (uint64, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		head, err := b.BlockNumber(ctx)
		if err != nil {
			return 0, fmt.Errorf("reading block number: %w", err)
		}
		if Confirmations(receipt, head) >= n {
			return head, nil
		}

		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("waiting for %d confirmations of %s: %w", n, receipt.TxHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
