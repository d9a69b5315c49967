package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/wallet"
)

// Gas estimates are padded by gasBufferNum/gasBufferDen.
const (
	gasBufferNum = 12
	gasBufferDen = 10
)

// Sender builds, signs, and broadcasts EIP-1559 transactions from one signer.
type Sender struct {
	backend      chain.Backend
	signer       *wallet.Signer
	chainID      *big.Int
	pollInterval time.Duration
}

// NewSender creates a Sender. The chain id is read once from the backend.
func NewSender(ctx context.Context, backend chain.Backend, signer *wallet.Signer, pollInterval time.Duration) (*Sender, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	return &Sender{
		backend:      backend,
		signer:       signer,
		chainID:      chainID,
		pollInterval: pollInterval,
	}, nil
}

// From returns the sending account.
func (s *Sender) From() common.Address { return s.signer.Address() }

// Send signs and broadcasts a transaction carrying data. A nil to creates a
// contract. Gas estimation failures, which include reverts, are returned.
func (s *Sender) Send(ctx context.Context, to *common.Address, data []byte) (*types.Transaction, error) {
	from := s.signer.Address()

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas tip: %w", err)
	}
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("getting latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        to,
		GasFeeCap: feeCap,
		GasTipCap: tip,
		Value:     new(big.Int),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimating gas: %w", err)
	}
	gas = gas * gasBufferNum / gasBufferDen

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     new(big.Int),
		Data:      data,
	})

	signed, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return nil, err
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return signed, nil
}

// WaitMined blocks until tx is mined. Reverts return chain.ErrReverted.
func (s *Sender) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return chain.WaitMined(ctx, s.backend, tx.Hash(), s.pollInterval)
}

// SendAndWait sends a transaction and waits for its receipt.
func (s *Sender) SendAndWait(ctx context.Context, to *common.Address, data []byte) (*types.Receipt, error) {
	tx, err := s.Send(ctx, to, data)
	if err != nil {
		return nil, err
	}
	return s.WaitMined(ctx, tx)
}
