// Package simchain is an in-memory chain that speaks chain.Backend and runs
// the BitxelRoads token contract natively. Tests drive the deploy and smoke
// procedures against it without a node.
package simchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/contract"
)

// TokenBytecode is the creation code the simulated chain recognises as the
// BitxelRoads token. Fixtures embed it in artifacts.
var TokenBytecode = common.FromHex("0x608060405234801561001057600080fd5b5060405161203a38038061203a833981016040819052610030916101e8565b")

// Gas charged per operation.
const (
	DeployGas = 1_250_000
	CallGas   = 52_000
)

var (
	// DefaultSupply is minted to the initial owner: one billion tokens.
	DefaultSupply = new(big.Int).Mul(big.NewInt(1_000_000_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

	defaultBaseFee = big.NewInt(1_000_000_000)
	defaultTip     = big.NewInt(100_000_000)
	maxUint256     = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Chain is a single-node in-memory chain. Every accepted transaction is mined
// in its own block. The zero value is not usable; call New.
type Chain struct {
	mu sync.Mutex

	chainID *big.Int
	head    uint64
	baseFee *big.Int
	tip     *big.Int
	abi     abi.ABI
	signer  types.Signer

	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	tokens   map[common.Address]*tokenState
	receipts map[common.Hash]*types.Receipt

	// AutoAdvance mines an empty block on every BlockNumber call so that
	// confirmation waits finish.
	AutoAdvance bool

	// SendErr, when set, is returned by SendTransaction.
	SendErr error

	// RevertOnMine lists methods that pass estimation but revert when mined.
	RevertOnMine map[string]bool

	// NoEffect lists methods that succeed without changing state.
	NoEffect map[string]bool
}

// New creates a chain with the given id.
func New(chainID int64) *Chain {
	parsed, err := contract.ToEthABI(contract.BTRD().ABI)
	if err != nil {
		panic(fmt.Sprintf("simchain: built-in ABI: %v", err))
	}
	id := big.NewInt(chainID)
	return &Chain{
		chainID:      id,
		head:         1,
		baseFee:      new(big.Int).Set(defaultBaseFee),
		tip:          new(big.Int).Set(defaultTip),
		abi:          parsed,
		signer:       types.LatestSignerForChainID(id),
		balances:     make(map[common.Address]*big.Int),
		nonces:       make(map[common.Address]uint64),
		tokens:       make(map[common.Address]*tokenState),
		receipts:     make(map[common.Hash]*types.Receipt),
		RevertOnMine: make(map[string]bool),
		NoEffect:     make(map[string]bool),
	}
}

var _ chain.Backend = (*Chain)(nil)

// Fund sets the native balance of an account.
func (c *Chain) Fund(account common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[account] = new(big.Int).Set(wei)
}

// Mine advances the head by n empty blocks.
func (c *Chain) Mine(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head += n
}

// Head returns the current block number without advancing.
func (c *Chain) Head() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// SetPaused flips the paused flag of a deployed token directly.
func (c *Chain) SetPaused(token common.Address, paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.tokens[token]; ok {
		st.paused = paused
	}
}

// ── chain.Backend ────────────────────────────────────────────────────────────

func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Chain) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AutoAdvance {
		c.head++
	}
	return c.head, nil
}

func (c *Chain) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.head
	if number != nil {
		n = number.Uint64()
		if n > c.head {
			return nil, ethereum.NotFound
		}
	}
	return &types.Header{
		Number:   new(big.Int).SetUint64(n),
		BaseFee:  new(big.Int).Set(c.baseFee),
		GasLimit: 30_000_000,
	}, nil
}

func (c *Chain) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceOf(account), nil
}

func (c *Chain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tokens[account]; ok {
		return bytes.Clone(TokenBytecode), nil
	}
	return nil, nil
}

func (c *Chain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

func (c *Chain) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.tip), nil
}

func (c *Chain) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.To == nil {
		if _, err := c.decodeCreation(msg.Data); err != nil {
			return 0, err
		}
		return DeployGas, nil
	}
	st, ok := c.tokens[*msg.To]
	if !ok {
		return 21_000, nil
	}
	if _, _, err := c.execute(st.clone(), msg.From, msg.Data); err != nil {
		return 0, err
	}
	return CallGas, nil
}

func (c *Chain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.To == nil {
		return nil, errors.New("simchain: call without target")
	}
	st, ok := c.tokens[*msg.To]
	if !ok {
		return nil, nil
	}
	_, out, err := c.execute(st.clone(), msg.From, msg.Data)
	return out, err
}

func (c *Chain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return c.SendErr
	}
	if _, dup := c.receipts[tx.Hash()]; dup {
		return errors.New("already known")
	}
	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if want := c.nonces[from]; tx.Nonce() != want {
		return fmt.Errorf("nonce mismatch: have %d, want %d", tx.Nonce(), want)
	}
	price := new(big.Int).Add(c.baseFee, tx.GasTipCap())
	if price.Cmp(tx.GasFeeCap()) > 0 {
		price.Set(tx.GasFeeCap())
	}
	if tx.GasFeeCap().Cmp(c.baseFee) < 0 {
		return errors.New("max fee per gas less than block base fee")
	}
	maxCost := new(big.Int).Mul(tx.GasFeeCap(), new(big.Int).SetUint64(tx.Gas()))
	if c.balanceOf(from).Cmp(maxCost) < 0 {
		return errors.New("insufficient funds for gas * price + value")
	}

	c.nonces[from]++
	c.head++
	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		TxHash:            tx.Hash(),
		BlockNumber:       new(big.Int).SetUint64(c.head),
		BlockHash:         crypto.Keccak256Hash(new(big.Int).SetUint64(c.head).Bytes()),
		EffectiveGasPrice: price,
	}

	if tx.To() == nil {
		receipt.GasUsed = DeployGas
		owner, err := c.decodeCreation(tx.Data())
		if err != nil {
			receipt.Status = types.ReceiptStatusFailed
		} else {
			addr := crypto.CreateAddress(from, tx.Nonce())
			c.tokens[addr] = newTokenState(owner)
			receipt.ContractAddress = addr
		}
	} else {
		receipt.GasUsed = CallGas
		if st, ok := c.tokens[*tx.To()]; ok {
			if err := c.mine(st, from, tx.Data()); err != nil {
				receipt.Status = types.ReceiptStatusFailed
			}
		}
	}
	if receipt.GasUsed > tx.Gas() {
		receipt.GasUsed = tx.Gas()
		receipt.Status = types.ReceiptStatusFailed
	}
	receipt.CumulativeGasUsed = receipt.GasUsed

	fee := new(big.Int).Mul(price, new(big.Int).SetUint64(receipt.GasUsed))
	c.balances[from] = new(big.Int).Sub(c.balanceOf(from), fee)
	c.receipts[tx.Hash()] = receipt
	return nil
}

func (c *Chain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (c *Chain) Close() {}

// ── internals ────────────────────────────────────────────────────────────────

func (c *Chain) balanceOf(account common.Address) *big.Int {
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// decodeCreation checks the creation code and returns the constructor's
// initialOwner.
func (c *Chain) decodeCreation(data []byte) (common.Address, error) {
	if !bytes.HasPrefix(data, TokenBytecode) {
		return common.Address{}, errors.New("execution reverted: unknown creation code")
	}
	args, err := c.abi.Constructor.Inputs.Unpack(data[len(TokenBytecode):])
	if err != nil {
		return common.Address{}, fmt.Errorf("execution reverted: bad constructor arguments: %w", err)
	}
	owner := args[0].(common.Address)
	if owner == (common.Address{}) {
		return common.Address{}, revert("OwnableInvalidOwner")
	}
	return owner, nil
}

// mine applies a call to the live state, honouring the failure hooks.
func (c *Chain) mine(st *tokenState, from common.Address, data []byte) error {
	method, err := c.abi.MethodById(data)
	if err != nil {
		return err
	}
	if c.RevertOnMine[method.Name] {
		return revert("forced")
	}
	target := st
	if c.NoEffect[method.Name] {
		target = st.clone()
	}
	_, _, err = c.execute(target, from, data)
	return err
}

// execute runs one call against st and returns the method name and the
// ABI-encoded outputs.
func (c *Chain) execute(st *tokenState, from common.Address, data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", nil, revert("missing selector")
	}
	method, err := c.abi.MethodById(data)
	if err != nil {
		return "", nil, revert("unknown selector")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return method.Name, nil, fmt.Errorf("execution reverted: decoding %s: %w", method.Name, err)
	}

	out, err := st.apply(method.Name, from, args)
	if err != nil {
		return method.Name, nil, err
	}
	packed, err := method.Outputs.Pack(out...)
	if err != nil {
		return method.Name, nil, fmt.Errorf("simchain: encoding %s: %w", method.Name, err)
	}
	return method.Name, packed, nil
}

func revert(reason string) error {
	return fmt.Errorf("execution reverted: %s", reason)
}
