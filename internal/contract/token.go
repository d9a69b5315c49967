package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bitxelroads/btrd/internal/chain"
)

var (
	// ErrNoCode is returned when attaching to an address without contract code.
	ErrNoCode = errors.New("no contract code at address")

	// ErrReadOnly is returned by writes on a Token without a Sender.
	ErrReadOnly = errors.New("token binding has no sender")
)

// Token binds the BTRD ABI to a deployed address.
type Token struct {
	backend chain.Backend
	abi     abi.ABI
	address common.Address
	sender  *Sender
}

// Attach binds to the token at address after checking it has code.
func Attach(ctx context.Context, backend chain.Backend, address common.Address) (*Token, error) {
	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("reading code at %s: %w", address.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCode, address.Hex())
	}
	return NewToken(backend, address)
}

// NewToken binds without checking for code.
func NewToken(backend chain.Backend, address common.Address) (*Token, error) {
	parsed, err := ToEthABI(BTRD().ABI)
	if err != nil {
		return nil, err
	}
	return &Token{backend: backend, abi: parsed, address: address}, nil
}

// WithSender returns a copy of t that can send transactions through s.
func (t *Token) WithSender(s *Sender) *Token {
	cp := *t
	cp.sender = s
	return &cp
}

// Address returns the token address.
func (t *Token) Address() common.Address { return t.address }

func (t *Token) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := t.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	out, err := t.backend.CallContract(ctx, ethereum.CallMsg{To: &t.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	values, err := t.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("decoding %s: empty result", method)
	}
	return values, nil
}

func (t *Token) transact(ctx context.Context, method string, args ...interface{}) (*types.Receipt, error) {
	if t.sender == nil {
		return nil, ErrReadOnly
	}
	data, err := t.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	receipt, err := t.sender.SendAndWait(ctx, &t.address, data)
	if err != nil {
		return receipt, fmt.Errorf("%s: %w", method, err)
	}
	return receipt, nil
}

// ── reads ────────────────────────────────────────────────────────────────────

func (t *Token) Name(ctx context.Context) (string, error) {
	v, err := t.call(ctx, "name")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(v[0], new(string)).(*string), nil
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	v, err := t.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(v[0], new(string)).(*string), nil
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	v, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(v[0], new(uint8)).(*uint8), nil
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", account)
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callBig(ctx, "allowance", owner, spender)
}

func (t *Token) Paused(ctx context.Context) (bool, error) {
	v, err := t.call(ctx, "paused")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(v[0], new(bool)).(*bool), nil
}

func (t *Token) Owner(ctx context.Context) (common.Address, error) {
	v, err := t.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(v[0], new(common.Address)).(*common.Address), nil
}

func (t *Token) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	v, err := t.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(v[0], new(big.Int)).(*big.Int), nil
}

// ── writes ───────────────────────────────────────────────────────────────────

func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "transfer", to, amount)
}

func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "approve", spender, amount)
}

func (t *Token) Pause(ctx context.Context) (*types.Receipt, error) {
	return t.transact(ctx, "pause")
}

func (t *Token) Unpause(ctx context.Context) (*types.Receipt, error) {
	return t.transact(ctx, "unpause")
}

func (t *Token) Burn(ctx context.Context, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "burn", amount)
}

// BurnFrom burns amount from account, spending the caller's allowance.
func (t *Token) BurnFrom(ctx context.Context, account common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.transact(ctx, "burnFrom", account, amount)
}
