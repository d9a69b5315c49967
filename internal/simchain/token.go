package simchain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token metadata of the simulated contract.
const (
	TokenName     = "BitxelRoadsToken"
	TokenSymbol   = "BTRD"
	TokenDecimals = 18
)

// tokenState mirrors OpenZeppelin ERC20 + Burnable + Pausable + Ownable.
type tokenState struct {
	owner       common.Address
	paused      bool
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
}

func newTokenState(owner common.Address) *tokenState {
	return &tokenState{
		owner:       owner,
		totalSupply: new(big.Int).Set(DefaultSupply),
		balances:    map[common.Address]*big.Int{owner: new(big.Int).Set(DefaultSupply)},
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (s *tokenState) clone() *tokenState {
	cp := &tokenState{
		owner:       s.owner,
		paused:      s.paused,
		totalSupply: new(big.Int).Set(s.totalSupply),
		balances:    make(map[common.Address]*big.Int, len(s.balances)),
		allowances:  make(map[common.Address]map[common.Address]*big.Int, len(s.allowances)),
	}
	for a, b := range s.balances {
		cp.balances[a] = new(big.Int).Set(b)
	}
	for o, m := range s.allowances {
		inner := make(map[common.Address]*big.Int, len(m))
		for sp, v := range m {
			inner[sp] = new(big.Int).Set(v)
		}
		cp.allowances[o] = inner
	}
	return cp
}

func (s *tokenState) balance(a common.Address) *big.Int {
	if b, ok := s.balances[a]; ok {
		return b
	}
	return new(big.Int)
}

func (s *tokenState) allowance(owner, spender common.Address) *big.Int {
	if v, ok := s.allowances[owner][spender]; ok {
		return v
	}
	return new(big.Int)
}

// apply runs method as from and returns its outputs.
func (s *tokenState) apply(method string, from common.Address, args []interface{}) ([]interface{}, error) {
	switch method {
	case "name":
		return []interface{}{TokenName}, nil
	case "symbol":
		return []interface{}{TokenSymbol}, nil
	case "decimals":
		return []interface{}{uint8(TokenDecimals)}, nil
	case "totalSupply":
		return []interface{}{new(big.Int).Set(s.totalSupply)}, nil
	case "balanceOf":
		return []interface{}{new(big.Int).Set(s.balance(args[0].(common.Address)))}, nil
	case "allowance":
		return []interface{}{new(big.Int).Set(s.allowance(args[0].(common.Address), args[1].(common.Address)))}, nil
	case "paused":
		return []interface{}{s.paused}, nil
	case "owner":
		return []interface{}{s.owner}, nil

	case "transfer":
		to, value := args[0].(common.Address), args[1].(*big.Int)
		if to == (common.Address{}) {
			return nil, revert("ERC20InvalidReceiver")
		}
		if err := s.update(from, to, value); err != nil {
			return nil, err
		}
		return []interface{}{true}, nil
	case "approve":
		spender, value := args[0].(common.Address), args[1].(*big.Int)
		if spender == (common.Address{}) {
			return nil, revert("ERC20InvalidSpender")
		}
		s.setAllowance(from, spender, value)
		return []interface{}{true}, nil
	case "transferFrom":
		src, to, value := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
		if to == (common.Address{}) {
			return nil, revert("ERC20InvalidReceiver")
		}
		if err := s.spendAllowance(src, from, value); err != nil {
			return nil, err
		}
		if err := s.update(src, to, value); err != nil {
			return nil, err
		}
		return []interface{}{true}, nil

	case "burn":
		return nil, s.update(from, common.Address{}, args[0].(*big.Int))
	case "burnFrom":
		account, value := args[0].(common.Address), args[1].(*big.Int)
		if err := s.spendAllowance(account, from, value); err != nil {
			return nil, err
		}
		return nil, s.update(account, common.Address{}, value)

	case "pause":
		if err := s.onlyOwner(from); err != nil {
			return nil, err
		}
		if s.paused {
			return nil, revert("EnforcedPause")
		}
		s.paused = true
		return nil, nil
	case "unpause":
		if err := s.onlyOwner(from); err != nil {
			return nil, err
		}
		if !s.paused {
			return nil, revert("ExpectedPause")
		}
		s.paused = false
		return nil, nil

	case "transferOwnership":
		if err := s.onlyOwner(from); err != nil {
			return nil, err
		}
		next := args[0].(common.Address)
		if next == (common.Address{}) {
			return nil, revert("OwnableInvalidOwner")
		}
		s.owner = next
		return nil, nil
	case "renounceOwnership":
		if err := s.onlyOwner(from); err != nil {
			return nil, err
		}
		s.owner = common.Address{}
		return nil, nil
	}
	return nil, revert(fmt.Sprintf("unsupported method %s", method))
}

func (s *tokenState) onlyOwner(caller common.Address) error {
	if caller != s.owner {
		return revert(fmt.Sprintf("OwnableUnauthorizedAccount(%s)", caller.Hex()))
	}
	return nil
}

// update moves value from -> to; the zero address on either side mints or
// burns. Blocked while paused.
func (s *tokenState) update(from, to common.Address, value *big.Int) error {
	if s.paused {
		return revert("EnforcedPause")
	}
	if from == (common.Address{}) {
		s.totalSupply.Add(s.totalSupply, value)
	} else {
		bal := s.balance(from)
		if bal.Cmp(value) < 0 {
			return revert(fmt.Sprintf("ERC20InsufficientBalance(%s, %s, %s)", from.Hex(), bal, value))
		}
		s.balances[from] = new(big.Int).Sub(bal, value)
	}
	if to == (common.Address{}) {
		s.totalSupply.Sub(s.totalSupply, value)
	} else {
		s.balances[to] = new(big.Int).Add(s.balance(to), value)
	}
	return nil
}

func (s *tokenState) setAllowance(owner, spender common.Address, value *big.Int) {
	if s.allowances[owner] == nil {
		s.allowances[owner] = make(map[common.Address]*big.Int)
	}
	s.allowances[owner][spender] = new(big.Int).Set(value)
}

// spendAllowance leaves an infinite (max uint256) allowance untouched.
func (s *tokenState) spendAllowance(owner, spender common.Address, value *big.Int) error {
	current := s.allowance(owner, spender)
	if current.Cmp(maxUint256) == 0 {
		return nil
	}
	if current.Cmp(value) < 0 {
		return revert(fmt.Sprintf("ERC20InsufficientAllowance(%s, %s, %s)", spender.Hex(), current, value))
	}
	s.setAllowance(owner, spender, new(big.Int).Sub(current, value))
	return nil
}
