// Package smoke exercises a deployed BitxelRoads token end to end and checks
// that every write had the expected effect on chain.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/contract"
	"github.com/bitxelroads/btrd/internal/logging"
	"github.com/bitxelroads/btrd/internal/wallet"
)

// ErrCheckFailed is returned when a write did not have its expected effect.
var ErrCheckFailed = errors.New("check failed")

// Plan describes one smoke run. Amounts are whole-token decimal strings and
// get scaled by the token's decimals.
type Plan struct {
	Token        common.Address
	Recipient    common.Address
	Transfer     string
	Approve      string
	Burn         string
	PollInterval time.Duration
	TxTimeout    time.Duration // per transaction
}

// Step is one executed write and what was observed afterwards.
type Step struct {
	Name        string
	Tx          common.Hash
	Observation string
}

// Report collects what the run read and did.
type Report struct {
	Token       common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
	Balance     *big.Int // signer balance before the writes
	Steps       []Step
}

// Runner executes plans as Signer.
type Runner struct {
	Backend chain.Backend
	Signer  *wallet.Signer
	Log     *zap.Logger
}

type run struct {
	plan   Plan
	log    *zap.Logger
	token  *contract.Token
	owner  common.Address
	report *Report
}

// Run executes the plan. The returned report covers every step that
// completed, also when an error is returned.
func (r *Runner) Run(ctx context.Context, plan Plan) (*Report, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	owner := r.Signer.Address()
	if plan.Recipient == owner {
		return nil, fmt.Errorf("recipient %s is the signer; transfers would not change its balance", owner.Hex())
	}

	token, err := contract.Attach(ctx, r.Backend, plan.Token)
	if err != nil {
		return nil, err
	}
	sender, err := contract.NewSender(ctx, r.Backend, r.Signer, plan.PollInterval)
	if err != nil {
		return nil, err
	}

	ru := &run{
		plan:   plan,
		log:    log.With(zap.String("token", plan.Token.Hex())),
		token:  token.WithSender(sender),
		owner:  owner,
		report: &Report{Token: plan.Token},
	}
	log.Info("testing deployed contract", zap.String(logging.KeyAddress, plan.Token.Hex()))

	for _, step := range []func(context.Context) error{
		ru.metadata,
		ru.balance,
		ru.transfer,
		ru.approve,
		ru.pauseCycle,
		ru.burnFrom,
	} {
		if err := step(ctx); err != nil {
			return ru.report, err
		}
	}
	return ru.report, nil
}

func (ru *run) metadata(ctx context.Context) error {
	rep := ru.report
	var err error
	if rep.Name, err = ru.token.Name(ctx); err != nil {
		return err
	}
	if rep.Symbol, err = ru.token.Symbol(ctx); err != nil {
		return err
	}
	if rep.TotalSupply, err = ru.token.TotalSupply(ctx); err != nil {
		return err
	}
	if rep.Decimals, err = ru.token.Decimals(ctx); err != nil {
		return err
	}
	ru.log.Info("token info",
		zap.String("name", rep.Name),
		zap.String("symbol", rep.Symbol),
		zap.String("total_supply", rep.TotalSupply.String()),
		zap.Uint8("decimals", rep.Decimals),
	)
	return nil
}

func (ru *run) balance(ctx context.Context) error {
	bal, err := ru.token.BalanceOf(ctx, ru.owner)
	if err != nil {
		return err
	}
	ru.report.Balance = bal
	ru.log.Info("deployer balance", zap.String(logging.KeyAddress, ru.owner.Hex()), zap.String(logging.KeyAmount, bal.String()))
	return nil
}

func (ru *run) transfer(ctx context.Context) error {
	amount, err := ru.amount(ru.plan.Transfer)
	if err != nil {
		return err
	}
	ru.log.Info("testing transfer", zap.String("to", ru.plan.Recipient.Hex()), zap.String(logging.KeyAmount, amount.String()))

	before, err := ru.token.BalanceOf(ctx, ru.owner)
	if err != nil {
		return err
	}
	receipt, err := ru.send(ctx, func(ctx context.Context) (*types.Receipt, error) {
		return ru.token.Transfer(ctx, ru.plan.Recipient, amount)
	})
	if err != nil {
		return err
	}
	after, err := ru.token.BalanceOf(ctx, ru.owner)
	if err != nil {
		return err
	}

	moved := new(big.Int).Sub(before, after)
	if moved.Cmp(amount) != 0 {
		return fmt.Errorf("%w: transfer moved %s from the signer, expected %s", ErrCheckFailed, moved, amount)
	}
	ru.record("transfer", receipt, fmt.Sprintf("signer balance %s -> %s", before, after))
	return nil
}

func (ru *run) approve(ctx context.Context) error {
	amount, err := ru.amount(ru.plan.Approve)
	if err != nil {
		return err
	}
	ru.log.Info("testing approve", zap.String("spender", ru.plan.Recipient.Hex()), zap.String(logging.KeyAmount, amount.String()))

	receipt, err := ru.send(ctx, func(ctx context.Context) (*types.Receipt, error) {
		return ru.token.Approve(ctx, ru.plan.Recipient, amount)
	})
	if err != nil {
		return err
	}
	allowance, err := ru.token.Allowance(ctx, ru.owner, ru.plan.Recipient)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) != 0 {
		return fmt.Errorf("%w: allowance is %s after approve, expected %s", ErrCheckFailed, allowance, amount)
	}
	ru.record("approve", receipt, "allowance "+allowance.String())
	return nil
}

func (ru *run) pauseCycle(ctx context.Context) error {
	ru.log.Info("testing pause")
	receipt, err := ru.send(ctx, ru.token.Pause)
	if err != nil {
		return err
	}
	if err := ru.expectPaused(ctx, "pause", true); err != nil {
		return err
	}
	ru.record("pause", receipt, "paused true")

	ru.log.Info("testing unpause")
	receipt, err = ru.send(ctx, ru.token.Unpause)
	if err != nil {
		return err
	}
	if err := ru.expectPaused(ctx, "unpause", false); err != nil {
		return err
	}
	ru.record("unpause", receipt, "paused false")
	return nil
}

func (ru *run) expectPaused(ctx context.Context, after string, want bool) error {
	paused, err := ru.token.Paused(ctx)
	if err != nil {
		return err
	}
	if paused != want {
		return fmt.Errorf("%w: paused() is %t after %s", ErrCheckFailed, paused, after)
	}
	return nil
}

// burnFrom spends the signer's allowance on itself, so it approves itself
// first when that allowance is short.
func (ru *run) burnFrom(ctx context.Context) error {
	amount, err := ru.amount(ru.plan.Burn)
	if err != nil {
		return err
	}
	ru.log.Info("testing burnFrom", zap.String(logging.KeyAmount, amount.String()))

	self, err := ru.token.Allowance(ctx, ru.owner, ru.owner)
	if err != nil {
		return err
	}
	if self.Cmp(amount) < 0 {
		receipt, err := ru.send(ctx, func(ctx context.Context) (*types.Receipt, error) {
			return ru.token.Approve(ctx, ru.owner, amount)
		})
		if err != nil {
			return err
		}
		ru.record("self-approve", receipt, "allowance "+amount.String())
	}

	before, err := ru.token.TotalSupply(ctx)
	if err != nil {
		return err
	}
	receipt, err := ru.send(ctx, func(ctx context.Context) (*types.Receipt, error) {
		return ru.token.BurnFrom(ctx, ru.owner, amount)
	})
	if err != nil {
		return err
	}
	after, err := ru.token.TotalSupply(ctx)
	if err != nil {
		return err
	}

	burned := new(big.Int).Sub(before, after)
	if burned.Cmp(amount) != 0 {
		return fmt.Errorf("%w: burnFrom reduced supply by %s, expected %s", ErrCheckFailed, burned, amount)
	}
	ru.record("burnFrom", receipt, fmt.Sprintf("total supply %s -> %s", before, after))
	return nil
}

func (ru *run) amount(whole string) (*big.Int, error) {
	v, err := chain.ParseUnits(whole, ru.report.Decimals)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("amount %q must be positive", whole)
	}
	return v, nil
}

func (ru *run) send(ctx context.Context, write func(context.Context) (*types.Receipt, error)) (*types.Receipt, error) {
	if ru.plan.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ru.plan.TxTimeout)
		defer cancel()
	}
	return write(ctx)
}

func (ru *run) record(name string, receipt *types.Receipt, observation string) {
	ru.report.Steps = append(ru.report.Steps, Step{Name: name, Tx: receipt.TxHash, Observation: observation})
	ru.log.Info(name+" ok",
		zap.String(logging.KeyTx, receipt.TxHash.Hex()),
		zap.Uint64(logging.KeyBlock, receipt.BlockNumber.Uint64()),
		zap.String("observed", observation),
	)
}
