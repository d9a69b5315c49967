// Package deploy deploys the BitxelRoads token, waits for it to settle,
// optionally verifies it on the explorer, and writes the deployment record.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/contract"
	"github.com/bitxelroads/btrd/internal/logging"
	"github.com/bitxelroads/btrd/internal/wallet"
)

// Params configures one deployment.
type Params struct {
	Network       config.Network
	Artifact      *contract.Artifact
	Source        Source // build-info lookup for verification
	Confirmations uint64
	OutPath       string // defaults to RecordFileName(Network.Name)
	PollInterval  time.Duration
	Timeout       time.Duration // receipt + confirmations
	VerifyTimeout time.Duration
}

// Result is what a successful deployment produced.
type Result struct {
	Record          *Record
	RecordPath      string
	Receipt         *types.Receipt
	ConstructorArgs []byte
	Verification    VerificationStatus
	VerificationErr error
}

// Pipeline runs deployments. A nil Verifier skips verification.
type Pipeline struct {
	Backend  chain.Backend
	Signer   *wallet.Signer
	Verifier Verifier
	Log      *zap.Logger
	Now      func() time.Time
}

// Run deploys the token with the signer as initial owner. Verification
// problems are logged and reported in the Result; every other failure
// aborts the run.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String(logging.KeyNetwork, params.Network.Name))
	now := p.Now
	if now == nil {
		now = time.Now
	}
	confirmations := params.Confirmations
	if confirmations == 0 {
		confirmations = 1
	}

	deployer := p.Signer.Address()
	log.Info("deploying with account", zap.String(logging.KeyAddress, deployer.Hex()))

	balance, err := p.Backend.BalanceAt(ctx, deployer, nil)
	if err != nil {
		return nil, fmt.Errorf("reading deployer balance: %w", err)
	}
	log.Info("account balance", zap.String(logging.KeyAmount, chain.FormatEther(balance)+" ETH"))

	if _, err := chain.CheckChainID(ctx, p.Backend, params.Network.ChainID); err != nil {
		return nil, err
	}

	sender, err := contract.NewSender(ctx, p.Backend, p.Signer, params.PollInterval)
	if err != nil {
		return nil, err
	}

	dctx := ctx
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	log.Info("deploying contract", zap.String("contract", params.Artifact.ContractName))
	d, err := contract.Deploy(dctx, sender, params.Artifact, deployer)
	if err != nil {
		return nil, err
	}
	log.Debug("deployment submitted", zap.String(logging.KeyTx, d.Tx.Hash().Hex()))

	receipt, err := d.Wait(dctx, sender)
	if err != nil {
		return nil, err
	}
	log.Info("token deployed", zap.String(logging.KeyAddress, d.Address.Hex()), zap.String(logging.KeyTx, receipt.TxHash.Hex()))

	log.Info("waiting for block confirmations", zap.Uint64("confirmations", confirmations))
	if _, err := chain.WaitConfirmations(dctx, p.Backend, receipt, confirmations, params.PollInterval); err != nil {
		return nil, err
	}
	log.Info("deployment confirmed", zap.Uint64(logging.KeyBlock, receipt.BlockNumber.Uint64()))

	res := &Result{
		Receipt:         receipt,
		ConstructorArgs: d.ConstructorArgs,
		Verification:    VerificationSkipped,
	}
	if p.Verifier != nil {
		res.Verification, res.VerificationErr = p.verify(ctx, log, params, d)
	}

	token, err := contract.NewToken(p.Backend, d.Address)
	if err != nil {
		return nil, err
	}
	supply, err := token.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading total supply: %w", err)
	}

	res.Record = &Record{
		Network:        params.Network.Name,
		TokenAddress:   d.Address.Hex(),
		Owner:          deployer.Hex(),
		DeploymentDate: FormatTimestamp(now()),
		TotalSupply:    chain.FormatEther(supply),
	}
	log.Info("deployment summary",
		zap.String(logging.KeyAddress, res.Record.TokenAddress),
		zap.String("owner", res.Record.Owner),
		zap.String("total_supply", res.Record.TotalSupply+" BTRD"),
	)

	res.RecordPath = params.OutPath
	if res.RecordPath == "" {
		res.RecordPath = RecordFileName(params.Network.Name)
	}
	if err := WriteRecord(res.RecordPath, res.Record); err != nil {
		return nil, err
	}
	log.Info("deployment record saved", zap.String("path", res.RecordPath))
	return res, nil
}

func (p *Pipeline) verify(ctx context.Context, log *zap.Logger, params Params, d *contract.Deployment) (VerificationStatus, error) {
	log.Info("verifying contract on explorer", zap.String(logging.KeyAddress, d.Address.Hex()))

	src := params.Source
	if src.SourceName == "" {
		src.SourceName = params.Artifact.SourceName
	}
	if src.ContractName == "" {
		src.ContractName = params.Artifact.ContractName
	}
	req, warnings, err := VerifyRequest(src, d.Address, d.ConstructorArgs)
	if err != nil {
		log.Warn("verification error", zap.Error(err))
		return VerificationFailed, err
	}
	for _, w := range warnings {
		log.Warn("compiler settings differ", zap.String("detail", w))
	}

	vctx := ctx
	if params.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, params.VerifyTimeout)
		defer cancel()
	}
	status, err := p.Verifier.Verify(vctx, req)
	if err != nil {
		log.Warn("verification error", zap.Error(err))
		return VerificationFailed, err
	}
	log.Info("contract verified", zap.String("status", string(status)))
	return statusOf(status), nil
}
