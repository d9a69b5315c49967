package deploy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/explorer"
)

// Verifier submits source for verification. *explorer.Client implements it.
type Verifier interface {
	Verify(ctx context.Context, req explorer.Request) (explorer.Status, error)
}

var _ Verifier = (*explorer.Client)(nil)

// VerificationStatus is the verification outcome recorded in a Result.
type VerificationStatus string

const (
	VerificationSkipped         VerificationStatus = "skipped"
	VerificationVerified        VerificationStatus = "verified"
	VerificationAlreadyVerified VerificationStatus = "already-verified"
	VerificationFailed          VerificationStatus = "failed"
)

// Source identifies the compiled contract to verify.
type Source struct {
	BuildInfoDir string
	SourceName   string
	ContractName string
	Solidity     config.Solidity // expected compiler settings
}

// VerifyRequest assembles a verification request from Hardhat build-info.
// Warnings list differences between the build and the configured compiler
// settings; they do not stop verification.
func VerifyRequest(src Source, address common.Address, ctorArgs []byte) (explorer.Request, []string, error) {
	bi, err := explorer.LoadBuildInfo(src.BuildInfoDir, src.SourceName, src.ContractName)
	if err != nil {
		return explorer.Request{}, nil, err
	}

	var warnings []string
	if src.Solidity.Version != "" && bi.SolcVersion != "" && bi.SolcVersion != src.Solidity.Version {
		warnings = append(warnings, fmt.Sprintf("build used solc %s, config expects %s", bi.SolcVersion, src.Solidity.Version))
	}
	if opt, err := bi.Optimizer(); err == nil {
		if opt.Enabled != src.Solidity.Optimizer.Enabled || (opt.Enabled && opt.Runs != src.Solidity.Optimizer.Runs) {
			warnings = append(warnings, fmt.Sprintf("build optimizer enabled=%t runs=%d, config expects enabled=%t runs=%d",
				opt.Enabled, opt.Runs, src.Solidity.Optimizer.Enabled, src.Solidity.Optimizer.Runs))
		}
	}

	return explorer.Request{
		Address:         address,
		ContractName:    src.SourceName + ":" + src.ContractName,
		CompilerVersion: bi.CompilerVersion(),
		SourceCode:      string(bi.Input),
		ConstructorArgs: ctorArgs,
	}, warnings, nil
}

func statusOf(s explorer.Status) VerificationStatus {
	if s == explorer.StatusAlreadyVerified {
		return VerificationAlreadyVerified
	}
	return VerificationVerified
}
