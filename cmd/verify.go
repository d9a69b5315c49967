package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/contract"
	"github.com/bitxelroads/btrd/internal/deploy"
	"github.com/bitxelroads/btrd/internal/explorer"
	"github.com/bitxelroads/btrd/internal/logging"
	"github.com/bitxelroads/btrd/internal/ui"
)

var verifyOwner string

var verifyCmd = &cobra.Command{
	Use:   "verify <address>",
	Short: "Verify a deployed token's source on the explorer",
	Long: `Submit the token's source to the network's Etherscan-compatible explorer
and wait for the result. The constructor argument is the initial owner, which
defaults to the signer's address.

Requires BASESCAN_API_KEY and the Hardhat build-info of the compiled contract.

Examples:
  btrd verify 0x8bbba4b076916BFE4dCC19aDc797F2682E8DFd08
  btrd verify 0x8bbb...Fd08 -n baseMainnet --owner 0xf39F...2266`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		address, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		n, err := selectedNetwork()
		if err != nil {
			return err
		}
		if !cfg.HasExplorerKey() {
			return errors.New("BASESCAN_API_KEY is not set")
		}
		if n.ExplorerAPI == "" {
			return fmt.Errorf("network %s has no explorer_api configured", n.Name)
		}

		owner, err := verifyOwnerAddress()
		if err != nil {
			return err
		}

		src, parsed, err := verifySource()
		if err != nil {
			return err
		}
		ctorArgs, err := contract.ConstructorArgs(parsed, owner)
		if err != nil {
			return err
		}
		req, warnings, err := deploy.VerifyRequest(src, address, ctorArgs)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			logger.Warn("compiler settings differ", zap.String("detail", w))
		}

		logger.Info("verifying contract",
			zap.String(logging.KeyNetwork, n.Name),
			zap.String(logging.KeyAddress, address.Hex()),
			zap.String("owner", owner.Hex()),
		)
		vctx, cancel := context.WithTimeout(ctx, config.VerifyTimeout)
		defer cancel()
		status, err := newVerifier(n, cfg.ExplorerAPIKey).Verify(vctx, req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		msg := "Contract verified"
		if status == explorer.StatusAlreadyVerified {
			msg = "Contract already verified"
		}
		fmt.Fprintln(out, ui.Success(msg))
		if u := n.AddressURL(address.Hex()); u != "" {
			fmt.Fprintln(out, ui.Meta(u+"#code"))
		}
		return nil
	},
}

func verifyOwnerAddress() (common.Address, error) {
	if verifyOwner != "" {
		return parseAddress(verifyOwner)
	}
	signer, err := resolveSigner()
	if err != nil {
		return common.Address{}, fmt.Errorf("--owner is required without a signing key: %w", err)
	}
	return signer.Address(), nil
}

// verifySource names the contract from the configured artifact, falling back
// to the built-in token ABI when no artifact is around.
func verifySource() (deploy.Source, abi.ABI, error) {
	src := deploy.Source{
		BuildInfoDir: cfg.BuildInfoDir,
		Solidity:     cfg.Solidity,
	}

	art, err := contract.LoadArtifact(cfg.Artifact)
	if err == nil {
		parsed, err := art.EthABI()
		if err != nil {
			return src, abi.ABI{}, err
		}
		src.SourceName, src.ContractName = art.SourceName, art.ContractName
		return src, parsed, nil
	}
	logger.Debug("artifact unavailable, using built-in ABI", zap.Error(err))

	b := contract.BTRD()
	parsed, err := contract.ToEthABI(b.ABI)
	if err != nil {
		return src, abi.ABI{}, err
	}
	src.SourceName, src.ContractName = b.SourceName, b.ContractName
	return src, parsed, nil
}

func init() {
	verifyCmd.Flags().StringVar(&verifyOwner, "owner", "", "initial owner passed to the constructor (default: signer address)")
}
