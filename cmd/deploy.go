package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/contract"
	"github.com/bitxelroads/btrd/internal/deploy"
	"github.com/bitxelroads/btrd/internal/logging"
	"github.com/bitxelroads/btrd/internal/ui"
)

var (
	deployOut           string
	deployArtifact      string
	deployConfirmations uint64
	deployNoVerify      bool
	deployYes           bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the token and write the deployment record",
	Long: `Deploy BitxelRoadsToken with the signer as initial owner, wait for block
confirmations, verify the source on Basescan when BASESCAN_API_KEY is set,
and write deployment-<network>-info.json.

Examples:
  btrd deploy                          # default network (baseSepolia)
  btrd deploy -n baseMainnet --yes     # mainnet, no confirmation prompt
  btrd deploy --no-verify --out dep.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		n, err := selectedNetwork()
		if err != nil {
			return err
		}
		signer, err := resolveSigner()
		if err != nil {
			return err
		}

		artPath := deployArtifact
		if artPath == "" {
			artPath = cfg.Artifact
		}
		art, err := contract.LoadArtifact(artPath)
		if err != nil {
			return err
		}

		if n.Name == config.NetworkBaseMainnet && !deployYes {
			prompt := fmt.Sprintf("Deploy %s to %s from %s?", art.ContractName, n.Name, signer.Address().Hex())
			if !ui.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt) {
				return errors.New("deployment cancelled")
			}
		}

		backend, err := connect(ctx, n)
		if err != nil {
			return err
		}
		defer backend.Close()

		pipe := &deploy.Pipeline{
			Backend: backend,
			Signer:  signer,
			Log:     logger,
		}
		switch {
		case deployNoVerify:
			logger.Info("verification disabled")
		case !cfg.HasExplorerKey():
			logger.Info("BASESCAN_API_KEY not set, skipping verification")
		case n.ExplorerAPI == "":
			logger.Info("network has no explorer API, skipping verification", zap.String(logging.KeyNetwork, n.Name))
		default:
			pipe.Verifier = newVerifier(n, cfg.ExplorerAPIKey)
		}

		confirmations := deployConfirmations
		if confirmations == 0 {
			confirmations = cfg.Confirmations
		}

		res, err := pipe.Run(ctx, deploy.Params{
			Network:  n,
			Artifact: art,
			Source: deploy.Source{
				BuildInfoDir: cfg.BuildInfoDir,
				Solidity:     cfg.Solidity,
			},
			Confirmations: confirmations,
			OutPath:       deployOut,
			PollInterval:  cfg.PollInterval,
			Timeout:       config.TxDeployTimeout,
			VerifyTimeout: config.VerifyTimeout,
		})
		if err != nil {
			return err
		}

		printDeployment(cmd, n, res)
		return nil
	},
}

func printDeployment(cmd *cobra.Command, n config.Network, res *deploy.Result) {
	out := cmd.OutOrStdout()
	rec := res.Record

	pairs := [][2]string{
		{"Network", ui.NetworkName(rec.Network)},
		{"Token", ui.Addr(rec.TokenAddress)},
		{"Owner", ui.Addr(rec.Owner)},
		{"Total supply", ui.Val(rec.TotalSupply + " BTRD")},
		{"Tx", res.Receipt.TxHash.Hex()},
		{"Block", strconv.FormatUint(res.Receipt.BlockNumber.Uint64(), 10)},
		{"Deployed", rec.DeploymentDate},
		{"Verification", string(res.Verification)},
		{"Record", res.RecordPath},
	}
	if u := n.AddressURL(rec.TokenAddress); u != "" {
		pairs = append(pairs, [2]string{"Explorer", ui.Meta(u)})
	}
	fmt.Fprintln(out, ui.KeyValueBlock("Deployment", pairs))

	if res.VerificationErr != nil {
		fmt.Fprintln(out, ui.Warn("verification failed: "+res.VerificationErr.Error()))
		fmt.Fprintln(out, ui.Meta("retry with: btrd verify "+rec.TokenAddress+" -n "+rec.Network))
	}
	fmt.Fprintln(out, ui.Success("Token deployed at "+rec.TokenAddress))
}

func init() {
	deployCmd.Flags().StringVarP(&deployOut, "out", "o", "", "deployment record path (default: deployment-<network>-info.json)")
	deployCmd.Flags().StringVar(&deployArtifact, "artifact", "", "contract artifact (default: artifact from config)")
	deployCmd.Flags().Uint64Var(&deployConfirmations, "confirmations", 0, "block confirmations to wait for (default: confirmations from config)")
	deployCmd.Flags().BoolVar(&deployNoVerify, "no-verify", false, "skip explorer verification")
	deployCmd.Flags().BoolVarP(&deployYes, "yes", "y", false, "do not ask before deploying to mainnet")
}
