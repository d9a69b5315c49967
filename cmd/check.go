package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/deploy"
	"github.com/bitxelroads/btrd/internal/logging"
	"github.com/bitxelroads/btrd/internal/smoke"
	"github.com/bitxelroads/btrd/internal/ui"
)

var (
	checkToken     string
	checkRecord    string
	checkRecipient string
	checkTransfer  string
	checkApprove   string
	checkBurn      string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Exercise a deployed token end to end",
	Long: `Run the smoke test against a deployed token: read its metadata, transfer,
approve, pause and unpause, then burnFrom, checking the effect of every write.
The signer must own the token.

The token is taken from --token, else from --record, else from the network's
deployment record in the working directory, else from token_address in config.

Examples:
  btrd check
  btrd check --token 0x8bbba4b076916BFE4dCC19aDc797F2682E8DFd08
  btrd check -n baseMainnet --record deployment-mainnet-info.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		n, err := selectedNetwork()
		if err != nil {
			return err
		}
		token, err := checkTarget(n)
		if err != nil {
			return err
		}
		if !common.IsHexAddress(checkRecipient) {
			return fmt.Errorf("invalid recipient address %q", checkRecipient)
		}
		signer, err := resolveSigner()
		if err != nil {
			return err
		}

		backend, err := connect(ctx, n)
		if err != nil {
			return err
		}
		defer backend.Close()

		runner := &smoke.Runner{
			Backend: backend,
			Signer:  signer,
			Log:     logger.With(zap.String(logging.KeyNetwork, n.Name)),
		}
		report, err := runner.Run(ctx, smoke.Plan{
			Token:        token,
			Recipient:    common.HexToAddress(checkRecipient),
			Transfer:     checkTransfer,
			Approve:      checkApprove,
			Burn:         checkBurn,
			PollInterval: cfg.PollInterval,
			TxTimeout:    config.TxConfirmTimeout,
		})
		if report != nil {
			printReport(cmd, n, report)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("All checks passed"))
		return nil
	},
}

// checkTarget picks the token address to exercise.
func checkTarget(n config.Network) (common.Address, error) {
	if checkToken != "" {
		return parseAddress(checkToken)
	}

	path := checkRecord
	if path == "" {
		path = deploy.RecordFileName(n.Name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no deployment record, using configured token", zap.String("path", path))
			return parseAddress(cfg.TokenAddress)
		}
	}

	rec, err := deploy.ReadRecord(path)
	if err != nil {
		return common.Address{}, err
	}
	if rec.Network != "" && rec.Network != n.Name {
		return common.Address{}, fmt.Errorf("%s records a deployment on %s, not %s", path, rec.Network, n.Name)
	}
	logger.Info("using deployment record", zap.String("path", path), zap.String(logging.KeyAddress, rec.TokenAddress))
	return parseAddress(rec.TokenAddress)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func printReport(cmd *cobra.Command, n config.Network, r *smoke.Report) {
	out := cmd.OutOrStdout()

	pairs := [][2]string{
		{"Token", ui.Addr(r.Token.Hex())},
		{"Name", r.Name},
		{"Symbol", r.Symbol},
		{"Decimals", fmt.Sprint(r.Decimals)},
	}
	if r.TotalSupply != nil {
		pairs = append(pairs, [2]string{"Total supply", ui.Val(chain.FormatUnits(r.TotalSupply, r.Decimals) + " " + r.Symbol)})
	}
	if r.Balance != nil {
		pairs = append(pairs, [2]string{"Signer balance", ui.Val(chain.FormatUnits(r.Balance, r.Decimals) + " " + r.Symbol)})
	}
	fmt.Fprintln(out, ui.KeyValueBlock("Token "+ui.NetworkName(n.Name), pairs))

	if len(r.Steps) == 0 {
		return
	}
	t := ui.NewTable("STEP", "TX", "RESULT")
	for _, s := range r.Steps {
		tx := "-"
		if s.Tx != (common.Hash{}) {
			tx = ui.TruncateAddr(s.Tx.Hex())
		}
		t.AddRow(s.Name, tx, s.Observation)
	}
	fmt.Fprintln(out, t.Render())
}

func init() {
	checkCmd.Flags().StringVar(&checkToken, "token", "", "token address to exercise")
	checkCmd.Flags().StringVar(&checkRecord, "record", "", "deployment record to read the token address from")
	checkCmd.Flags().StringVar(&checkRecipient, "recipient", config.SmokeRecipient, "recipient of the test transfer and approval")
	checkCmd.Flags().StringVar(&checkTransfer, "transfer", config.SmokeTransferAmount, "tokens to transfer")
	checkCmd.Flags().StringVar(&checkApprove, "approve", config.SmokeApproveAmount, "tokens to approve")
	checkCmd.Flags().StringVar(&checkBurn, "burn", config.SmokeBurnAmount, "tokens to burn with burnFrom")
}
