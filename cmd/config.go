package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bitxelroads/btrd/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, the config file, .env and BTRD_*
environment overrides are applied. Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		pairs := [][2]string{
			{"Config file", cfg.Path()},
			{"Default network", ui.NetworkName(cfg.DefaultNetwork)},
			{"Artifact", cfg.Artifact},
			{"Build info", cfg.BuildInfoDir},
			{"Solidity", fmt.Sprintf("%s (optimizer %t, %d runs)", cfg.Solidity.Version, cfg.Solidity.Optimizer.Enabled, cfg.Solidity.Optimizer.Runs)},
			{"Confirmations", strconv.FormatUint(cfg.Confirmations, 10)},
			{"Poll interval", cfg.PollInterval.String()},
			{"Token address", ui.Addr(cfg.TokenAddress)},
			{"Key name", cfg.KeyName},
			{"PRIVATE_KEY", maskedOrUnset(cfg.PrivateKey)},
			{"BASESCAN_API_KEY", maskedOrUnset(cfg.ExplorerAPIKey)},
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Configuration", pairs))

		t := ui.NewTable("NAME", "CHAIN ID", "RPC", "EXPLORER API")
		for _, name := range cfg.NetworkNames() {
			n, _ := cfg.Network(name)
			t.AddRow(ui.NetworkName(n.Name), strconv.FormatInt(n.ChainID, 10), n.URL, n.ExplorerAPI)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

func maskedOrUnset(secret string) string {
	if secret == "" {
		return ui.Meta("(not set)")
	}
	return ui.Mask(secret)
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
