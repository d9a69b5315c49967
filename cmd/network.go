package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/ui"
)

// pickItem is swapped out by tests.
var pickItem = ui.PickItem

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable("", "NAME", "CHAIN ID", "RPC", "EXPLORER")
		for i, name := range cfg.NetworkNames() {
			n, _ := cfg.Network(name)
			mark := ""
			if n.Name == cfg.DefaultNetwork {
				mark = "*"
				t.Marked = i
			}
			t.AddRow(mark, ui.NetworkName(n.Name), strconv.FormatInt(n.ChainID, 10), n.URL, n.ExplorerURL)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks, default %s (config: %s)", len(cfg.Networks), cfg.DefaultNetwork, cfg.Path())))
		return nil
	},
}

var networkPingCmd = &cobra.Command{
	Use:   "ping [network...]",
	Short: "Check that network RPC endpoints are reachable",
	Long: `Dial the RPC endpoints (url and fallback_urls) of every configured network,
or of the ones named, in parallel and report latency, head block and whether
the node serves the configured chain id. Exits non-zero when any endpoint is
unhealthy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		names := args
		if len(names) == 0 {
			names = cfg.NetworkNames()
		}
		targets := make([]chain.Target, 0, len(names))
		for _, name := range names {
			n, err := cfg.Network(name)
			if err != nil {
				return err
			}
			for _, u := range n.URLs() {
				targets = append(targets, chain.Target{Network: n.Name, URL: u, ChainID: n.ChainID})
			}
		}

		results := chain.PingAll(ctx, dialBackend, targets, config.RPCPingTimeout)

		t := ui.NewTable("NAME", "RPC", "STATUS", "LATENCY", "BLOCK", "CHAIN ID")
		unhealthy := 0
		for _, ep := range results {
			status := ui.Success("ok")
			block := strconv.FormatUint(ep.BlockNumber, 10)
			chainID := strconv.FormatInt(ep.ReportedID, 10)
			switch {
			case ep.Err != nil:
				status = ui.Err(ep.Err.Error())
				block, chainID = "-", "-"
			case !ep.ChainIDMatch:
				status = ui.Warn(fmt.Sprintf("chain id %d, expected %d", ep.ReportedID, ep.ChainID))
			}
			if !ep.Healthy {
				unhealthy++
			}
			t.AddRow(ui.NetworkName(ep.Network), ep.URL, status, ep.Latency.Round(time.Millisecond).String(), block, chainID)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())

		if unhealthy > 0 {
			return fmt.Errorf("%d of %d endpoints unhealthy", unhealthy, len(results))
		}
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use [network]",
	Short: "Set the default network",
	Long: `Set the default network and persist it to the config file. Without an
argument an interactive picker is shown.

Examples:
  btrd network use              # pick interactively
  btrd network use baseMainnet`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			items := make([]ui.PickerItem, 0, len(cfg.Networks))
			for _, nn := range cfg.NetworkNames() {
				n, _ := cfg.Network(nn)
				items = append(items, ui.PickerItem{
					Label:    n.Name,
					SubLabel: fmt.Sprintf("chain %d  %s", n.ChainID, n.URL),
					Value:    n.Name,
					Current:  n.Name == cfg.DefaultNetwork,
				})
			}
			picked, err := pickItem("Select default network", items,
				tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.ErrOrStderr()))
			if errors.Is(err, ui.ErrPickCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("unchanged"))
				return nil
			}
			if err != nil {
				return err
			}
			name = picked
		}

		if err := cfg.SaveDefaultNetwork(name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %s (saved to %s)", ui.NetworkName(cfg.DefaultNetwork), cfg.Path())))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkPingCmd, networkUseCmd)
}
