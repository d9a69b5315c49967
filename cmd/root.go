package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/deploy"
	"github.com/bitxelroads/btrd/internal/explorer"
	"github.com/bitxelroads/btrd/internal/logging"
	"github.com/bitxelroads/btrd/internal/ui"
	"github.com/bitxelroads/btrd/internal/wallet"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/bitxelroads/btrd/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgFile     string
	envFile     string
	networkFlag string
	verbose     bool

	cfg    *config.Config
	logger = zap.NewNop()
)

// Swapped out by tests.
var (
	dialBackend chain.Dialer = chain.Dial

	openKeystore = func() (wallet.KeySource, error) {
		return wallet.DefaultKeystore()
	}

	newVerifier = func(n config.Network, apiKey string) deploy.Verifier {
		return explorer.New(n.ExplorerAPI, apiKey, n.ChainID)
	}
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "btrd",
	Short: "Deploy and smoke-test the BitxelRoads token",
	Long: `btrd deploys the BitxelRoadsToken (BTRD) ERC20 to Base, verifies it on
Basescan and exercises a deployed instance end to end.

The signing key comes from PRIVATE_KEY (environment or .env) or from the OS
keychain (see "btrd key set"). BASESCAN_API_KEY enables source verification.
Every config key can be overridden with a BTRD_ prefixed variable, e.g.
BTRD_DEFAULT_NETWORK=baseMainnet.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger = logging.NewWriter(cmd.ErrOrStderr(), verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./btrd.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use (default: default_network from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Register all sub-commands.
	rootCmd.AddCommand(
		deployCmd,
		checkCmd,
		verifyCmd,
		networkCmd,
		keyCmd,
		configCmd,
		abiCmd,
	)
}

// --- helpers shared by sub-commands ---

// signalContext cancels on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// selectedNetwork resolves --network, falling back to default_network.
func selectedNetwork() (config.Network, error) {
	name := networkFlag
	if name == "" {
		name = cfg.DefaultNetwork
	}
	return cfg.Network(name)
}

// resolveSigner returns the signing key. The keychain is only opened when
// PRIVATE_KEY is not set.
func resolveSigner() (*wallet.Signer, error) {
	if cfg.PrivateKey != "" {
		return wallet.ResolveSigner(cfg.PrivateKey, nil, "")
	}
	ks, err := openKeystore()
	if err != nil {
		logger.Debug("keychain unavailable", zap.Error(err))
		return nil, wallet.ErrNoSigningKey
	}
	return wallet.ResolveSigner("", ks, cfg.KeyName)
}

// connect dials n and checks that the node serves the configured chain.
func connect(ctx context.Context, n config.Network) (chain.Backend, error) {
	algo, err := chain.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return nil, err
	}
	url, probes, err := chain.SelectURL(ctx, dialBackend, n.Name, n.ChainID, n.URLs(), algo, config.RPCPingTimeout)
	for _, p := range probes {
		logger.Debug("probed endpoint",
			zap.String("url", p.URL),
			zap.Duration("latency", p.Latency),
			zap.Uint64(logging.KeyBlock, p.BlockNumber),
			zap.Bool("healthy", p.Healthy),
		)
	}
	if err != nil {
		return nil, err
	}

	dctx, cancel := context.WithTimeout(ctx, config.RPCDialTimeout)
	defer cancel()

	logger.Debug("connecting", zap.String(logging.KeyNetwork, n.Name), zap.String("url", url))
	backend, err := dialBackend(dctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", n.Name, err)
	}
	if _, err := chain.CheckChainID(dctx, backend, n.ChainID); err != nil {
		backend.Close()
		return nil, err
	}
	return backend, nil
}
