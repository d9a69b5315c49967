package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrNetworkNotFound is returned when a network name is not configured.
var ErrNetworkNotFound = errors.New("network not found")

// builtinNetworks are available without any config file.
var builtinNetworks = []Network{
	{
		Name:        NetworkBaseMainnet,
		URL:         "https://mainnet.base.org",
		ChainID:     8453,
		ExplorerAPI: "https://api.basescan.org/api",
		ExplorerURL: "https://basescan.org",
	},
	{
		Name:        NetworkBaseSepolia,
		URL:         "https://sepolia.base.org",
		ChainID:     84532,
		ExplorerAPI: "https://api-sepolia.basescan.org/api",
		ExplorerURL: "https://sepolia.basescan.org",
	},
}

// LoadDotEnv loads KEY=VALUE pairs from path (".env" when empty) into the
// process environment. Variables that are already set win. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from defaults, then the config file at path (or
// ./btrd.yaml when path is empty), then the environment. A missing config file
// is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BTRD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The unprefixed names are what the Hardhat project used.
	_ = v.BindEnv("private_key", "PRIVATE_KEY", "BTRD_PRIVATE_KEY")
	_ = v.BindEnv("basescan_api_key", "BASESCAN_API_KEY", "BTRD_BASESCAN_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.v = v
	cfg.path = path
	if used := v.ConfigFileUsed(); used != "" {
		cfg.path = used
	}
	if cfg.path == "" {
		cfg.path = DefaultConfigFile
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file the configuration was (or would be) read from.
func (c *Config) Path() string { return c.path }

// Network returns a network by name, case-insensitively.
func (c *Config) Network(name string) (Network, error) {
	n, ok := c.Networks[strings.ToLower(name)]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q (known: %s)", ErrNetworkNotFound, name, strings.Join(c.NetworkNames(), ", "))
	}
	return n, nil
}

// NetworkNames returns configured network names, sorted.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for _, n := range c.Networks {
		names = append(names, n.Name)
	}
	sort.Strings(names)
	return names
}

// HasExplorerKey reports whether explorer verification can run.
func (c *Config) HasExplorerKey() bool {
	return strings.TrimSpace(c.ExplorerAPIKey) != ""
}

// Validate checks the loaded configuration for obvious mistakes.
func (c *Config) Validate() error {
	if len(c.Networks) == 0 {
		return errors.New("config: no networks configured")
	}
	for key, n := range c.Networks {
		if n.URL == "" {
			return fmt.Errorf("config: network %q has no url", key)
		}
		if n.ChainID <= 0 {
			return fmt.Errorf("config: network %q has no chain_id", key)
		}
	}
	if _, err := c.Network(c.DefaultNetwork); err != nil {
		return fmt.Errorf("config: default_network: %w", err)
	}
	switch c.RPCAlgorithm {
	case "fastest", "failover":
	default:
		return fmt.Errorf("config: rpc_algorithm must be fastest or failover, got %q", c.RPCAlgorithm)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

// SaveDefaultNetwork persists default_network to the config file. Only the
// file's own contents are rewritten; defaults and environment values (secrets
// included) never reach disk.
func (c *Config) SaveDefaultNetwork(name string) error {
	n, err := c.Network(name)
	if err != nil {
		return err
	}

	fv := viper.New()
	fv.SetConfigFile(c.path)
	if err := fv.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", c.path, err)
	}
	fv.Set("default_network", n.Name)

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	if err := fv.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	c.DefaultNetwork = n.Name
	return nil
}

// --- helpers ---

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_network", DefaultNetwork)
	v.SetDefault("solidity.version", DefaultSolcVersion)
	v.SetDefault("solidity.optimizer.enabled", true)
	v.SetDefault("solidity.optimizer.runs", DefaultOptimizerRuns)
	v.SetDefault("artifact", DefaultArtifact)
	v.SetDefault("build_info_dir", DefaultBuildInfoDir)
	v.SetDefault("confirmations", DefaultConfirmations)
	v.SetDefault("token_address", DefaultTokenAddress)
	v.SetDefault("key_name", DefaultKeyName)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("rpc_algorithm", DefaultRPCAlgorithm)
	v.SetDefault("private_key", "")
	v.SetDefault("basescan_api_key", "")

	for _, n := range builtinNetworks {
		prefix := "networks." + strings.ToLower(n.Name) + "."
		v.SetDefault(prefix+"name", n.Name)
		v.SetDefault(prefix+"url", n.URL)
		v.SetDefault(prefix+"chain_id", n.ChainID)
		v.SetDefault(prefix+"explorer_api", n.ExplorerAPI)
		v.SetDefault(prefix+"explorer_url", n.ExplorerURL)
	}
}

// normalize lower-cases network keys (viper already does for file keys) and
// fills in names for networks declared without one.
func (c *Config) normalize() {
	nets := make(map[string]Network, len(c.Networks))
	for key, n := range c.Networks {
		if n.Name == "" {
			n.Name = key
		}
		nets[strings.ToLower(key)] = n
	}
	c.Networks = nets
	c.PrivateKey = strings.TrimSpace(c.PrivateKey)
	c.ExplorerAPIKey = strings.TrimSpace(c.ExplorerAPIKey)
	if c.Confirmations == 0 {
		c.Confirmations = 1
	}
}
