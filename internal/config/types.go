package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all btrd configuration.
type Config struct {
	DefaultNetwork string             `mapstructure:"default_network"`
	Solidity       Solidity           `mapstructure:"solidity"`
	Networks       map[string]Network `mapstructure:"networks"`
	Artifact       string             `mapstructure:"artifact"`       // Hardhat/Foundry artifact of the token
	BuildInfoDir   string             `mapstructure:"build_info_dir"` // Hardhat build-info dir, used for verification
	Confirmations  uint64             `mapstructure:"confirmations"`
	TokenAddress   string             `mapstructure:"token_address"` // instance exercised by `btrd check`
	KeyName        string             `mapstructure:"key_name"`      // keychain entry used when PRIVATE_KEY is unset
	PollInterval   time.Duration      `mapstructure:"poll_interval"`
	RPCAlgorithm   string             `mapstructure:"rpc_algorithm"` // fastest | failover, used when a network has fallback URLs

	// Secrets. Normally supplied through the environment or .env, never written back.
	PrivateKey     string `mapstructure:"private_key"`
	ExplorerAPIKey string `mapstructure:"basescan_api_key"`

	v    *viper.Viper
	path string
}

// Solidity mirrors the compiler section of the build toolchain.
type Solidity struct {
	Version   string    `mapstructure:"version"`
	Optimizer Optimizer `mapstructure:"optimizer"`
}

// Optimizer holds solc optimizer settings.
type Optimizer struct {
	Enabled bool `mapstructure:"enabled"`
	Runs    int  `mapstructure:"runs"`
}

// Network is one deploy target.
type Network struct {
	Name         string   `mapstructure:"name"`
	URL          string   `mapstructure:"url"`
	FallbackURLs []string `mapstructure:"fallback_urls"` // tried when url is down, see rpc_algorithm
	ChainID      int64    `mapstructure:"chain_id"`
	ExplorerAPI  string   `mapstructure:"explorer_api"` // Etherscan-compatible API, used for verification
	ExplorerURL  string   `mapstructure:"explorer_url"` // browser URL
}

// URLs returns the primary RPC URL followed by the fallbacks.
func (n Network) URLs() []string {
	urls := make([]string, 0, 1+len(n.FallbackURLs))
	if n.URL != "" {
		urls = append(urls, n.URL)
	}
	for _, u := range n.FallbackURLs {
		if u != "" && u != n.URL {
			urls = append(urls, u)
		}
	}
	return urls
}

// AddressURL returns the explorer page for addr, or "" when no explorer is set.
func (n Network) AddressURL(addr string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return n.ExplorerURL + "/address/" + addr
}

// TxURL returns the explorer page for a transaction hash.
func (n Network) TxURL(hash string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return n.ExplorerURL + "/tx/" + hash
}
