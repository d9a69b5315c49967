package config

import "time"

// Built-in network names.
const (
	NetworkBaseMainnet = "baseMainnet"
	NetworkBaseSepolia = "baseSepolia"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultConfigName    = "btrd"
	DefaultConfigFile    = "btrd.yaml"
	DefaultNetwork       = NetworkBaseSepolia
	DefaultArtifact      = "artifacts/contracts/BitxelRoadsToken.sol/BitxelRoadsToken.json"
	DefaultBuildInfoDir  = "artifacts/build-info"
	DefaultConfirmations = uint64(5)
	DefaultKeyName       = "deployer"
	DefaultSolcVersion   = "0.8.20"
	DefaultOptimizerRuns = 200
	DefaultRPCAlgorithm  = "fastest"

	// Address of the live instance the smoke test was written against.
	DefaultTokenAddress = "0x8bbba4b076916BFE4dCC19aDc797F2682E8DFd08"
)

// Timeouts and polling.
const (
	DefaultPollInterval = 2 * time.Second
	RPCDialTimeout      = 10 * time.Second
	RPCPingTimeout      = 5 * time.Second
	TxConfirmTimeout    = 3 * time.Minute // standard transaction confirmation wait
	TxDeployTimeout     = 5 * time.Minute // deployment receipt + confirmations
	VerifyTimeout       = 3 * time.Minute
	VerifyPollInterval  = 5 * time.Second
)

// Amounts (in whole tokens) moved by `btrd check`.
const (
	SmokeRecipient      = "0x1234567890123456789012345678901234567890"
	SmokeTransferAmount = "1000"
	SmokeApproveAmount  = "500"
	SmokeBurnAmount     = "100"
)
