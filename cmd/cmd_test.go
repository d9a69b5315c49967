package cmd

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/deploy"
	"github.com/bitxelroads/btrd/internal/explorer"
	"github.com/bitxelroads/btrd/internal/simchain"
	"github.com/bitxelroads/btrd/internal/wallet"
	"github.com/bitxelroads/btrd/test/fixtures"
)

const (
	ownerKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	ownerAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type fakeVerifier struct {
	status explorer.Status
	err    error
	reqs   []explorer.Request
}

func (f *fakeVerifier) Verify(_ context.Context, req explorer.Request) (explorer.Status, error) {
	f.reqs = append(f.reqs, req)
	return f.status, f.err
}

type env struct {
	dir      string
	sim      *simchain.Chain
	keys     *wallet.InMemoryKeystore
	verifier *fakeVerifier

	mu     sync.Mutex
	dialed []string
}

// dial records url; probes dial concurrently.
func (e *env) dial(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dialed = append(e.dialed, url)
}

// newEnv isolates a command run: a Hardhat project in a temp dir as the
// working directory, a clean environment, a simulated chain behind every RPC
// URL, an in-memory keychain and a fake explorer.
func newEnv(t *testing.T, chainID int64) *env {
	t.Helper()

	for _, k := range []string{"PRIVATE_KEY", "BASESCAN_API_KEY", "BTRD_DEFAULT_NETWORK", "BTRD_TOKEN_ADDRESS", "BTRD_CONFIRMATIONS"} {
		t.Setenv(k, "")
	}
	t.Setenv("BTRD_POLL_INTERVAL", "1ms")

	e := &env{
		dir:      fixtures.Project(t, t.TempDir()),
		sim:      simchain.New(chainID),
		keys:     wallet.NewInMemoryKeystore(),
		verifier: &fakeVerifier{status: explorer.StatusVerified},
	}
	e.sim.AutoAdvance = true
	chdir(t, e.dir)

	origDial, origKeys, origVerifier, origPick := dialBackend, openKeystore, newVerifier, pickItem
	dialBackend = func(_ context.Context, url string) (chain.Backend, error) {
		e.dial(url)
		return e.sim, nil
	}
	openKeystore = func() (wallet.KeySource, error) { return e.keys, nil }
	newVerifier = func(config.Network, string) deploy.Verifier { return e.verifier }
	t.Cleanup(func() {
		dialBackend, openKeystore, newVerifier, pickItem = origDial, origKeys, origVerifier, origPick
	})
	return e
}

// fund gives the test owner native currency.
func (e *env) fund() {
	e.sim.Fund(common.HexToAddress(ownerAddress), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func writeFile(name, content string) error {
	return os.WriteFile(name, []byte(content), 0o644)
}

// run executes btrd with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags puts every flag back to its default; cobra keeps values between
// Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// ---------------------------------------------------------------------------
// root
// ---------------------------------------------------------------------------

func TestRootRegistersCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"deploy", "check", "verify", "network", "key", "config", "abi"} {
		assert.Contains(t, names, want)
	}
}

func TestUnknownNetworkFlag(t *testing.T) {
	e := newEnv(t, 84532)
	e.fund()
	t.Setenv("PRIVATE_KEY", ownerKey)

	_, _, err := run(t, "", "deploy", "-n", "optimism")
	assert.ErrorIs(t, err, config.ErrNetworkNotFound)
	assert.Empty(t, e.dialed)
}

func TestNetworkFlagIsCaseInsensitive(t *testing.T) {
	e := newEnv(t, 84532)
	e.fund()
	t.Setenv("PRIVATE_KEY", ownerKey)

	_, _, err := run(t, "", "deploy", "-n", "BASESEPOLIA")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://sepolia.base.org"}, e.dialed)
}

func TestMalformedConfigFails(t *testing.T) {
	newEnv(t, 84532)
	require.NoError(t, writeFile("btrd.yaml", "networks: [oops"))

	_, _, err := run(t, "", "config", "show")
	assert.ErrorContains(t, err, "loading config")
}

func TestResolveSignerKeychainUnavailable(t *testing.T) {
	newEnv(t, 84532)
	openKeystore = func() (wallet.KeySource, error) { return nil, errors.New("no keychain") }

	_, _, err := run(t, "", "deploy")
	assert.ErrorIs(t, err, wallet.ErrNoSigningKey)
}

func TestConnectFailsOverToFallback(t *testing.T) {
	e := newEnv(t, 84532)
	e.fund()
	t.Setenv("PRIVATE_KEY", ownerKey)
	require.NoError(t, writeFile("btrd.yaml", "rpc_algorithm: failover\nnetworks:\n  baseSepolia:\n    fallback_urls: [https://backup.example.org]\n"))
	dialBackend = func(_ context.Context, url string) (chain.Backend, error) {
		e.dial(url)
		if url == "https://sepolia.base.org" {
			return nil, errors.New("connection refused")
		}
		return e.sim, nil
	}

	_, _, err := run(t, "", "deploy")
	require.NoError(t, err)
	assert.Equal(t, "https://backup.example.org", e.dialed[len(e.dialed)-1])
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatal(err)
		}
	})
}
