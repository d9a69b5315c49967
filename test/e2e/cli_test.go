package e2e_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "btrd-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "btrd")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

// cleanEnv drops everything btrd reads so the host environment cannot leak
// into a run.
func cleanEnv(home string, extra ...string) []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "BTRD_") || strings.HasPrefix(kv, "PRIVATE_KEY=") ||
			strings.HasPrefix(kv, "BASESCAN_API_KEY=") || strings.HasPrefix(kv, "HOME=") ||
			strings.HasPrefix(kv, "DBUS_SESSION_BUS_ADDRESS=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env,
		"HOME="+home,
		"DBUS_SESSION_BUS_ADDRESS=disabled:",
		"BTRD_KEYRING_PASSWORD=e2e",
	)
	return append(env, extra...)
}

// runCLI runs btrd inside dir and returns stdout+stderr and the exit code.
func runCLI(t *testing.T, dir string, env []string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	cmd.Env = cleanEnv(dir, env...)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return string(out), 0
}

func TestVersionFlag(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "--version")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "btrd")
	assert.Contains(t, out, "1.0.0")
}

func TestHelpCommand(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "--help")
	require.Equal(t, 0, code)
	for _, sub := range []string{"deploy", "check", "verify", "network", "key", "config", "abi"} {
		assert.Contains(t, out, sub)
	}
	assert.Contains(t, out, "--network")
	assert.Contains(t, out, "--config")
}

func TestNetworkList(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "network", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "baseMainnet")
	assert.Contains(t, out, "baseSepolia")
	assert.Contains(t, out, "8453")
	assert.Contains(t, out, "84532")
}

func TestNetworkUsePersists(t *testing.T) {
	dir := t.TempDir()
	out, code := runCLI(t, dir, nil, "network", "use", "basemainnet")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "baseMainnet")

	data, err := os.ReadFile(filepath.Join(dir, "btrd.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "baseMainnet")

	out, code = runCLI(t, dir, nil, "config", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "baseMainnet")
}

func TestNetworkUseUnknown(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "network", "use", "unknownchain99")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "✗")
}

func TestConfigShowMasksSecrets(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), []string{"PRIVATE_KEY=" + testKey}, "config", "show")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, testKey)
	assert.Contains(t, out, "ff80")
}

func TestDotEnvIsLoaded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRIVATE_KEY="+testKey+"\n"), 0o600))

	out, code := runCLI(t, dir, nil, "key", "show")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Contains(t, out, "PRIVATE_KEY")
}

func TestDeployWithoutKeyFails(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "deploy")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "no signing key")
}

func TestDeployWithoutArtifactFails(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), []string{"PRIVATE_KEY=" + testKey}, "deploy")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "cannot read artifact file")
}

func TestCheckRejectsBadToken(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), []string{"PRIVATE_KEY=" + testKey}, "check", "--token", "not-an-address")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid address")
}

func TestAbiSelectorLookup(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "abi", "0x79cc6790")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "burnFrom(address,uint256)")
}

func TestUnknownCommandShowsError(t *testing.T) {
	out, code := runCLI(t, t.TempDir(), nil, "unknowncommand")
	assert.Equal(t, 1, code)
	assert.Contains(t, strings.ToLower(out), "unknown command")
}
