package cmd

import (
	"context"
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/ui"
)

// ---------------------------------------------------------------------------
// network list
// ---------------------------------------------------------------------------

func TestNetworkList(t *testing.T) {
	newEnv(t, 84532)

	stdout, _, err := run(t, "", "network", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "baseMainnet")
	assert.Contains(t, stdout, "baseSepolia")
	assert.Contains(t, stdout, "8453")
	assert.Contains(t, stdout, "https://sepolia.base.org")
	assert.Contains(t, stdout, "*")
	assert.Contains(t, stdout, "default baseSepolia")
}

// ---------------------------------------------------------------------------
// network ping
// ---------------------------------------------------------------------------

func TestNetworkPingAllHealthy(t *testing.T) {
	newEnv(t, 84532)

	stdout, _, err := run(t, "", "network", "ping", "baseSepolia")
	require.NoError(t, err)
	assert.Contains(t, stdout, "baseSepolia")
	assert.Contains(t, stdout, "ok")
}

func TestNetworkPingReportsUnhealthy(t *testing.T) {
	e := newEnv(t, 84532)
	dialBackend = func(_ context.Context, url string) (chain.Backend, error) {
		if url == "https://mainnet.base.org" {
			return nil, errors.New("connection refused")
		}
		return e.sim, nil
	}

	stdout, _, err := run(t, "", "network", "ping")
	assert.ErrorContains(t, err, "1 of 2 endpoints unhealthy")
	assert.Contains(t, stdout, "connection refused")
	assert.Contains(t, stdout, "baseSepolia")
}

func TestNetworkPingIncludesFallbacks(t *testing.T) {
	newEnv(t, 84532)
	require.NoError(t, writeFile("btrd.yaml", "networks:\n  baseSepolia:\n    fallback_urls: [https://backup.example.org]\n"))

	stdout, _, err := run(t, "", "network", "ping", "baseSepolia")
	require.NoError(t, err)
	assert.Contains(t, stdout, "https://sepolia.base.org")
	assert.Contains(t, stdout, "https://backup.example.org")
}

func TestNetworkPingChainIDMismatch(t *testing.T) {
	newEnv(t, 1)

	stdout, _, err := run(t, "", "network", "ping", "baseSepolia")
	assert.Error(t, err)
	assert.Contains(t, stdout, "expected 84532")
}

// ---------------------------------------------------------------------------
// network use
// ---------------------------------------------------------------------------

func TestNetworkUseArgument(t *testing.T) {
	newEnv(t, 84532)

	stdout, _, err := run(t, "", "network", "use", "BASEMAINNET")
	require.NoError(t, err)
	assert.Contains(t, stdout, "baseMainnet")

	data, err := os.ReadFile("btrd.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_network: baseMainnet")

	stdout, _, err = run(t, "", "network", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "default baseMainnet")
}

func TestNetworkUsePicker(t *testing.T) {
	newEnv(t, 84532)
	var offered []ui.PickerItem
	pickItem = func(_ string, items []ui.PickerItem, _ ...tea.ProgramOption) (string, error) {
		offered = items
		return "baseMainnet", nil
	}

	_, _, err := run(t, "", "network", "use")
	require.NoError(t, err)
	require.Len(t, offered, 2)
	assert.Equal(t, "baseMainnet", offered[0].Value)
	assert.True(t, offered[1].Current)

	data, err := os.ReadFile("btrd.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "baseMainnet")
}

func TestNetworkUsePickerCancelled(t *testing.T) {
	newEnv(t, 84532)
	pickItem = func(string, []ui.PickerItem, ...tea.ProgramOption) (string, error) {
		return "", ui.ErrPickCancelled
	}

	stdout, _, err := run(t, "", "network", "use")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unchanged")
	_, err = os.Stat("btrd.yaml")
	assert.True(t, os.IsNotExist(err))
}

func TestNetworkUseUnknown(t *testing.T) {
	newEnv(t, 84532)

	_, _, err := run(t, "", "network", "use", "polygon")
	assert.Error(t, err)
}
