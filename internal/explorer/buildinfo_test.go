package explorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenBuildInfo = `{
  "_format": "hh-sol-build-info-1",
  "solcVersion": "0.8.20",
  "solcLongVersion": "0.8.20+commit.a1b79de6",
  "input": {
    "language": "Solidity",
    "sources": {"contracts/BitxelRoadsToken.sol": {"content": "pragma solidity ^0.8.20;"}},
    "settings": {"optimizer": {"enabled": true, "runs": 200}}
  },
  "output": {
    "contracts": {
      "contracts/BitxelRoadsToken.sol": {"BitxelRoadsToken": {"abi": []}}
    }
  }
}`

const otherBuildInfo = `{
  "solcLongVersion": "0.8.19+commit.7dd6d404",
  "input": {"language": "Solidity"},
  "output": {"contracts": {"contracts/Other.sol": {"Other": {}}}}
}`

func writeBuildInfo(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadBuildInfoFindsContract(t *testing.T) {
	dir := t.TempDir()
	writeBuildInfo(t, dir, "0a.json", otherBuildInfo)
	writeBuildInfo(t, dir, "1b.json", tokenBuildInfo)

	bi, err := LoadBuildInfo(dir, "contracts/BitxelRoadsToken.sol", "BitxelRoadsToken")
	require.NoError(t, err)
	assert.Equal(t, "v0.8.20+commit.a1b79de6", bi.CompilerVersion())
	assert.Equal(t, "0.8.20", bi.SolcVersion)
	assert.Contains(t, string(bi.Input), `"language": "Solidity"`)
	assert.Equal(t, filepath.Join(dir, "1b.json"), bi.Path)

	opt, err := bi.Optimizer()
	require.NoError(t, err)
	assert.Equal(t, Optimizer{Enabled: true, Runs: 200}, opt)
}

func TestLoadBuildInfoNotFound(t *testing.T) {
	dir := t.TempDir()
	writeBuildInfo(t, dir, "0a.json", otherBuildInfo)

	_, err := LoadBuildInfo(dir, "contracts/BitxelRoadsToken.sol", "BitxelRoadsToken")
	require.ErrorIs(t, err, ErrBuildInfoNotFound)

	_, err = LoadBuildInfo(filepath.Join(dir, "missing"), "a", "b")
	require.ErrorIs(t, err, ErrBuildInfoNotFound)
}

func TestLoadBuildInfoMalformed(t *testing.T) {
	dir := t.TempDir()
	writeBuildInfo(t, dir, "bad.json", "{not json")

	_, err := LoadBuildInfo(dir, "contracts/BitxelRoadsToken.sol", "BitxelRoadsToken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing build-info bad.json")
}
