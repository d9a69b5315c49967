// Package fixtures holds compiled-contract fixtures shared by package tests
// and the binary-level tests.
package fixtures

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitxelroads/btrd/internal/contract"
)

// Names of the fixture contract.
const (
	SourceName   = "contracts/BitxelRoadsToken.sol"
	ContractName = "BitxelRoadsToken"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// ArtifactPath is the Hardhat artifact of the token.
func ArtifactPath() string {
	return filepath.Join(fixturesDir(), "artifacts", ContractName+".json")
}

// BuildInfoDir is the Hardhat build-info directory holding the token's build.
func BuildInfoDir() string {
	return filepath.Join(fixturesDir(), "build-info")
}

// LoadArtifact parses the token artifact.
func LoadArtifact(t *testing.T) *contract.Artifact {
	t.Helper()
	art, err := contract.LoadArtifact(ArtifactPath())
	require.NoError(t, err, "failed to load fixture artifact")
	return art
}

// Project lays the fixtures out under dir the way a Hardhat project does:
// artifacts/contracts/BitxelRoadsToken.sol/BitxelRoadsToken.json and
// artifacts/build-info/*.json. It returns dir.
func Project(t *testing.T, dir string) string {
	t.Helper()

	artDir := filepath.Join(dir, "artifacts", "contracts", ContractName+".sol")
	require.NoError(t, os.MkdirAll(artDir, 0o755))
	copyFile(t, ArtifactPath(), filepath.Join(artDir, ContractName+".json"))

	biDir := filepath.Join(dir, "artifacts", "build-info")
	require.NoError(t, os.MkdirAll(biDir, 0o755))
	entries, err := os.ReadDir(BuildInfoDir())
	require.NoError(t, err)
	for _, e := range entries {
		copyFile(t, filepath.Join(BuildInfoDir(), e.Name()), filepath.Join(biDir, e.Name()))
	}
	return dir
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}
