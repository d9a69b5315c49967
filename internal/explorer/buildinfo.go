package explorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrBuildInfoNotFound is returned when no build-info file contains the
// requested contract.
var ErrBuildInfoNotFound = errors.New("build-info not found")

// BuildInfo is one Hardhat artifacts/build-info/<hash>.json file.
type BuildInfo struct {
	Path            string          `json:"-"`
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
	Output          struct {
		Contracts map[string]map[string]json.RawMessage `json:"contracts"`
	} `json:"output"`
}

// Optimizer is the optimizer section of the solc input settings.
type Optimizer struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// CompilerVersion returns the version string explorers expect,
// e.g. "v0.8.20+commit.a1b79de6".
func (b *BuildInfo) CompilerVersion() string {
	return "v" + b.SolcLongVersion
}

// Optimizer returns the optimizer settings the contract was compiled with.
func (b *BuildInfo) Optimizer() (Optimizer, error) {
	var in struct {
		Settings struct {
			Optimizer Optimizer `json:"optimizer"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(b.Input, &in); err != nil {
		return Optimizer{}, fmt.Errorf("parsing compiler input: %w", err)
	}
	return in.Settings.Optimizer, nil
}

// LoadBuildInfo scans dir for the build that produced sourceName:contractName.
// Files are checked in name order; the first match wins.
func LoadBuildInfo(dir, sourceName, contractName string) (*BuildInfo, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing build-info: %w", err)
	}
	sort.Strings(paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading build-info: %w", err)
		}
		var bi BuildInfo
		if err := json.Unmarshal(data, &bi); err != nil {
			return nil, fmt.Errorf("parsing build-info %s: %w", filepath.Base(p), err)
		}
		if _, ok := bi.Output.Contracts[sourceName][contractName]; !ok {
			continue
		}
		if bi.SolcLongVersion == "" || len(bi.Input) == 0 {
			return nil, fmt.Errorf("build-info %s is missing solcLongVersion or input", filepath.Base(p))
		}
		bi.Path = p
		return &bi, nil
	}
	return nil, fmt.Errorf("%w for %s:%s in %s", ErrBuildInfoNotFound, sourceName, contractName, dir)
}
