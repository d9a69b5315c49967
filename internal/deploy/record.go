package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bitxelroads/btrd/internal/config"
)

// TimestampLayout renders deployment dates as ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Record is the JSON summary written once per deployment.
type Record struct {
	Network        string `json:"network"`
	TokenAddress   string `json:"tokenAddress"`
	Owner          string `json:"owner"`
	DeploymentDate string `json:"deploymentDate"`
	TotalSupply    string `json:"totalSupply"`
}

// DeployedAt parses DeploymentDate.
func (r *Record) DeployedAt() (time.Time, error) {
	return time.Parse(TimestampLayout, r.DeploymentDate)
}

// FormatTimestamp formats t the way records store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// RecordFileName is the default record file for a network:
// deployment-sepolia-info.json for Base Sepolia, deployment-mainnet-info.json
// for Base mainnet, deployment-<network>-info.json otherwise.
func RecordFileName(network string) string {
	suffix := network
	switch network {
	case config.NetworkBaseSepolia:
		suffix = "sepolia"
	case config.NetworkBaseMainnet:
		suffix = "mainnet"
	}
	return "deployment-" + suffix + "-info.json"
}

// WriteRecord writes rec to path as 2-space indented JSON.
func WriteRecord(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding deployment record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing deployment record: %w", err)
	}
	return nil
}

// ReadRecord loads a record written by WriteRecord.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deployment record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing deployment record %s: %w", path, err)
	}
	if rec.TokenAddress == "" {
		return nil, fmt.Errorf("deployment record %s has no tokenAddress", path)
	}
	return &rec, nil
}
