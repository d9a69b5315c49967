package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact holds what deployment needs from a compiled contract.
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          []ABIEntry
	RawABI       json.RawMessage
	Bytecode     []byte // creation bytecode
}

// FullyQualifiedName is the "<source>:<contract>" form explorers expect.
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// EthABI parses the artifact's ABI with go-ethereum.
func (a *Artifact) EthABI() (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.RawABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing artifact ABI: %w", err)
	}
	return parsed, nil
}

// LoadArtifact reads a Hardhat or Foundry artifact JSON file. It fails when
// the file has no ABI array or no creation bytecode (interfaces, abstract
// contracts).
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("artifact file is empty: %s", path)
	}
	return ParseArtifact(data, path)
}

// ParseArtifact parses artifact JSON; path is only used in error messages.
func ParseArtifact(data []byte, path string) (*Artifact, error) {
	var raw struct {
		ContractName string          `json:"contractName"`
		SourceName   string          `json:"sourceName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}

	if len(raw.ABI) < 2 || raw.ABI[0] != '[' {
		return nil, fmt.Errorf("artifact has no \"abi\" array: %s", path)
	}
	entries, err := parseABI(raw.ABI)
	if err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}
	if err := validateABI(entries, path); err != nil {
		return nil, err
	}

	if len(raw.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact has no bytecode, cannot deploy an interface or abstract contract: %s", path)
	}
	bcHex, err := extractBytecodeHex(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("extracting bytecode from artifact: %w", err)
	}
	bcHex = strings.TrimPrefix(bcHex, "0x")
	if bcHex == "" {
		return nil, fmt.Errorf("artifact bytecode is empty, cannot deploy an interface or abstract contract: %s", path)
	}
	if strings.Contains(bcHex, "__") {
		return nil, fmt.Errorf("artifact bytecode has unlinked library placeholders: %s", path)
	}
	code, err := hex.DecodeString(bcHex)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex in artifact: %w", err)
	}

	return &Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		ABI:          entries,
		RawABI:       raw.ABI,
		Bytecode:     code,
	}, nil
}

// extractBytecodeHex handles the two common artifact formats:
//   - Hardhat:  "bytecode": "0x608060..."
//   - Foundry:  "bytecode": {"object": "0x608060..."}
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Object != "" {
		return strings.TrimSpace(obj.Object), nil
	}

	return "", fmt.Errorf("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}
