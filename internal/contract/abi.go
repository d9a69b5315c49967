package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// ABIEntry is a single entry of a contract ABI.
type ABIEntry struct {
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Signature returns the canonical signature, e.g. "transfer(address,uint256)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.Type
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector as 0x-prefixed hex. Events
// are identified by the full 32-byte topic instead.
func (e ABIEntry) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(e.Signature()))
	sum := h.Sum(nil)
	if e.Type == "event" {
		return "0x" + hex.EncodeToString(sum)
	}
	return "0x" + hex.EncodeToString(sum[:4])
}

// ToEthABI converts entries into a go-ethereum ABI for packing and unpacking.
func ToEthABI(entries []ABIEntry) (abi.ABI, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("encoding ABI: %w", err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing ABI: %w", err)
	}
	return parsed, nil
}

// FindFunction returns the function entry named name, or nil.
func FindFunction(entries []ABIEntry, name string) *ABIEntry {
	for i := range entries {
		if entries[i].Type == "function" && entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}

func parseABI(data []byte) ([]ABIEntry, error) {
	var entries []ABIEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			return nil, fmt.Errorf("ABI is a JSON object, not an array: a Hardhat/Foundry artifact must carry it under an \"abi\" key")
		}
		return nil, fmt.Errorf("invalid ABI JSON: %w", err)
	}
	return entries, nil
}

// validateABI checks that the parsed ABI has at least one callable entry.
func validateABI(entries []ABIEntry, path string) error {
	if len(entries) == 0 {
		return fmt.Errorf("ABI is empty: %s", path)
	}
	for _, e := range entries {
		if e.Type == "function" || e.Type == "event" || e.Type == "constructor" {
			return nil
		}
	}
	return fmt.Errorf("ABI has %d entries but none are functions or events: %s", len(entries), path)
}
