package contract

import "sort"

// BuiltinKind describes a contract whose ABI is compiled into the binary.
// New built-ins register themselves from init() in their own file.
type BuiltinKind struct {
	ID           string // machine key, e.g. "btrd"
	Name         string // human label
	SourceName   string // Hardhat source path, e.g. "contracts/BitxelRoadsToken.sol"
	ContractName string
	ABI          []ABIEntry
}

// FullyQualifiedName is the "<source>:<contract>" form explorers expect.
func (b BuiltinKind) FullyQualifiedName() string {
	return b.SourceName + ":" + b.ContractName
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI to the registry.
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
