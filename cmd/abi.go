package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"

	"github.com/bitxelroads/btrd/internal/contract"
	"github.com/bitxelroads/btrd/internal/ui"
)

var abiCmd = &cobra.Command{
	Use:   "abi [name | selector | signature]",
	Short: "Show the token's functions, events and selectors",
	Long: `List the functions and events of the built-in BitxelRoadsToken ABI with
their selectors, filter them by name, look up a 4-byte selector, or compute
the selector of any signature.

Examples:
  btrd abi                                   # everything
  btrd abi burnFrom                          # entries named burnFrom
  btrd abi 0x79cc6790                        # → burnFrom(address,uint256)
  btrd abi "transfer(address to, uint256 amount)"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		entries := contract.BTRD().ABI

		query := ""
		if len(args) == 1 {
			query = strings.TrimSpace(args[0])
		}

		// A full signature: compute its selector.
		if strings.Contains(query, "(") {
			sig := normalizeSignature(query)
			h := sha3.NewLegacyKeccak256()
			h.Write([]byte(sig))
			hash := h.Sum(nil)
			fmt.Fprintln(out, ui.KeyValueBlock("Function Selector", [][2]string{
				{"Signature", sig},
				{"Selector", ui.Val("0x" + hex.EncodeToString(hash[:4]))},
				{"Full Hash", "0x" + hex.EncodeToString(hash)},
			}))
			return nil
		}

		t := ui.NewTable("TYPE", "SIGNATURE", "SELECTOR", "MUTABILITY")
		for _, e := range entries {
			if e.Type != "function" && e.Type != "event" {
				continue
			}
			if !abiEntryMatches(e, query) {
				continue
			}
			t.AddRow(e.Type, e.Signature(), ui.Val(e.Selector()), e.StateMutability)
		}
		if len(t.Rows) == 0 {
			return fmt.Errorf("no ABI entry matches %q", query)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

// abiEntryMatches matches by name (case-insensitive) or selector prefix.
func abiEntryMatches(e contract.ABIEntry, query string) bool {
	if query == "" {
		return true
	}
	if strings.HasPrefix(query, "0x") || strings.HasPrefix(query, "0X") {
		return strings.HasPrefix(e.Selector(), strings.ToLower(query))
	}
	return strings.EqualFold(e.Name, query)
}

// normalizeSignature removes parameter names, keeping only types.
// "transfer(address to, uint256 amount)" → "transfer(address,uint256)"
func normalizeSignature(sig string) string {
	parenIdx := strings.Index(sig, "(")
	if parenIdx < 0 {
		return sig
	}
	name := strings.TrimSpace(sig[:parenIdx])
	paramStr := strings.TrimSuffix(strings.TrimSpace(sig[parenIdx+1:]), ")")
	if strings.TrimSpace(paramStr) == "" {
		return name + "()"
	}

	var types []string
	for _, p := range strings.Split(paramStr, ",") {
		// Take only the first word (the type), skip the name.
		if parts := strings.Fields(p); len(parts) > 0 {
			types = append(types, parts[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}
