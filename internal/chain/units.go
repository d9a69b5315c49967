package chain

import (
	"fmt"
	"math/big"
	"strings"
)

// EtherDecimals is the number of decimals of ether and of most ERC-20 tokens.
const EtherDecimals = 18

// FormatEther renders wei as a decimal ether string, e.g. "1.5" or "1000.0".
func FormatEther(wei *big.Int) string { return FormatUnits(wei, EtherDecimals) }

// FormatUnits renders v scaled down by 10^decimals. The fraction has trailing
// zeros trimmed but always keeps at least one digit.
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		v = new(big.Int)
	}
	digits := new(big.Int).Abs(v).String()
	d := int(decimals)
	if len(digits) <= d {
		digits = strings.Repeat("0", d-len(digits)+1) + digits
	}

	whole, frac := digits[:len(digits)-d], strings.TrimRight(digits[len(digits)-d:], "0")
	if frac == "" {
		frac = "0"
	}

	out := whole + "." + frac
	if v.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// ParseEther parses a decimal ether amount into wei.
func ParseEther(s string) (*big.Int, error) { return ParseUnits(s, EtherDecimals) }

// ParseUnits parses a decimal string such as "1000" or "0.25" into an integer
// scaled by 10^decimals. Fractions finer than the token supports are rejected.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	raw := strings.TrimSpace(s)
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid amount %q", s)
	}

	d := int(decimals)
	if len(frac) > d {
		if strings.Trim(frac[d:], "0") != "" {
			return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
		}
		frac = frac[:d]
	}
	frac += strings.Repeat("0", d-len(frac))

	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
