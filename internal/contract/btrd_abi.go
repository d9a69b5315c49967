package contract

// BTRDBuiltinID is the registry key of the BitxelRoads token ABI.
const BTRDBuiltinID = "btrd"

// BitxelRoadsToken is OpenZeppelin v5 ERC20 + ERC20Burnable +
// ERC20Pausable + Ownable, solc 0.8.20 with the optimizer at 200 runs. The
// whole supply is minted to the constructor's initialOwner.
//
// Function selectors:
//
//	name()               → 0x06fdde03
//	symbol()             → 0x95d89b41
//	decimals()           → 0x313ce567
//	totalSupply()        → 0x18160ddd
//	balanceOf(address)   → 0x70a08231
//	allowance(a,a)       → 0xdd62ed3e
//	transfer(a,u256)     → 0xa9059cbb
//	approve(a,u256)      → 0x095ea7b3
//	transferFrom(a,a,u)  → 0x23b872dd
//	burn(u256)           → 0x42966c68
//	burnFrom(a,u256)     → 0x79cc6790
//	pause()              → 0x8456cb59
//	unpause()            → 0x3f4ba83a
//	paused()             → 0x5c975abb
//	owner()              → 0x8da5cb5b
//	transferOwnership(a) → 0xf2fde38b
//	renounceOwnership()  → 0x715018a6
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:           BTRDBuiltinID,
		Name:         "BitxelRoadsToken (BTRD)",
		SourceName:   "contracts/BitxelRoadsToken.sol",
		ContractName: "BitxelRoadsToken",
		ABI:          btrdABI,
	})
}

var btrdABI = []ABIEntry{
	{
		Type:            "constructor",
		Inputs:          []ABIParam{{Name: "initialOwner", Type: "address"}},
		StateMutability: "nonpayable",
	},

	// ── ERC-20 read ──────────────────────────────────────────────────────────
	{
		Name: "name", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "symbol", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "string"}},
		StateMutability: "view",
	},
	{
		Name: "decimals", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint8"}},
		StateMutability: "view",
	},
	{
		Name: "totalSupply", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "balanceOf", Type: "function",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "allowance", Type: "function",
		Inputs: []ABIParam{
			{Name: "owner", Type: "address"},
			{Name: "spender", Type: "address"},
		},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},

	// ── ERC-20 write ─────────────────────────────────────────────────────────
	{
		Name: "transfer", Type: "function",
		Inputs: []ABIParam{
			{Name: "to", Type: "address"},
			{Name: "value", Type: "uint256"},
		},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "approve", Type: "function",
		Inputs: []ABIParam{
			{Name: "spender", Type: "address"},
			{Name: "value", Type: "uint256"},
		},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "transferFrom", Type: "function",
		Inputs: []ABIParam{
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "value", Type: "uint256"},
		},
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "nonpayable",
	},

	// ── Burnable ─────────────────────────────────────────────────────────────
	{
		Name: "burn", Type: "function",
		Inputs:          []ABIParam{{Name: "value", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "burnFrom", Type: "function",
		Inputs: []ABIParam{
			{Name: "account", Type: "address"},
			{Name: "value", Type: "uint256"},
		},
		StateMutability: "nonpayable",
	},

	// ── Pausable ─────────────────────────────────────────────────────────────
	{Name: "pause", Type: "function", StateMutability: "nonpayable"},
	{Name: "unpause", Type: "function", StateMutability: "nonpayable"},
	{
		Name: "paused", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "bool"}},
		StateMutability: "view",
	},

	// ── Ownable ──────────────────────────────────────────────────────────────
	{
		Name: "owner", Type: "function",
		Outputs:         []ABIParam{{Name: "", Type: "address"}},
		StateMutability: "view",
	},
	{
		Name: "transferOwnership", Type: "function",
		Inputs:          []ABIParam{{Name: "newOwner", Type: "address"}},
		StateMutability: "nonpayable",
	},
	{Name: "renounceOwnership", Type: "function", StateMutability: "nonpayable"},

	// ── Events ───────────────────────────────────────────────────────────────
	{
		Name: "Transfer", Type: "event",
		Inputs: []ABIParam{
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "value", Type: "uint256"},
		},
	},
	{
		Name: "Approval", Type: "event",
		Inputs: []ABIParam{
			{Name: "owner", Type: "address", Indexed: true},
			{Name: "spender", Type: "address", Indexed: true},
			{Name: "value", Type: "uint256"},
		},
	},
	{
		Name: "Paused", Type: "event",
		Inputs: []ABIParam{{Name: "account", Type: "address"}},
	},
	{
		Name: "Unpaused", Type: "event",
		Inputs: []ABIParam{{Name: "account", Type: "address"}},
	},
	{
		Name: "OwnershipTransferred", Type: "event",
		Inputs: []ABIParam{
			{Name: "previousOwner", Type: "address", Indexed: true},
			{Name: "newOwner", Type: "address", Indexed: true},
		},
	},
}

// BTRD returns the built-in BitxelRoads token descriptor.
func BTRD() BuiltinKind {
	b, _ := GetBuiltin(BTRDBuiltinID)
	return b
}
