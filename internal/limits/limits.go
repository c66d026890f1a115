package limits

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Policy is the per-asset withdrawal envelope for one user at one moment.
// DailyRemaining already accounts for the user's trailing-24h usage.
type Policy struct {
	MinAmount      decimal.Decimal `json:"min_amount"`
	MaxAmount      decimal.Decimal `json:"max_amount"`
	FeeAmount      decimal.Decimal `json:"fee_amount"`
	DailyLimit     decimal.Decimal `json:"daily_limit"`
	DailyRemaining decimal.Decimal `json:"daily_remaining"`
}

// AssetSpec carries the chain-facing parameters for one supported asset.
type AssetSpec struct {
	Symbol                string
	Network               string
	AddressPrefix         string
	AddressLength         int
	RequiredConfirmations int
	// Deposits below this are not credited automatically and must be claimed.
	AutoCreditThreshold decimal.Decimal
}

type assetLimits struct {
	min        decimal.Decimal
	max        decimal.Decimal
	fee        decimal.Decimal
	dailyLimit decimal.Decimal
}

var assetTable = map[string]assetLimits{
	"USDT": {
		min:        decimal.NewFromInt(10),
		max:        decimal.NewFromInt(25000),
		fee:        decimal.NewFromInt(1),
		dailyLimit: decimal.NewFromInt(50000),
	},
	"USDC": {
		min:        decimal.NewFromInt(10),
		max:        decimal.NewFromInt(25000),
		fee:        decimal.NewFromInt(1),
		dailyLimit: decimal.NewFromInt(50000),
	},
	"ETH": {
		min:        decimal.NewFromFloat(0.01),
		max:        decimal.NewFromInt(10),
		fee:        decimal.NewFromFloat(0.002),
		dailyLimit: decimal.NewFromInt(20),
	},
	"BTC": {
		min:        decimal.NewFromFloat(0.001),
		max:        decimal.NewFromFloat(0.5),
		fee:        decimal.NewFromFloat(0.0002),
		dailyLimit: decimal.NewFromInt(1),
	},
}

// defaultLimits is the conservative fallback for assets not in the table.
// Unknown assets never get "no limit".
var defaultLimits = assetLimits{
	min:        decimal.NewFromInt(10),
	max:        decimal.NewFromInt(1000),
	fee:        decimal.NewFromInt(1),
	dailyLimit: decimal.NewFromInt(2000),
}

var specTable = map[string]AssetSpec{
	"USDT": {Symbol: "USDT", Network: "polygon", AddressPrefix: "0x", AddressLength: 42, RequiredConfirmations: 15, AutoCreditThreshold: decimal.NewFromInt(1)},
	"USDC": {Symbol: "USDC", Network: "polygon", AddressPrefix: "0x", AddressLength: 42, RequiredConfirmations: 15, AutoCreditThreshold: decimal.NewFromInt(1)},
	"ETH":  {Symbol: "ETH", Network: "ethereum", AddressPrefix: "0x", AddressLength: 42, RequiredConfirmations: 12, AutoCreditThreshold: decimal.NewFromFloat(0.001)},
	"BTC":  {Symbol: "BTC", Network: "bitcoin", AddressPrefix: "bc1", AddressLength: 42, RequiredConfirmations: 3, AutoCreditThreshold: decimal.NewFromFloat(0.0001)},
}

var defaultSpec = AssetSpec{
	Network:               "polygon",
	AddressPrefix:         "0x",
	AddressLength:         42,
	RequiredConfirmations: 15,
	AutoCreditThreshold:   decimal.NewFromInt(1),
}

// For computes the withdrawal policy for asset given the user's trailing-24h
// gross usage. Pure: same inputs always give the same policy.
func For(asset string, dailyUsed decimal.Decimal) Policy {
	l, ok := assetTable[strings.ToUpper(asset)]
	if !ok {
		l = defaultLimits
	}
	remaining := l.dailyLimit.Sub(dailyUsed)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return Policy{
		MinAmount:      l.min,
		MaxAmount:      l.max,
		FeeAmount:      l.fee,
		DailyLimit:     l.dailyLimit,
		DailyRemaining: remaining,
	}
}

// Spec returns the chain parameters for asset, falling back to a conservative
// default for unknown symbols.
func Spec(asset string) AssetSpec {
	s, ok := specTable[strings.ToUpper(asset)]
	if !ok {
		s = defaultSpec
		s.Symbol = strings.ToUpper(asset)
	}
	return s
}

// ValidAddress checks destination well-formedness for the asset's network:
// non-empty, expected prefix, expected length. Checksum verification belongs
// to the custody service that ultimately signs the transaction.
func ValidAddress(asset, address string) bool {
	if address == "" {
		return false
	}
	s := Spec(asset)
	if !strings.HasPrefix(address, s.AddressPrefix) {
		return false
	}
	return len(address) == s.AddressLength
}
