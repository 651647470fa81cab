package enums

import "fmt"

// CoinTransactionKind distinguishes ledger entries on a shopper wallet.
type CoinTransactionKind string

const (
	CoinTransactionKindEarn  CoinTransactionKind = "earn"
	CoinTransactionKindSpend CoinTransactionKind = "spend"
)

var validCoinTransactionKinds = []CoinTransactionKind{
	CoinTransactionKindEarn,
	CoinTransactionKindSpend,
}

// String implements fmt.Stringer.
func (k CoinTransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CoinTransactionKind.
func (k CoinTransactionKind) IsValid() bool {
	for _, candidate := range validCoinTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCoinTransactionKind converts raw input into a CoinTransactionKind.
func ParseCoinTransactionKind(value string) (CoinTransactionKind, error) {
	for _, candidate := range validCoinTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coin transaction kind %q", value)
}
