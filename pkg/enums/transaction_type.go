package enums

import "fmt"

// TransactionType maps to the CHECK-constrained type column on
// stock_transactions.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeDistribute TransactionType = "DISTRIBUTE"
	TransactionTypeDispose    TransactionType = "DISPOSE"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeDeposit,
	TransactionTypeDistribute,
	TransactionTypeDispose,
}

// TransactionTypeValues lists the canonical movement types in declaration order.
func TransactionTypeValues() []TransactionType {
	out := make([]TransactionType, len(validTransactionTypes))
	copy(out, validTransactionTypes)
	return out
}

// IsValid reports whether the value matches the canonical transaction enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Delta returns the signed quantity change a movement of this type applies.
// Deposits add stock; distributions and disposals remove it.
func (t TransactionType) Delta(quantity int) int {
	if t == TransactionTypeDeposit {
		return quantity
	}
	return -quantity
}

// RemovesStock reports whether the movement is subject to the overdraw check.
func (t TransactionType) RemovesStock() bool {
	return t == TransactionTypeDistribute || t == TransactionTypeDispose
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
