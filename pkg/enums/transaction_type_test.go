package enums

import "testing"

func TestTransactionTypeIsValid(t *testing.T) {
	for _, typ := range TransactionTypeValues() {
		if !typ.IsValid() {
			t.Fatalf("expected %s to be valid", typ)
		}
	}
	if TransactionType("WITHDRAW").IsValid() {
		t.Fatal("unexpected valid unknown type")
	}
	if TransactionType("deposit").IsValid() {
		t.Fatal("transaction types are case sensitive")
	}
}

func TestTransactionTypeDelta(t *testing.T) {
	if got := TransactionTypeDeposit.Delta(50); got != 50 {
		t.Fatalf("deposit delta = %d, want 50", got)
	}
	if got := TransactionTypeDistribute.Delta(30); got != -30 {
		t.Fatalf("distribute delta = %d, want -30", got)
	}
	if got := TransactionTypeDispose.Delta(20); got != -20 {
		t.Fatalf("dispose delta = %d, want -20", got)
	}
}

func TestTransactionTypeRemovesStock(t *testing.T) {
	if TransactionTypeDeposit.RemovesStock() {
		t.Fatal("deposit must not be overdraw-checked")
	}
	if !TransactionTypeDistribute.RemovesStock() || !TransactionTypeDispose.RemovesStock() {
		t.Fatal("distribute and dispose must be overdraw-checked")
	}
}

func TestParseTransactionType(t *testing.T) {
	typ, err := ParseTransactionType("DISPOSE")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if typ != TransactionTypeDispose {
		t.Fatalf("unexpected type %s", typ)
	}
	if _, err := ParseTransactionType("SHRED"); err == nil {
		t.Fatal("expected parse error")
	}
}
