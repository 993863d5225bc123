package inventory

import (
	"testing"

	"backoffice-backend/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestApplyTaxAmountKeepsOmittedTax(t *testing.T) {
	entry := models.Entry{TaxAmount: 18}

	if err := applyTaxAmount(&entry, EntryRequest{Notes: "recount"}); err != nil {
		t.Fatalf("applyTaxAmount: %v", err)
	}
	if entry.TaxAmount != 18 {
		t.Errorf("TaxAmount = %v, want 18 preserved", entry.TaxAmount)
	}
}

func TestApplyTaxAmountSetsWhenPresent(t *testing.T) {
	entry := models.Entry{TaxAmount: 18}

	if err := applyTaxAmount(&entry, EntryRequest{TaxAmount: fptr(0)}); err != nil {
		t.Fatalf("applyTaxAmount: %v", err)
	}
	if entry.TaxAmount != 0 {
		t.Errorf("TaxAmount = %v, want explicit zero to stick", entry.TaxAmount)
	}
}

func TestApplyTaxAmountRejectsNegative(t *testing.T) {
	entry := models.Entry{TaxAmount: 18}

	if err := applyTaxAmount(&entry, EntryRequest{TaxAmount: fptr(-4)}); err == nil {
		t.Error("expected an error for a negative tax_amount")
	}
	if entry.TaxAmount != 18 {
		t.Errorf("TaxAmount = %v, want 18 untouched after rejection", entry.TaxAmount)
	}
}
