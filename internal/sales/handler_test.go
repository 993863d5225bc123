package sales

import (
	"math"
	"testing"
	"time"

	"backoffice-backend/internal/models"
)

func fptr(v float64) *float64 { return &v }

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestApplyHeaderAmountsKeepsOmittedAmounts(t *testing.T) {
	sale := models.Sale{DiscountAmount: 12, TaxAmount: 3}
	req := SaleRequest{Notes: "table moved"}

	applyHeaderAmounts(&sale, req)

	if !closeTo(sale.DiscountAmount, 12) {
		t.Errorf("DiscountAmount = %v, want 12 preserved", sale.DiscountAmount)
	}
	if !closeTo(sale.TaxAmount, 3) {
		t.Errorf("TaxAmount = %v, want 3 preserved", sale.TaxAmount)
	}
}

func TestApplyHeaderAmountsOverridesWhenPresent(t *testing.T) {
	sale := models.Sale{DiscountAmount: 12, TaxAmount: 3}
	req := SaleRequest{DiscountAmount: fptr(5), TaxAmount: fptr(0)}

	applyHeaderAmounts(&sale, req)

	if !closeTo(sale.DiscountAmount, 5) {
		t.Errorf("DiscountAmount = %v, want 5", sale.DiscountAmount)
	}
	if !closeTo(sale.TaxAmount, 0) {
		t.Errorf("TaxAmount = %v, want explicit zero to stick", sale.TaxAmount)
	}
}

func TestApplyItemPricingKeepsOmittedFields(t *testing.T) {
	item := models.SaleItem{Quantity: 3, UnitPrice: 10, Discount: 2, TaxRate: 5}

	if err := applyItemPricing(&item, SaleItemRequest{}); err != nil {
		t.Fatalf("applyItemPricing: %v", err)
	}

	if !closeTo(item.Discount, 2) {
		t.Errorf("Discount = %v, want 2 preserved", item.Discount)
	}
	if !closeTo(item.TaxRate, 5) {
		t.Errorf("TaxRate = %v, want 5 preserved", item.TaxRate)
	}
	if !closeTo(item.TotalPrice, 29.4) {
		t.Errorf("TotalPrice = %v, want 29.4", item.TotalPrice)
	}
}

func TestApplyItemPricingOverridesWhenPresent(t *testing.T) {
	item := models.SaleItem{Quantity: 2, UnitPrice: 10, Discount: 4, TaxRate: 10}

	req := SaleItemRequest{UnitPrice: fptr(8), Discount: fptr(0), TaxRate: fptr(0)}
	if err := applyItemPricing(&item, req); err != nil {
		t.Fatalf("applyItemPricing: %v", err)
	}

	if !closeTo(item.TotalPrice, 16) {
		t.Errorf("TotalPrice = %v, want 16", item.TotalPrice)
	}
}

func TestApplyItemPricingRejectsNegativeUnitPrice(t *testing.T) {
	item := models.SaleItem{Quantity: 1, UnitPrice: 10}

	if err := applyItemPricing(&item, SaleItemRequest{UnitPrice: fptr(-1)}); err == nil {
		t.Error("expected an error for a negative unit_price")
	}
	if !closeTo(item.UnitPrice, 10) {
		t.Errorf("UnitPrice = %v, want 10 untouched after rejection", item.UnitPrice)
	}
}

func TestStartOfDayKeepsLocation(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2024, 3, 10, 23, 30, 0, 0, zone)

	got := startOfDay(late)
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, zone)
	if !got.Equal(want) {
		t.Errorf("startOfDay = %v, want %v", got, want)
	}
	if got.Location() != zone {
		t.Errorf("location = %v, want the input zone", got.Location())
	}
}
