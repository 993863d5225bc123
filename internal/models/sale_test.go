package models

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSaleItemRecalculate(t *testing.T) {
	item := SaleItem{Quantity: 3, UnitPrice: 100, Discount: 10, TaxRate: 10}
	item.Recalculate()
	if !almostEqual(item.TotalPrice, 319.0) {
		t.Fatalf("TotalPrice = %v, want 319.0", item.TotalPrice)
	}
}

func TestSaleItemRecalculateNoTaxNoDiscount(t *testing.T) {
	item := SaleItem{Quantity: 2, UnitPrice: 12.5}
	item.Recalculate()
	if !almostEqual(item.TotalPrice, 25.0) {
		t.Fatalf("TotalPrice = %v, want 25.0", item.TotalPrice)
	}
}

func TestSaleItemRecalculateClampsNegativeDiscount(t *testing.T) {
	item := SaleItem{Quantity: 1, UnitPrice: 50, Discount: -20}
	item.Recalculate()
	if item.Discount != 0 {
		t.Errorf("Discount = %v, want 0", item.Discount)
	}
	if !almostEqual(item.TotalPrice, 50.0) {
		t.Errorf("TotalPrice = %v, want 50.0", item.TotalPrice)
	}
}

func TestSaleItemRecalculateClampsTaxRate(t *testing.T) {
	item := SaleItem{Quantity: 1, UnitPrice: 100, TaxRate: 150}
	item.Recalculate()
	if item.TaxRate != 100 {
		t.Errorf("TaxRate = %v, want 100", item.TaxRate)
	}
	if !almostEqual(item.TotalPrice, 200.0) {
		t.Errorf("TotalPrice = %v, want 200.0", item.TotalPrice)
	}

	item = SaleItem{Quantity: 1, UnitPrice: 100, TaxRate: -5}
	item.Recalculate()
	if item.TaxRate != 0 {
		t.Errorf("negative TaxRate = %v, want 0", item.TaxRate)
	}
}

func TestSaleRecalculateTotalsFromItems(t *testing.T) {
	sale := Sale{
		DiscountAmount: 5,
		TaxAmount:      2,
		Items: []SaleItem{
			{Quantity: 2, UnitPrice: 10},
			{Quantity: 1, UnitPrice: 30},
		},
	}
	sale.RecalculateTotals()

	if !almostEqual(sale.Subtotal, 50.0) {
		t.Errorf("Subtotal = %v, want 50.0", sale.Subtotal)
	}
	if !almostEqual(sale.TotalAmount, 47.0) {
		t.Errorf("TotalAmount = %v, want 47.0", sale.TotalAmount)
	}
}

func TestSaleRecalculateTotalsKeepsSubtotalWithoutItems(t *testing.T) {
	sale := Sale{Subtotal: 80, DiscountAmount: 10, TaxAmount: 5}
	sale.RecalculateTotals()

	if !almostEqual(sale.Subtotal, 80.0) {
		t.Errorf("Subtotal = %v, want unchanged 80.0", sale.Subtotal)
	}
	if !almostEqual(sale.TotalAmount, 75.0) {
		t.Errorf("TotalAmount = %v, want 75.0", sale.TotalAmount)
	}
}

func TestSaleRecalculateTotalsClampsHeaderAmounts(t *testing.T) {
	sale := Sale{Subtotal: 100, DiscountAmount: -3, TaxAmount: -7}
	sale.RecalculateTotals()

	if sale.DiscountAmount != 0 || sale.TaxAmount != 0 {
		t.Errorf("clamped amounts = %v/%v, want 0/0", sale.DiscountAmount, sale.TaxAmount)
	}
	if !almostEqual(sale.TotalAmount, 100.0) {
		t.Errorf("TotalAmount = %v, want 100.0", sale.TotalAmount)
	}
}
