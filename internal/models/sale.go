package models

import (
	"time"

	"gorm.io/gorm"
)

// Sale: a point-of-sale transaction. Completing a sale decrements stock
// for every line, atomically or not at all.
type Sale struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Reference         string     `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	CustomerID        *uint      `gorm:"index" json:"customer_id"`
	Customer          *Customer  `json:"customer,omitempty"`
	SaleDate          time.Time  `gorm:"index;not null" json:"sale_date"`
	Subtotal          float64    `gorm:"not null;default:0" json:"subtotal"`
	DiscountAmount    float64    `gorm:"not null;default:0" json:"discount_amount"`
	TaxAmount         float64    `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount       float64    `gorm:"not null;default:0" json:"total_amount"`
	PaymentMethodCode string     `gorm:"size:20;index;not null" json:"payment_method"`
	PaymentStatusCode string     `gorm:"size:20;index;not null;default:pending" json:"payment_status"`
	StatusCode        string     `gorm:"size:20;index;not null;default:pending" json:"status"`
	Notes             string     `gorm:"size:500" json:"notes"`
	TableNumber       string     `gorm:"size:20" json:"table_number"`
	IsTakeAway        bool       `gorm:"default:false" json:"is_take_away"`
	CustomerName      string     `gorm:"size:200" json:"customer_name"`
	CustomerPhone     string     `gorm:"size:20" json:"customer_phone"`
	Items             []SaleItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	AuditFields
}

type SaleItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	SaleID      uint    `gorm:"index;not null" json:"sale_id"`
	ProductID   uint    `gorm:"index;not null" json:"product_id"`
	Product     Product `json:"product,omitempty"`
	ProductName string  `gorm:"size:200;not null" json:"product_name"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	Discount    float64 `gorm:"not null;default:0" json:"discount"`
	TaxRate     float64 `gorm:"not null;default:0" json:"tax_rate"`
	TotalPrice  float64 `gorm:"not null" json:"total_price"`
	AuditFields
}

// Recalculate clamps discount/tax_rate and derives the line total:
// (quantity*unit_price - discount) * (1 + tax_rate/100).
func (i *SaleItem) Recalculate() {
	if i.Discount < 0 {
		i.Discount = 0
	}
	if i.TaxRate < 0 {
		i.TaxRate = 0
	}
	if i.TaxRate > 100 {
		i.TaxRate = 100
	}
	discounted := i.Quantity*i.UnitPrice - i.Discount
	i.TotalPrice = discounted * (1 + i.TaxRate/100)
}

func (i *SaleItem) BeforeSave(tx *gorm.DB) error {
	i.Recalculate()
	return nil
}

// RecalculateTotals makes the header amounts server-authoritative:
// subtotal is the sum of line totals, total = subtotal - discount + tax.
// Header discount_amount and tax_amount stay caller-supplied (order-level
// adjustments on top of the per-line figures).
func (s *Sale) RecalculateTotals() {
	if s.DiscountAmount < 0 {
		s.DiscountAmount = 0
	}
	if s.TaxAmount < 0 {
		s.TaxAmount = 0
	}
	if len(s.Items) > 0 {
		subtotal := 0.0
		for idx := range s.Items {
			s.Items[idx].Recalculate()
			subtotal += s.Items[idx].TotalPrice
		}
		s.Subtotal = subtotal
	}
	s.TotalAmount = s.Subtotal - s.DiscountAmount + s.TaxAmount
}

func (s *Sale) BeforeSave(tx *gorm.DB) error {
	s.RecalculateTotals()
	return nil
}
