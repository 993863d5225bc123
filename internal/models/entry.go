package models

import (
	"time"

	"gorm.io/gorm"
)

type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "DRAFT"
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusCompleted EntryStatus = "COMPLETED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s EntryStatus) Terminal() bool {
	return s == EntryStatusCompleted || s == EntryStatusCancelled
}

func ValidEntryStatus(s EntryStatus) bool {
	switch s {
	case EntryStatusDraft, EntryStatusPending, EntryStatusCompleted, EntryStatusCancelled:
		return true
	}
	return false
}

// Entry: a recorded receipt of stock from a supplier. Completing an entry
// credits every item's quantity to the product catalog exactly once.
type Entry struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Reference     string      `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	EntryTypeCode string      `gorm:"size:20;index;not null" json:"entry_type"`
	SupplierID    *uint       `gorm:"index" json:"supplier_id"`
	Supplier      *Supplier   `json:"supplier,omitempty"`
	EntryDate     time.Time   `gorm:"index;not null" json:"entry_date"`
	Status        EntryStatus `gorm:"size:20;index;not null;default:PENDING" json:"status"`
	Notes         string      `gorm:"size:255" json:"notes"`
	TotalAmount   float64     `gorm:"not null;default:0" json:"total_amount"`
	TaxAmount     float64     `gorm:"not null;default:0" json:"tax_amount"`
	Items         []EntryItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	AuditFields
}

type EntryItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EntryID     uint       `gorm:"index;not null" json:"entry_id"`
	ProductID   uint       `gorm:"index;not null" json:"product_id"`
	Product     Product    `json:"product,omitempty"`
	Quantity    float64    `gorm:"not null" json:"quantity"`
	UnitPrice   float64    `gorm:"not null" json:"unit_price"`
	TotalPrice  float64    `gorm:"not null" json:"total_price"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	BatchNumber string     `gorm:"size:100" json:"batch_number"`
	AuditFields
}

// Recalculate derives the line total. Always applied on save; client-sent
// totals are never trusted.
func (i *EntryItem) Recalculate() {
	i.TotalPrice = i.Quantity * i.UnitPrice
}

func (i *EntryItem) BeforeSave(tx *gorm.DB) error {
	i.Recalculate()
	return nil
}

// RecalculateTotal reconciles the header total with the line items.
func (e *Entry) RecalculateTotal() {
	total := 0.0
	for idx := range e.Items {
		e.Items[idx].Recalculate()
		total += e.Items[idx].TotalPrice
	}
	e.TotalAmount = total
}
