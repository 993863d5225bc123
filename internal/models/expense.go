package models

import (
	"time"

	"gorm.io/gorm"
)

type Frequency string

const (
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// PeriodDays: fixed day offsets per frequency. Deliberately approximate
// (30/365), matching the documented schedule semantics.
func (f Frequency) PeriodDays() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyMonthly:
		return 30
	case FrequencyQuarterly:
		return 90
	case FrequencyYearly:
		return 365
	default:
		return 0
	}
}

type Expense struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	Reference          string            `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	Description        string            `gorm:"size:255;not null" json:"description"`
	CategoryCode       string            `gorm:"size:20;index;not null" json:"category"`
	Amount             float64           `gorm:"not null" json:"amount"`
	TaxAmount          float64           `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount        float64           `gorm:"not null" json:"total_amount"`
	ExpenseDate        time.Time         `gorm:"index;not null" json:"expense_date"`
	DueDate            *time.Time        `json:"due_date,omitempty"`
	PaymentDate        *time.Time        `json:"payment_date,omitempty"`
	PaymentMethodCode  string            `gorm:"size:20" json:"payment_method,omitempty"`
	StatusCode         string            `gorm:"size:20;index;not null;default:pending" json:"status"`
	ReceiptURL         string            `gorm:"size:255" json:"receipt_url"`
	Notes              string            `gorm:"size:255" json:"notes"`
	SupplierID         *uint             `gorm:"index" json:"supplier_id"`
	Supplier           *Supplier         `json:"supplier,omitempty"`
	RecurringExpenseID *uint             `gorm:"index" json:"recurring_expense_id"`
	RecurringExpense   *RecurringExpense `json:"-"`
	AuditFields
}

// Recalculate derives the total. Always applied on save.
func (e *Expense) Recalculate() {
	e.TotalAmount = e.Amount + e.TaxAmount
}

func (e *Expense) BeforeSave(tx *gorm.DB) error {
	e.Recalculate()
	return nil
}

// RecurringExpense: template that materializes concrete Expense records
// and advances its own schedule by the frequency's period.
type RecurringExpense struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"size:200;not null" json:"name"`
	Description       string     `gorm:"size:255" json:"description"`
	CategoryCode      string     `gorm:"size:20;index;not null" json:"category"`
	Amount            float64    `gorm:"not null" json:"amount"`
	Frequency         Frequency  `gorm:"size:20;not null" json:"frequency"`
	NextDueDate       time.Time  `gorm:"index;not null" json:"next_due_date"`
	LastGeneratedDate *time.Time `json:"last_generated_date,omitempty"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	AuditFields
}

// CanGenerate is the duplicate-generation guard: a template may only
// materialize once per period.
func (r *RecurringExpense) CanGenerate(today time.Time) bool {
	if r.LastGeneratedDate == nil {
		return true
	}
	return !today.Before(r.LastGeneratedDate.AddDate(0, 0, r.Frequency.PeriodDays()))
}

// Advance moves the schedule forward one period and stamps the guard.
func (r *RecurringExpense) Advance(today time.Time) {
	r.NextDueDate = r.NextDueDate.AddDate(0, 0, r.Frequency.PeriodDays())
	t := today
	r.LastGeneratedDate = &t
}
