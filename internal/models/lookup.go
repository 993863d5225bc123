package models

// Reference data: code/label tables the transactional records point at.
// Domain records store the (validated) code string, not a foreign key;
// see the status lifecycle notes on Entry/Sale/Expense.

type ProductCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type ProductUnit struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Abbreviation string `gorm:"size:10;uniqueIndex;not null" json:"abbreviation"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type UserStatus struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	IsDefault   bool   `gorm:"default:false" json:"is_default"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type EntryType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type ExpenseCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type ExpenseStatus struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type PaymentMethod struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type SaleStatus struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type PaymentStatus struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

// Seeded status codes. The lookup rows can be renamed through the API but
// the lifecycle logic keys on these codes.
const (
	ExpenseStatusPending   = "pending"
	ExpenseStatusApproved  = "approved"
	ExpenseStatusPaid      = "paid"
	ExpenseStatusValidated = "validated"
	ExpenseStatusCancelled = "cancelled"

	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)
