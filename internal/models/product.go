package models

type Product struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:200;not null;index" json:"name"`
	Description    string          `gorm:"size:255" json:"description"`
	CategoryID     uint            `gorm:"index;not null" json:"category_id"`
	Category       ProductCategory `json:"category,omitempty"`
	UnitID         uint            `gorm:"index;not null" json:"unit_id"`
	Unit           ProductUnit     `json:"unit,omitempty"`
	PurchasePrice  float64         `gorm:"not null" json:"purchase_price"`
	SellingPrice   float64         `gorm:"not null" json:"selling_price"`
	CurrentStock   float64         `gorm:"not null;default:0" json:"current_stock"`
	AlertThreshold float64         `gorm:"not null;default:5" json:"alert_threshold"`
	Barcode        string          `gorm:"size:100;index" json:"barcode"`
	ImageURL       string          `gorm:"size:255" json:"image_url"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	AuditFields
}

// IsLowStock: current stock at or below the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock <= p.AlertThreshold
}
