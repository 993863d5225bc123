package models

type Supplier struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"size:200;not null;index" json:"name"`
	Email         string `gorm:"size:100" json:"email"`
	Phone         string `gorm:"size:20" json:"phone"`
	Address       string `gorm:"size:255" json:"address"`
	ContactPerson string `gorm:"size:200" json:"contact_person"`
	Notes         string `gorm:"size:255" json:"notes"`
	IsActive      bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type Customer struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null;index" json:"last_name"`
	Email     string `gorm:"size:100" json:"email"`
	Phone     string `gorm:"size:20" json:"phone"`
	Address   string `gorm:"size:255" json:"address"`
	Notes     string `gorm:"size:255" json:"notes"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
