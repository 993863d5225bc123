package models

type TimeSlot struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	StartTime   string `gorm:"size:5;not null" json:"start_time"` // "08:00"
	EndTime     string `gorm:"size:5;not null" json:"end_time"`   // "16:00"
	Description string `gorm:"size:255" json:"description"`
	Order       int    `gorm:"not null;default:0" json:"order"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	AuditFields
}

type UserTimeSlot struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	UserID      uint     `gorm:"index;not null" json:"user_id"`
	User        User     `json:"user,omitempty"`
	TimeSlotID  uint     `gorm:"index;not null" json:"time_slot_id"`
	TimeSlot    TimeSlot `json:"time_slot,omitempty"`
	Description string   `gorm:"size:255" json:"description"`
	IsActive    bool     `gorm:"default:true" json:"is_active"`
	AuditFields
}
