package models

import "time"

// AuditFields: timestamps plus the acting user, shared by every record.
// created_by/updated_by are set from the authenticated principal by the handlers;
// they are audit metadata, not business state.
type AuditFields struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy *uint     `gorm:"index" json:"created_by,omitempty"`
	UpdatedBy *uint     `json:"updated_by,omitempty"`
}

// StampCreated records the acting user on a brand new record.
func (a *AuditFields) StampCreated(actor *uint) {
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// StampUpdated records the acting user on a modified record.
func (a *AuditFields) StampUpdated(actor *uint) {
	a.UpdatedBy = actor
}
