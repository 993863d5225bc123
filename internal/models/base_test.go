package models

import "testing"

func TestStampCreatedSetsBothOwners(t *testing.T) {
	actor := uint(7)
	var p Product
	p.StampCreated(&actor)

	if p.CreatedBy == nil || *p.CreatedBy != 7 {
		t.Errorf("CreatedBy = %v, want 7", p.CreatedBy)
	}
	if p.UpdatedBy == nil || *p.UpdatedBy != 7 {
		t.Errorf("UpdatedBy = %v, want 7", p.UpdatedBy)
	}
}

func TestStampUpdatedKeepsCreator(t *testing.T) {
	creator := uint(7)
	editor := uint(9)
	var s Sale
	s.StampCreated(&creator)
	s.StampUpdated(&editor)

	if s.CreatedBy == nil || *s.CreatedBy != 7 {
		t.Errorf("CreatedBy = %v, want 7", s.CreatedBy)
	}
	if s.UpdatedBy == nil || *s.UpdatedBy != 9 {
		t.Errorf("UpdatedBy = %v, want 9", s.UpdatedBy)
	}
}

func TestStampCreatedWithNilActor(t *testing.T) {
	var e Expense
	e.StampCreated(nil)

	if e.CreatedBy != nil || e.UpdatedBy != nil {
		t.Errorf("ownership = (%v, %v), want nil for unauthenticated writes", e.CreatedBy, e.UpdatedBy)
	}
}
