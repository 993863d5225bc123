package models

import "testing"

func TestEntryItemRecalculate(t *testing.T) {
	item := EntryItem{Quantity: 5, UnitPrice: 10}
	item.Recalculate()
	if !almostEqual(item.TotalPrice, 50.0) {
		t.Fatalf("TotalPrice = %v, want 50.0", item.TotalPrice)
	}
}

func TestEntryRecalculateTotal(t *testing.T) {
	entry := Entry{
		Items: []EntryItem{
			{Quantity: 5, UnitPrice: 10},
			{Quantity: 2, UnitPrice: 20},
		},
	}
	entry.RecalculateTotal()
	if !almostEqual(entry.TotalAmount, 90.0) {
		t.Fatalf("TotalAmount = %v, want 90.0", entry.TotalAmount)
	}
}

func TestEntryRecalculateTotalEmpty(t *testing.T) {
	entry := Entry{TotalAmount: 42}
	entry.RecalculateTotal()
	if entry.TotalAmount != 0 {
		t.Fatalf("TotalAmount = %v, want 0 for empty entry", entry.TotalAmount)
	}
}

func TestEntryStatusTerminal(t *testing.T) {
	cases := []struct {
		status EntryStatus
		want   bool
	}{
		{EntryStatusDraft, false},
		{EntryStatusPending, false},
		{EntryStatusCompleted, true},
		{EntryStatusCancelled, true},
	}
	for _, c := range cases {
		if got := c.status.Terminal(); got != c.want {
			t.Errorf("Terminal(%s) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestValidEntryStatus(t *testing.T) {
	if !ValidEntryStatus(EntryStatusPending) {
		t.Error("PENDING should be valid")
	}
	if ValidEntryStatus(EntryStatus("SHIPPED")) {
		t.Error("SHIPPED should not be valid")
	}
}
