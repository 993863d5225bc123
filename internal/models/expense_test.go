package models

import (
	"testing"
	"time"
)

func TestExpenseRecalculate(t *testing.T) {
	expense := Expense{Amount: 100, TaxAmount: 20}
	expense.Recalculate()
	if !almostEqual(expense.TotalAmount, 120.0) {
		t.Fatalf("TotalAmount = %v, want 120.0", expense.TotalAmount)
	}
}

func TestFrequencyPeriodDays(t *testing.T) {
	cases := []struct {
		frequency Frequency
		want      int
	}{
		{FrequencyWeekly, 7},
		{FrequencyMonthly, 30},
		{FrequencyQuarterly, 90},
		{FrequencyYearly, 365},
		{Frequency("DAILY"), 0},
	}
	for _, c := range cases {
		if got := c.frequency.PeriodDays(); got != c.want {
			t.Errorf("PeriodDays(%s) = %d, want %d", c.frequency, got, c.want)
		}
	}
}

func TestValidFrequency(t *testing.T) {
	if !ValidFrequency(FrequencyQuarterly) {
		t.Error("QUARTERLY should be valid")
	}
	if ValidFrequency(Frequency("DAILY")) {
		t.Error("DAILY should not be valid")
	}
}

func TestRecurringExpenseCanGenerateFirstTime(t *testing.T) {
	template := RecurringExpense{Frequency: FrequencyMonthly}
	if !template.CanGenerate(time.Now()) {
		t.Fatal("a template that never generated should be allowed to generate")
	}
}

func TestRecurringExpenseCanGenerateGuard(t *testing.T) {
	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	template := RecurringExpense{Frequency: FrequencyMonthly, LastGeneratedDate: &last}

	within := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if template.CanGenerate(within) {
		t.Error("generation within the period should be blocked")
	}

	after := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if !template.CanGenerate(after) {
		t.Error("generation after a full period should be allowed")
	}
}

func TestRecurringExpenseAdvance(t *testing.T) {
	template := RecurringExpense{
		Frequency:   FrequencyMonthly,
		NextDueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	today := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	template.Advance(today)

	wantDue := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if !template.NextDueDate.Equal(wantDue) {
		t.Errorf("NextDueDate = %v, want %v", template.NextDueDate, wantDue)
	}
	if template.LastGeneratedDate == nil || !template.LastGeneratedDate.Equal(today) {
		t.Errorf("LastGeneratedDate = %v, want %v", template.LastGeneratedDate, today)
	}
}

func TestRecurringExpenseWeeklyAdvance(t *testing.T) {
	template := RecurringExpense{
		Frequency:   FrequencyWeekly,
		NextDueDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	template.Advance(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))

	wantDue := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if !template.NextDueDate.Equal(wantDue) {
		t.Errorf("NextDueDate = %v, want %v", template.NextDueDate, wantDue)
	}
}
