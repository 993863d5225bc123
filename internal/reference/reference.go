// Package reference generates unique document references for sales,
// entries and expenses ("SAL-1B9F03A2" style).
package reference

import (
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixSale    = "SAL"
	PrefixEntry   = "ENT"
	PrefixExpense = "EXP"
)

// New returns "<prefix>-XXXXXXXX" with 8 hex chars from a random UUID.
// Uniqueness is ultimately enforced by the unique index on the reference
// column.
func New(prefix string) string {
	id := uuid.New()
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return prefix + "-" + hex[:8]
}
