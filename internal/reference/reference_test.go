package reference

import (
	"regexp"
	"testing"
)

var refFormat = regexp.MustCompile(`^(SAL|ENT|EXP)-[0-9A-F]{8}$`)

func TestNewFormat(t *testing.T) {
	for _, prefix := range []string{PrefixSale, PrefixEntry, PrefixExpense} {
		ref := New(prefix)
		if !refFormat.MatchString(ref) {
			t.Errorf("New(%q) = %q, does not match expected format", prefix, ref)
		}
	}
}

func TestNewDistinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		ref := New(PrefixSale)
		if seen[ref] {
			t.Fatalf("duplicate reference %q after %d draws", ref, i)
		}
		seen[ref] = true
	}
}
