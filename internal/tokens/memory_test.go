package tokens

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreConsumeIsOneShot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, PurposeReset, "tok", 7, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	userID, ok, err := store.Consume(ctx, PurposeReset, "tok")
	if err != nil || !ok {
		t.Fatalf("Consume = (%v, %v, %v), want (7, true, nil)", userID, ok, err)
	}
	if userID != 7 {
		t.Errorf("userID = %d, want 7", userID)
	}

	_, ok, _ = store.Consume(ctx, PurposeReset, "tok")
	if ok {
		t.Error("second Consume should fail, tokens are one-shot")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, PurposeActivation, "tok", 3, -time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, ok, _ := store.Consume(ctx, PurposeActivation, "tok")
	if ok {
		t.Error("expired token should not be consumable")
	}
}

func TestMemoryStorePeekDoesNotConsume(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, PurposeDenylist, "jti", 0, time.Minute)

	for i := 0; i < 2; i++ {
		present, err := store.Peek(ctx, PurposeDenylist, "jti")
		if err != nil || !present {
			t.Fatalf("Peek #%d = (%v, %v), want (true, nil)", i+1, present, err)
		}
	}
}

func TestMemoryStorePurposesAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, PurposeReset, "tok", 5, time.Minute)

	_, ok, _ := store.Consume(ctx, PurposeActivation, "tok")
	if ok {
		t.Error("a reset token must not be consumable as an activation token")
	}
}
