package id

import (
	"context"
	"testing"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	gen := NewGenerator(12, 10)
	ctx := context.Background()
	noCollision := func(ctx context.Context, id string) (bool, error) { return false, nil }

	id, err := gen.Generate(ctx, noCollision)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(id) != 12 {
		t.Errorf("expected 12-char id, got %d chars: %q", len(id), id)
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			t.Errorf("id contains non-alphanumeric character %q", r)
		}
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	gen := NewGenerator(12, 10)
	ctx := context.Background()

	var seen []string
	collideOnce := func(ctx context.Context, id string) (bool, error) {
		seen = append(seen, id)
		return len(seen) == 1, nil
	}
	id, err := gen.Generate(ctx, collideOnce)
	if err != nil {
		t.Fatalf("Generate failed after collision: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(seen))
	}
	if seen[0] == seen[1] {
		t.Errorf("retry produced identical candidate %q", seen[0])
	}
	if id != seen[1] {
		t.Errorf("expected second candidate %q, got %q", seen[1], id)
	}
}

func TestGenerateExhausted(t *testing.T) {
	gen := NewGenerator(12, 3)
	ctx := context.Background()

	attempts := 0
	alwaysCollide := func(ctx context.Context, id string) (bool, error) {
		attempts++
		return true, nil
	}
	_, err := gen.Generate(ctx, alwaysCollide)
	if err != ErrExhausted {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestValidShape(t *testing.T) {
	valid := []string{"abcdefgh", "ABC123xyz456", "aaaaaaaaaaaaaaaaaaaa"}
	for _, id := range valid {
		if !ValidShape(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	invalid := []string{"", "short", "has-dash-xx", "with space1", "aaaaaaaaaaaaaaaaaaaaa", "../../etc/passwd"}
	for _, id := range invalid {
		if ValidShape(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}
