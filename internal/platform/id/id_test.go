package id

import (
	"encoding/base32"
	"strings"
	"testing"
)

func TestNewIDFormat(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(id) != Length {
		t.Fatalf("expected %d-character id, got %d", Length, len(id))
	}
	if strings.Contains(id, "=") {
		t.Fatal("expected no padding")
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}

	decoded, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(id))
	if err != nil {
		t.Fatalf("decode id: %v", err)
	}
	if len(decoded) != 16 {
		t.Fatalf("expected 16 decoded bytes, got %d", len(decoded))
	}

	version := decoded[6] >> 4
	if version != 4 {
		t.Fatalf("expected version 4, got %d", version)
	}
	variant := decoded[8] & 0xC0
	if variant != 0x80 {
		t.Fatalf("expected variant 0x80, got 0x%X", variant)
	}
}

func TestValid(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"generated id", id, true},
		{"empty", "", false},
		{"too short", id[:Length-1], false},
		{"uppercase", strings.ToUpper(id), false},
		{"invalid alphabet", strings.Repeat("1", Length), false},
		{"mongo-style hex id", "507f1f77bcf86cd799439011", false},
	}
	for _, tc := range tests {
		if got := Valid(tc.value); got != tc.want {
			t.Fatalf("%s: Valid(%q) = %v, want %v", tc.name, tc.value, got, tc.want)
		}
	}
}
