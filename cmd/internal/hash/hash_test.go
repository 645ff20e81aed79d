package hash

import "testing"

func TestContentHash(t *testing.T) {
	first := ContentHash([]byte("artifact contents"))
	second := ContentHash([]byte("artifact contents"))

	if first != second {
		t.Fatal("The hash must be stable for the same input")
	}

	if len(first) != 32 {
		t.Fatal("Expected a 128 bit hash encoded as 32 hex characters")
	}

	if first == ContentHash([]byte("different contents")) {
		t.Fatal("Different inputs should not collide")
	}
}
