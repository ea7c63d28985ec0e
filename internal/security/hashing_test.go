package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("correct horse"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := h.Compare(hash, []byte("correct horse")); err != nil {
		t.Errorf("Compare with right password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Error("Compare with wrong password should fail")
	}
}

func TestNewHasher_CostClamping(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, bcrypt.DefaultCost},
		{-3, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{99, bcrypt.MaxCost},
		{12, 12},
	}
	for _, tt := range tests {
		if got := NewHasher(tt.in).Cost; got != tt.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestVerifier_VerifyAndDummy(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	v, err := NewVerifier(h)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	hash, err := h.Hash([]byte("secret-password"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !v.Verify(hash, []byte("secret-password")) {
		t.Error("Verify should accept the right password")
	}
	if v.Verify(hash, []byte("other")) {
		t.Error("Verify should reject a wrong password")
	}
	if v.CompareDummy([]byte("anything")) {
		t.Error("CompareDummy must always report false")
	}
	// The dummy hash is a real bcrypt hash, so a dummy comparison costs the
	// same work as a failed comparison against a stored hash.
	if err := bcrypt.CompareHashAndPassword([]byte(v.dummyHash), []byte("not-it")); err != bcrypt.ErrMismatchedHashAndPassword {
		t.Errorf("dummy hash should be a well-formed bcrypt hash, got %v", err)
	}
}
