package crypto

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestUploadTokenUnique(t *testing.T) {
	a, err := NewUploadToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	b, err := NewUploadToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if len(a) != 32 || a == b {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
	if HashToken(a) == HashToken(b) || HashToken(a) != HashToken(a) {
		t.Fatalf("hash must be stable and distinct")
	}
}
