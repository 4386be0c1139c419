package security_test

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/novatech/management-backend/pkg/config"
	"github.com/novatech/management-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestVerifyPasswordAcceptsBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := security.VerifyPassword("legacy-secret", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected bcrypt hash to verify, ok=%v err=%v", ok, err)
	}
	ok, err = security.VerifyPassword("wrong", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, ok=%v err=%v", ok, err)
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", config.PasswordConfig{}); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	strong := config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 2, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

	hash, err := security.HashPassword("rotate-me", weak)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if security.NeedsRehash(hash, weak) {
		t.Fatal("hash made with the current config should not need a rehash")
	}
	if !security.NeedsRehash(hash, strong) {
		t.Fatal("weaker parameters should need a rehash")
	}

	legacy, err := bcrypt.GenerateFromPassword([]byte("rotate-me"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if !security.NeedsRehash(string(legacy), weak) {
		t.Fatal("bcrypt hashes should always be upgraded")
	}
	if security.NeedsRehash("garbage", weak) {
		t.Fatal("unparseable hashes are left alone")
	}
}
