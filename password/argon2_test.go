package password

import (
	"strings"
	"testing"
)

func testParams() Params {
	return Params{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltBytes:   16,
		KeyBytes:    32,
	}
}

func TestHashAndVerify(t *testing.T) {
	h, err := New(testParams())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	hash, err := h.Hash("Planner@2026")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := h.Verify("Planner@2026", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	h, err := New(testParams())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	hash, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := h.Verify("wrong-horse", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail without error")
	}
}

func TestNeedsRehashAfterParameterUpgrade(t *testing.T) {
	weak, err := New(Params{Memory: 32768, Time: 2, Parallelism: 1, SaltBytes: 16, KeyBytes: 32})
	if err != nil {
		t.Fatalf("New(weak) error: %v", err)
	}
	hash, err := weak.Hash("migrate-me")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	strong, err := New(testParams())
	if err != nil {
		t.Fatalf("New(strong) error: %v", err)
	}

	needs, err := strong.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if !needs {
		t.Fatal("expected weaker hash to need rehash")
	}

	same, err := strong.NeedsRehash(mustHash(t, strong, "fresh"))
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if same {
		t.Fatal("expected current-parameter hash to not need rehash")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h, err := New(testParams())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, err := h.Verify("anything", "not-a-phc-hash"); err == nil {
		t.Fatal("expected malformed hash to error")
	}
}

func TestVerifyWrongVersion(t *testing.T) {
	h, err := New(testParams())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	hash := mustHash(t, h, "version-probe")
	tampered := strings.Replace(hash, "$v=19$", "$v=18$", 1)
	if _, err := h.Verify("version-probe", tampered); err == nil {
		t.Fatal("expected unsupported argon2 version to error")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	h, err := New(testParams())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, err := h.Hash(""); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
}

func TestMaxBytesEnforced(t *testing.T) {
	p := testParams()
	p.MaxBytes = 64
	h, err := New(p)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, err := h.Hash(strings.Repeat("a", 65)); err == nil {
		t.Fatal("expected over-limit password to be rejected by Hash")
	}

	exact := strings.Repeat("b", 64)
	hash, err := h.Hash(exact)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}
	ok, err := h.Verify(exact, hash)
	if err != nil || !ok {
		t.Fatalf("Verify failed for max-length password: ok=%v err=%v", ok, err)
	}

	if _, err := h.Verify(strings.Repeat("c", 65), hash); err == nil {
		t.Fatal("expected over-limit password to be rejected by Verify")
	}
}

func TestDefaultMaxBytesApplied(t *testing.T) {
	h, err := New(testParams())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if _, err := h.Hash(strings.Repeat("d", DefaultMaxBytes+1)); err == nil {
		t.Fatalf("expected password over %d bytes to be rejected", DefaultMaxBytes)
	}
	if _, err := h.Hash(strings.Repeat("e", DefaultMaxBytes)); err != nil {
		t.Fatalf("expected password of exactly %d bytes to be accepted: %v", DefaultMaxBytes, err)
	}
}

func mustHash(t *testing.T, h *Hasher, plain string) string {
	t.Helper()
	hash, err := h.Hash(plain)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	return hash
}
