package crypto

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSignQueryAtIsDeterministic(t *testing.T) {
	auth := &HMACAuth{Key: "test-key", Secret: "test-secret"}

	params := url.Values{}
	params.Set("symbol", "BTCUSDT")

	first := auth.SignQueryAt(params, 5000, 1_700_000_000_000)

	params2 := url.Values{}
	params2.Set("symbol", "BTCUSDT")
	second := auth.SignQueryAt(params2, 5000, 1_700_000_000_000)

	if first != second {
		t.Fatalf("same inputs produced different query strings:\n%s\n%s", first, second)
	}
	for _, want := range []string{"symbol=BTCUSDT", "timestamp=1700000000000", "recvWindow=5000"} {
		if !strings.Contains(first, want) {
			t.Errorf("signed query missing %q: %s", want, first)
		}
	}

	idx := strings.LastIndex(first, "&signature=")
	if idx < 0 {
		t.Fatalf("signed query has no signature parameter: %s", first)
	}
	sig := first[idx+len("&signature="):]
	if len(sig) != 64 {
		t.Errorf("signature length = %d, want 64 hex chars", len(sig))
	}
	if sig != strings.ToLower(sig) {
		t.Errorf("signature is not lowercase hex: %s", sig)
	}
}

func TestSignQueryAtSecretChangesSignature(t *testing.T) {
	a := &HMACAuth{Key: "k", Secret: "secret-a"}
	b := &HMACAuth{Key: "k", Secret: "secret-b"}

	params := url.Values{}
	params.Set("symbol", "ETHUSDT")
	qa := a.SignQueryAt(params, 0, 1_700_000_000_000)

	params2 := url.Values{}
	params2.Set("symbol", "ETHUSDT")
	qb := b.SignQueryAt(params2, 0, 1_700_000_000_000)

	if qa == qb {
		t.Fatal("different secrets produced identical signatures")
	}
	if strings.Contains(qa, "recvWindow") {
		t.Errorf("recvWindow should be omitted when zero: %s", qa)
	}
}

func TestHMACAuthValidate(t *testing.T) {
	if err := (&HMACAuth{Key: "k", Secret: "s"}).Validate(); err != nil {
		t.Errorf("complete credentials rejected: %v", err)
	}
	if err := (&HMACAuth{Secret: "s"}).Validate(); err == nil {
		t.Error("missing key accepted")
	}
	if err := (&HMACAuth{Key: "k"}).Validate(); err == nil {
		t.Error("missing secret accepted")
	}
}

func TestEncryptDecryptSecretRoundTrip(t *testing.T) {
	const secret = "9f2a61c0e4b7d8"
	const password = "correct horse battery staple"

	blob, err := EncryptSecret(secret, password)
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}

	got, err := DecryptSecret(blob, password)
	if err != nil {
		t.Fatalf("DecryptSecret: %v", err)
	}
	if got != secret {
		t.Errorf("round trip = %q, want %q", got, secret)
	}

	if _, err := DecryptSecret(blob, "wrong password"); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestLoadSecretPrecedence(t *testing.T) {
	got, err := LoadSecret(SecretConfig{RawSecret: "plain"})
	if err != nil {
		t.Fatalf("LoadSecret raw: %v", err)
	}
	if got != "plain" {
		t.Errorf("LoadSecret raw = %q, want %q", got, "plain")
	}

	blob, err := EncryptSecret("from-file", "pw")
	if err != nil {
		t.Fatalf("EncryptSecret: %v", err)
	}
	path := filepath.Join(t.TempDir(), "secret.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err = LoadSecret(SecretConfig{EncryptedSecretPath: path, KeyPassword: "pw"})
	if err != nil {
		t.Fatalf("LoadSecret encrypted: %v", err)
	}
	if got != "from-file" {
		t.Errorf("LoadSecret encrypted = %q, want %q", got, "from-file")
	}

	if _, err := LoadSecret(SecretConfig{}); err == nil {
		t.Error("empty config accepted")
	}
}
