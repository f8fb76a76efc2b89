package cert

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pemCertificate wraps raw bytes in a certificate PEM block. The DER payload
// does not need to be a parseable certificate for fingerprinting.
func pemCertificate(t *testing.T, der []byte) string {
	t.Helper()
	b64 := base64.StdEncoding.EncodeToString(der)
	return "-----BEGIN CERTIFICATE-----\n" + b64 + "\n-----END CERTIFICATE-----\n"
}

func TestCalculateFingerprint(t *testing.T) {
	der := []byte("not-a-real-certificate")
	fp, err := CalculateFingerprint([]byte(pemCertificate(t, der)))
	if err != nil {
		t.Fatalf("CalculateFingerprint failed: %v", err)
	}

	want := sha256.Sum256(der)
	if fp.String() != hex.EncodeToString(want[:]) {
		t.Errorf("fingerprint = %s, want %s", fp, hex.EncodeToString(want[:]))
	}
}

func TestCalculateFingerprint_NoPEM(t *testing.T) {
	if _, err := CalculateFingerprint([]byte("garbage")); err == nil {
		t.Error("expected error for non-PEM input")
	}
}

func TestFingerprintTextRoundTrip(t *testing.T) {
	fp := Fingerprint([]byte{0xde, 0xad, 0xbe, 0xef})
	text, err := fp.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(text) != "deadbeef" {
		t.Errorf("MarshalText = %q, want %q", text, "deadbeef")
	}

	var back Fingerprint
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if back.String() != fp.String() {
		t.Errorf("round trip = %s, want %s", back, fp)
	}
}

func TestFingerprintUnmarshalInvalid(t *testing.T) {
	var fp Fingerprint
	if err := fp.UnmarshalText([]byte("not-hex")); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestSplitCertificateChain(t *testing.T) {
	leaf := pemCertificate(t, []byte("leaf"))
	intermediate := pemCertificate(t, []byte("intermediate"))
	root := pemCertificate(t, []byte("root"))

	bundle := "# comment\n" + leaf + "\n" + intermediate + root
	certs := SplitCertificateChain(bundle)

	if len(certs) != 3 {
		t.Fatalf("got %d certificates, want 3", len(certs))
	}
	if !strings.Contains(certs[0], base64.StdEncoding.EncodeToString([]byte("leaf"))) {
		t.Error("leaf certificate not first in split chain")
	}
	if !strings.Contains(certs[2], base64.StdEncoding.EncodeToString([]byte("root"))) {
		t.Error("root certificate not last in split chain")
	}
}

func TestSplitCertificateChain_Empty(t *testing.T) {
	if certs := SplitCertificateChain("no certificates here"); certs != nil {
		t.Errorf("got %v, want nil", certs)
	}
}

func TestLoadFileBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cert.pem")
	content := pemCertificate(t, []byte("on-disk"))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := LoadFileBytes(path)
	if err != nil {
		t.Fatalf("LoadFileBytes failed: %v", err)
	}
	if string(b) != content {
		t.Error("LoadFileBytes returned different content")
	}

	if _, err := LoadFileBytes(filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("expected error for missing file")
	}
}
