// Package cert loads certificate material from disk and derives the
// fingerprints that identify certificates on the control channel. It works on
// PEM blobs only; parsing and validating the X.509 contents is the data
// plane's concern.
package cert

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
)

// Fingerprint identifies a certificate: the SHA-256 digest of its DER bytes.
// It marshals as a hex string.
type Fingerprint []byte

// String returns the fingerprint in lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f)
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(f)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid fingerprint %q: %w", string(text), err)
	}
	*f = b
	return nil
}

// LoadFile reads a PEM file and returns its contents as a string.
func LoadFile(path string) (string, error) {
	b, err := LoadFileBytes(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LoadFileBytes reads a PEM file and returns its raw bytes.
func LoadFileBytes(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read certificate file %q: %w", path, err)
	}
	return b, nil
}

// CalculateFingerprint decodes the first PEM block of data and returns the
// SHA-256 digest of its DER bytes.
func CalculateFingerprint(data []byte) (Fingerprint, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in certificate data")
	}
	sum := sha256.Sum256(block.Bytes)
	return Fingerprint(sum[:]), nil
}

// SplitCertificateChain splits a PEM bundle into its individual certificates,
// preserving order (leaf first). Content outside BEGIN/END CERTIFICATE
// markers is discarded.
func SplitCertificateChain(chain string) []string {
	const (
		begin = "-----BEGIN CERTIFICATE-----"
		end   = "-----END CERTIFICATE-----"
	)

	var certs []string
	rest := chain
	for {
		start := strings.Index(rest, begin)
		if start < 0 {
			break
		}
		rest = rest[start:]
		stop := strings.Index(rest, end)
		if stop < 0 {
			break
		}
		stop += len(end)
		certs = append(certs, rest[:stop])
		rest = rest[stop:]
	}
	return certs
}
