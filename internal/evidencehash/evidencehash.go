// Package evidencehash computes the content and metadata digests stored on
// evidence records. Digests are lowercase hex SHA-256.
package evidencehash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = 64

// PayloadSHA256 hashes the exact payload bytes.
func PayloadSHA256(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// CanonicalJSON serializes v so that equal values always produce equal bytes:
// object keys sorted, numbers kept verbatim, no HTML escaping, no trailing newline.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out, err := marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("re-marshal: %w", err)
	}
	return out, nil
}

// MetadataSHA256 returns the digest of the canonical JSON of v together with
// the canonical bytes, which are what the ledger stores.
func MetadataSHA256(v any) (string, []byte, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), canonical, nil
}

// IsDigest reports whether s looks like a digest produced by this package.
func IsDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// VerifyPayload recomputes the payload digest for integrity checks.
// It never feeds back into a stored record.
func VerifyPayload(payload []byte, digest string) bool {
	return PayloadSHA256(payload) == digest
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
