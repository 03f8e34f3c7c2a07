// Package fingerprint computes content digests used to detect changed uploads.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Sum returns the lowercase hex SHA-256 digest of data.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// SumReader digests r without buffering it and returns the digest and byte count.
func SumReader(r io.Reader) (string, int64, error) {
	hash := sha256.New()
	n, err := io.Copy(hash, r)
	if err != nil {
		return "", n, fmt.Errorf("failed to hash content: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), n, nil
}

// Changed reports whether data differs from content that produced previous.
// An empty previous digest always counts as changed.
func Changed(previous string, data []byte) bool {
	return previous == "" || previous != Sum(data)
}
