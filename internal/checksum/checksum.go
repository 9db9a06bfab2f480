// Package checksum streams SHA-256 digests for model artifacts.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// blockSize is the read granularity; large model files are never held in
// memory as a whole.
const blockSize = 8 * 1024

// MismatchError reports a digest that differs from the pinned expectation.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Sum reads r to EOF and returns the lowercase hex SHA-256 digest.
func Sum(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, blockSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read for checksum: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile computes the digest of the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	return Sum(f)
}

// Verify compares the digest of the file at path against expected,
// case-insensitively. An empty expectation verifies nothing.
func Verify(path, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" {
		return nil
	}

	actual, err := SumFile(path)
	if err != nil {
		return err
	}

	if actual != expected {
		return &MismatchError{Expected: expected, Actual: actual}
	}

	return nil
}
