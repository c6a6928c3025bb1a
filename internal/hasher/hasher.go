// Package hasher computes content fingerprints for documents.
//
// A fingerprint is the lowercase hex SHA-256 digest of the full byte content.
// Equal bytes always give equal fingerprints; the manifest relies on this to
// decide whether a document changed since it was last indexed.
package hasher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Sum returns the fingerprint of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashReader streams r through SHA-256 and returns the fingerprint.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SniffSize is how much of a file HashFile inspects for NUL bytes.
const SniffSize = 512

// ErrBinary is returned by HashFile for content that is not text.
var ErrBinary = errors.New("binary content")

// HashFile returns the fingerprint of the file at path in one read.
// A file with a NUL byte in its first SniffSize bytes is ErrBinary.
// Any other failure is an IOError; a file that disappeared is
// ErrFileNotFound.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", docerrors.IOError(path, err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, SniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", docerrors.IOError(path, err)
	}
	head = head[:n]
	if bytes.IndexByte(head, 0) >= 0 {
		return "", ErrBinary
	}

	sum, err := HashReader(io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		return "", docerrors.IOError(path, err)
	}
	return sum, nil
}

// Valid reports whether s has the shape of a fingerprint.
func Valid(s string) bool {
	if len(s) != Size {
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
