package sourcekit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ChecksumAlgorithm names a supported checksum
type ChecksumAlgorithm string

const (
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
)

// NewHasher creates a new hash.Hash for the given algorithm.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case ChecksumXXHash:
		return xxhash.New(), nil
	case ChecksumSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported checksum algorithm: %s", ErrNotAllowed, algorithm)
	}
}

// CalculateChecksum reads from the reader and calculates the checksum using
// the specified algorithm. Returns the hex-encoded checksum string.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Checksum returns the xxhash of the file content.
func (w *Workspace) Checksum(f *File) (string, error) {
	return w.ChecksumWith(f, ChecksumXXHash)
}

// ChecksumWith returns the checksum of the file content using algorithm.
func (w *Workspace) ChecksumWith(f *File, algorithm ChecksumAlgorithm) (string, error) {
	if f.IsDirectory {
		return "", &PathError{Op: "checksum", Path: f.Path, Err: ErrIsDir}
	}
	r, err := w.Open(f)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return CalculateChecksum(r, algorithm)
}
