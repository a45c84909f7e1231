// Package checksum supplies the hashing primitives shared by objectstore
// and multipart: SHA-256 is the mandatory ETag algorithm,
// while MD5/SHA-1/SHA-512 are offered for the optional additional
// checksum field a stored version may carry (optional
// checksum {algorithm, value}").
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
)

// Algorithm is a closed variant of the supported checksum algorithms.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA512 Algorithm = "sha512"
)

func newHash(alg Algorithm) (hash.Hash, error) {
	switch alg {
	case SHA256, "":
		return sha256.New(), nil
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", alg)
	}
}

// HashFile re-reads path in chunkSize-bounded reads and returns alg's hex
// digest, without ever buffering the whole file in memory.
func HashFile(path string, alg Algorithm, chunkSize int) (string, error) {
	h, err := newHash(alg)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	if _, err := io.CopyBuffer(h, f, make([]byte, chunkSize)); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MultipartETag computes a multipart object's ETag from its assembled
// parts' individual SHA-256 hex digests, following the same digest-of-
// digests convention S3 uses: the raw bytes of each part hash are
// concatenated, hashed again, and the part count is appended as "-N".
func MultipartETag(partHexDigests []string) (string, error) {
	h := sha256.New()
	for _, digest := range partHexDigests {
		raw, err := hex.DecodeString(digest)
		if err != nil {
			return "", fmt.Errorf("decode part digest: %w", err)
		}
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil)) + "-" + strconv.Itoa(len(partHexDigests)), nil
}
