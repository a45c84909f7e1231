// Package chunkio implements the chunked streaming I/O engine: fixed-size
// chunked copy with a rolling SHA-256 hash, fsync-before-rename durability,
// and a bounded range reader.
package chunkio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/objectvault/storagecore/internal/apierrors"
)

// DefaultChunkSize is the default chunk size used by WriteFile and HashFile
// when none is supplied.
const DefaultChunkSize = 64 * 1024

// WriteResult carries the outcome of a successful WriteFile.
type WriteResult struct {
	Size int64
	SHA256Hex string
}

// WriteFile streams src into dst in chunkSize-bounded reads, computing a
// rolling SHA-256 over the bytes written. It writes to a temporary sibling
// file, fsyncs, then renames over dst so a reader never observes a partial
// file. On any error the temporary file is removed before the error is
// returned.
func WriteFile(dst string, src io.Reader, chunkSize int) (WriteResult, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return WriteResult{}, apierrors.Wrap(apierrors.InternalError, "create parent directory", err)
	}

	tmp := dst + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return WriteResult{}, apierrors.Wrap(apierrors.InternalError, "create temp file", err)
	}

	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				os.Remove(tmp)
				return WriteResult{}, apierrors.Wrap(apierrors.InternalError, "write chunk", werr)
			}
			hasher.Write(buf[:n])
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			os.Remove(tmp)
			return WriteResult{}, apierrors.Wrap(apierrors.InternalError, "read source", rerr)
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return WriteResult{}, apierrors.Wrap(apierrors.InternalError, "fsync", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return WriteResult{}, apierrors.Wrap(apierrors.InternalError, "close temp file", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return WriteResult{}, apierrors.Wrap(apierrors.InternalError, "rename into place", err)
	}

	return WriteResult{Size: total, SHA256Hex: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// Range is a byte range [Start, End], inclusive at both ends.
type Range struct {
	Start int64
	End   int64
}

// ClampRange validates and clamps r against size: a
// request exceeding the file size is clamped to size-1, and 0 <= start <=
// end < size is required after clamping.
func ClampRange(r Range, size int64) (Range, error) {
	if size <= 0 {
		return Range{}, apierrors.New(apierrors.InvalidRange, "object is empty")
	}
	if r.Start < 0 || r.Start > r.End {
		return Range{}, apierrors.New(apierrors.InvalidRange, "range start must be <= end and >= 0")
	}
	end := r.End
	if end >= size {
		end = size - 1
	}
	if r.Start >= size {
		return Range{}, apierrors.New(apierrors.InvalidRange, "range start beyond object size")
	}
	return Range{Start: r.Start, End: end}, nil
}

// OpenRange opens path and returns a ReadCloser bounded to the validated
// range plus the file's total size. The caller must Close the result.
func OpenRange(path string, r *Range) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, apierrors.Wrap(apierrors.NoSuchKey, "data file missing", err)
		}
		return nil, 0, apierrors.Wrap(apierrors.InternalError, "open data file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, apierrors.Wrap(apierrors.InternalError, "stat data file", err)
	}
	size := info.Size()
	if r == nil {
		return f, size, nil
	}
	clamped, err := ClampRange(*r, size)
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if _, err := f.Seek(clamped.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, 0, apierrors.Wrap(apierrors.InternalError, "seek data file", err)
	}
	length := clamped.End - clamped.Start + 1
	return &boundedReadCloser{r: io.LimitReader(f, length), c: f}, size, nil
}

type boundedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (b *boundedReadCloser) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *boundedReadCloser) Close() error                { return b.c.Close() }

// HashFile re-reads path in chunkSize chunks and returns its SHA-256 hex
// digest, used by data-integrity verification.
func HashFile(path string, chunkSize int) (string, int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	f, err := os.Open(path)
	if err != nil {
		return "", 0, apierrors.Wrap(apierrors.InternalError, "open data file", err)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	var total int64
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", 0, fmt.Errorf("read data file: %w", rerr)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), total, nil
}

// RemoveQuiet removes path, ignoring a not-exist error; used to roll back
// a partially-written file.
func RemoveQuiet(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
