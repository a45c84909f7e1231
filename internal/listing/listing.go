// Package listing implements the listing engine: a thin
// bucket-existence-checked, maxKeys-clamped wrapper around the metadata
// store's sorted key iteration (internal/metadata/fsmeta.Store.ListObjects/
// ListObjectVersions). The underlying walk/sort/paginate logic lives in
// fsmeta; this package is the named entry point internal/facade calls so
// that listing stays a distinct component from the metadata store itself.
package listing

import (
	"context"

	"github.com/objectvault/storagecore/internal/metadata"
)

// DefaultMaxKeys is applied when a caller supplies no maxKeys.
const DefaultMaxKeys = 1000

// MaxKeysCeiling is the largest maxKeys a caller may request in one page.
const MaxKeysCeiling = 1000

// Engine lists objects and object versions within a bucket.
type Engine struct {
	meta metadata.Store
}

// New creates an Engine backed by meta.
func New(meta metadata.Store) *Engine {
	return &Engine{meta: meta}
}

func clampMaxKeys(n int) int {
	if n <= 0 {
		return DefaultMaxKeys
	}
	if n > MaxKeysCeiling {
		return MaxKeysCeiling
	}
	return n
}

// ListObjects enumerates current (non-delete-marker) object versions in
// bucket, grouping common prefixes by opts.Delimiter the way S3's
// ListObjectsV2 does. It rejects a nonexistent bucket before delegating to
// the metadata store, since fsmeta's key walk would otherwise just return
// an empty page indistinguishable from "bucket exists but has no objects".
func (e *Engine) ListObjects(ctx context.Context, bucket string, opts metadata.ListOptions) (*metadata.ListResult, error) {
	if _, err := e.meta.GetBucket(ctx, bucket); err != nil {
		return nil, err
	}
	opts.MaxKeys = clampMaxKeys(opts.MaxKeys)
	return e.meta.ListObjects(ctx, bucket, opts)
}

// ListObjectVersions enumerates every version (including delete markers) of
// every key in bucket.
func (e *Engine) ListObjectVersions(ctx context.Context, bucket string, opts metadata.ListOptions) (*metadata.ListVersionsResult, error) {
	if _, err := e.meta.GetBucket(ctx, bucket); err != nil {
		return nil, err
	}
	opts.MaxKeys = clampMaxKeys(opts.MaxKeys)
	return e.meta.ListObjectVersions(ctx, bucket, opts)
}
