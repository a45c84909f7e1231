// Package objectstore implements the object lifecycle engine from
// Put/Get/Head/Delete/DeleteObjects/Copy/VerifyIntegrity,
// built on chunkio for streaming I/O and fsmeta for metadata persistence.
// Callers (internal/facade) are responsible for per-(bucket,key) locking;
// this package assumes the caller already holds the appropriate lock.
package objectstore

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/apierrors"
	"github.com/objectvault/storagecore/internal/chunkio"
	"github.com/objectvault/storagecore/internal/metadata"
	"github.com/objectvault/storagecore/internal/pathresolver"
	"github.com/objectvault/storagecore/pkg/checksum"
)

func newVersionID() string {
	return uuid.New().String()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// Store is the object lifecycle engine.
type Store struct {
	meta      metadata.Store
	resolver  *pathresolver.Resolver
	chunkSize int
	logger    *zap.SugaredLogger
}

// New creates a Store. chunkSize <= 0 uses chunkio.DefaultChunkSize.
func New(meta metadata.Store, resolver *pathresolver.Resolver, chunkSize int, logger *zap.SugaredLogger) *Store {
	return &Store{meta: meta, resolver: resolver, chunkSize: chunkSize, logger: logger}
}

// PutOptions carries the caller-supplied attributes for a new object
// version.
type PutOptions struct {
	ContentType       string
	ContentEncoding   string
	CacheControl      string
	UserMetadata      map[string]string
	Tags              map[string]string
	Owner             string
	StorageClass      string
	VersioningEnabled bool
	Lock              *metadata.ObjectLock
	LegalHold         metadata.LegalHold

	// ChecksumAlgorithm, if set, additionally records a checksum computed
	// with that algorithm alongside the mandatory SHA-256 ETag. Empty means
	// SHA-256 only, reusing the ETag digest rather than hashing the file twice.
	ChecksumAlgorithm checksum.Algorithm
}

// PutResult describes a successfully stored object version.
type PutResult struct {
	ETag         string
	Size         int64
	VersionID    string
	LastModified int64
}

// lockBlocksOverwrite reports whether m's retention lock or legal hold
// forbids deleting or overwriting it: an unexpired Compliance/Governance
// retainUntil, or an active legal hold, both block regardless of principal.
func lockBlocksOverwrite(m *metadata.ObjectMetadata) error {
	if m.Lock != nil && m.Lock.RetainUntil > nowMillis() {
		return apierrors.New(apierrors.AccessDenied, "object is under retention")
	}
	if m.LegalHold == metadata.LegalHoldOn {
		return apierrors.New(apierrors.AccessDenied, "object has an active legal hold")
	}
	return nil
}

// Put streams data to a new object version and records its metadata. On any
// failure after the data file is written, the data file is rolled back so a
// reader never observes metadata and bytes out of sync.
func (s *Store) Put(ctx context.Context, bucket, key string, data io.Reader, opts PutOptions) (*PutResult, error) {
	if err := pathresolver.ValidateKey(key); err != nil {
		return nil, err
	}
	if _, err := s.meta.GetBucket(ctx, bucket); err != nil {
		return nil, err
	}

	versionID := pathresolver.NullVersion
	if opts.VersioningEnabled {
		versionID = newVersionID()
	} else {
		// A non-versioned put replaces the single "null" version in place,
		// so an existing lock/legal-hold on that version must block the
		// overwrite here; versioned puts never overwrite anything (the prior
		// latest is only demoted, never removed), so no check applies there.
		prev, err := s.meta.GetMetadata(ctx, bucket, key, pathresolver.NullVersion)
		if err == nil {
			if err := lockBlocksOverwrite(prev); err != nil {
				return nil, err
			}
		} else if !apierrors.Is(err, apierrors.NoSuchKey) && !apierrors.Is(err, apierrors.NoSuchVersion) {
			return nil, err
		}
	}

	dataPath := s.resolver.ObjectPath(bucket, key, versionID)
	result, err := chunkio.WriteFile(dataPath, data, s.chunkSize)
	if err != nil {
		return nil, err
	}

	sum := &metadata.Checksum{Algorithm: string(checksum.SHA256), Value: result.SHA256Hex}
	if opts.ChecksumAlgorithm != "" && opts.ChecksumAlgorithm != checksum.SHA256 {
		value, cerr := checksum.HashFile(dataPath, opts.ChecksumAlgorithm, s.chunkSize)
		if cerr != nil {
			chunkio.RemoveQuiet(dataPath)
			return nil, apierrors.Wrap(apierrors.InvalidArgument, "compute additional checksum", cerr)
		}
		sum = &metadata.Checksum{Algorithm: string(opts.ChecksumAlgorithm), Value: value}
	}

	now := nowMillis()
	objMeta := &metadata.ObjectMetadata{
		Bucket:          bucket,
		Key:             key,
		VersionID:       versionID,
		Size:            result.Size,
		LastModified:    now,
		ETag:            result.SHA256Hex,
		ContentType:     opts.ContentType,
		ContentEncoding: opts.ContentEncoding,
		CacheControl:    opts.CacheControl,
		UserMetadata:    opts.UserMetadata,
		Tags:            opts.Tags,
		Owner:           opts.Owner,
		StorageClass:    opts.StorageClass,
		Checksum:        sum,
		Lock:            opts.Lock,
		LegalHold:       opts.LegalHold,
	}

	if err := s.meta.SaveMetadata(ctx, objMeta, opts.VersioningEnabled); err != nil {
		chunkio.RemoveQuiet(dataPath)
		return nil, err
	}

	return &PutResult{
		ETag:         objMeta.ETag,
		Size:         objMeta.Size,
		VersionID:    objMeta.VersionID,
		LastModified: objMeta.LastModified,
	}, nil
}

// GetResult carries an open body plus the version's metadata; the caller
// must Close Body.
type GetResult struct {
	Body io.ReadCloser
	Meta metadata.ObjectMetadata
	Size int64 // bytes in Body (may be less than Meta.Size for a ranged read)
}

// Get opens an object version for reading, optionally bounded to rng. When
// versionID is empty (caller asked for "the current object") and the latest
// version happens to be a delete marker, the object reads as absent
// (NoSuchKey); explicitly requesting that delete marker's versionID instead
// yields MethodNotAllowed, since the marker itself has no body to read.
func (s *Store) Get(ctx context.Context, bucket, key, versionID string, rng *chunkio.Range) (*GetResult, error) {
	meta, err := s.meta.GetMetadata(ctx, bucket, key, versionID)
	if err != nil {
		return nil, err
	}
	if meta.IsDeleteMarker {
		if versionID == "" {
			return nil, apierrors.New(apierrors.NoSuchKey, key)
		}
		return nil, apierrors.New(apierrors.MethodNotAllowed, "the current version is a delete marker")
	}

	dataPath := s.resolver.ObjectPath(bucket, key, meta.VersionID)
	rc, _, err := chunkio.OpenRange(dataPath, rng)
	if err != nil {
		if apierrors.Is(err, apierrors.NoSuchKey) {
			// Metadata resolved successfully but the data file is gone:
			// a metadata/data inconsistency, not an absent object.
			return nil, apierrors.Wrap(apierrors.InternalError, "data file missing for recorded metadata", err)
		}
		return nil, err
	}

	size := meta.Size
	if rng != nil {
		clamped, cerr := chunkio.ClampRange(*rng, meta.Size)
		if cerr != nil {
			rc.Close()
			return nil, cerr
		}
		size = clamped.End - clamped.Start + 1
	}

	return &GetResult{Body: rc, Meta: *meta, Size: size}, nil
}

// Head returns a version's metadata without opening its data, verifying the
// data file still exists so a reader is never told an object is present
// when its bytes are missing.
func (s *Store) Head(ctx context.Context, bucket, key, versionID string) (*metadata.ObjectMetadata, error) {
	meta, err := s.meta.GetMetadata(ctx, bucket, key, versionID)
	if err != nil {
		return nil, err
	}
	if meta.IsDeleteMarker {
		if versionID == "" {
			return nil, apierrors.New(apierrors.NoSuchKey, key)
		}
		return nil, apierrors.New(apierrors.MethodNotAllowed, "the current version is a delete marker")
	}
	dataPath := s.resolver.ObjectPath(bucket, key, meta.VersionID)
	if _, err := os.Stat(dataPath); err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.Wrap(apierrors.InternalError, "data file missing for recorded metadata", err)
		}
		return nil, apierrors.Wrap(apierrors.InternalError, "stat data file", err)
	}
	return meta, nil
}

// DeleteResult reports what a Delete call actually did.
type DeleteResult struct {
	VersionID    string
	DeleteMarker bool  // a delete marker was created rather than data removed
	Size         int64 // size of the data removed; zero when DeleteMarker is true
}

// Delete removes an object version. When versionID is empty and versioning
// is enabled, a delete marker is inserted instead of removing data. When a
// specific versionID is given, that version's data and metadata are both
// permanently removed, data first: if metadata removal then fails, the
// error is returned rather than swallowed, since the data is already gone
// and the inconsistency must be visible to the caller.
func (s *Store) Delete(ctx context.Context, bucket, key, versionID string, versioningEnabled bool) (*DeleteResult, error) {
	if _, err := s.meta.GetBucket(ctx, bucket); err != nil {
		return nil, err
	}

	if versionID == "" && versioningEnabled {
		marker := &metadata.ObjectMetadata{
			Bucket:         bucket,
			Key:            key,
			IsDeleteMarker: true,
		}
		if err := s.meta.SaveMetadata(ctx, marker, true); err != nil {
			return nil, err
		}
		return &DeleteResult{VersionID: marker.VersionID, DeleteMarker: true}, nil
	}

	resolveID := versionID
	if resolveID == "" {
		resolveID = pathresolver.NullVersion
	}
	meta, err := s.meta.GetMetadata(ctx, bucket, key, resolveID)
	if err != nil {
		return nil, err
	}
	if err := lockBlocksOverwrite(meta); err != nil {
		return nil, err
	}

	if !meta.IsDeleteMarker {
		dataPath := s.resolver.ObjectPath(bucket, key, meta.VersionID)
		if err := os.Remove(dataPath); err != nil && !os.IsNotExist(err) {
			return nil, apierrors.Wrap(apierrors.InternalError, "remove data file", err)
		}
	}
	if err := s.meta.DeleteMetadata(ctx, bucket, key, meta.VersionID); err != nil {
		return nil, err
	}
	return &DeleteResult{VersionID: meta.VersionID, Size: meta.Size}, nil
}

// DeleteObjects removes multiple (key, versionID) pairs, continuing past
// per-key errors and reporting them individually rather than aborting the
// whole batch on the first failure.
type DeleteObjectsItem struct {
	Key       string
	VersionID string
}

type DeleteObjectsError struct {
	Key       string
	VersionID string
	Err       error
}

func (s *Store) DeleteObjects(ctx context.Context, bucket string, items []DeleteObjectsItem, versioningEnabled bool) ([]DeleteResult, []DeleteObjectsError) {
	var results []DeleteResult
	var errs []DeleteObjectsError
	for _, item := range items {
		res, err := s.Delete(ctx, bucket, item.Key, item.VersionID, versioningEnabled)
		if err != nil {
			errs = append(errs, DeleteObjectsError{Key: item.Key, VersionID: item.VersionID, Err: err})
			continue
		}
		results = append(results, *res)
	}
	return results, errs
}

// Copy streams srcKey's current (or specified-version) bytes into a new
// version of dstKey, recomputing the ETag over the copied bytes rather than
// reusing the source's stored ETag (a deliberate correction: copying a
// stored ETag verbatim would silently misreport integrity if the source
// were ever re-encoded in transit).
func (s *Store) Copy(ctx context.Context, srcBucket, srcKey, srcVersionID, dstBucket, dstKey string, opts PutOptions) (*PutResult, error) {
	srcMeta, err := s.meta.GetMetadata(ctx, srcBucket, srcKey, srcVersionID)
	if err != nil {
		return nil, err
	}
	if srcMeta.IsDeleteMarker {
		return nil, apierrors.New(apierrors.MethodNotAllowed, "cannot copy a delete marker")
	}
	if _, err := s.meta.GetBucket(ctx, dstBucket); err != nil {
		return nil, err
	}

	srcPath := s.resolver.ObjectPath(srcBucket, srcKey, srcMeta.VersionID)
	srcFile, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchKey, "source data file missing")
		}
		return nil, apierrors.Wrap(apierrors.InternalError, "open source data file", err)
	}
	defer srcFile.Close()

	if opts.ContentType == "" {
		opts.ContentType = srcMeta.ContentType
	}
	if opts.UserMetadata == nil {
		opts.UserMetadata = srcMeta.UserMetadata
	}
	if opts.StorageClass == "" {
		opts.StorageClass = srcMeta.StorageClass
	}

	return s.Put(ctx, dstBucket, dstKey, srcFile, opts)
}

// VerifyIntegrity recomputes a version's content hash and compares it to
// the stored ETag, detecting silent bit rot or an out-of-band edit. Objects
// assembled from multipart parts carry a composite ETag; for them only the
// data file's size is compared with the recorded size and the ETag is
// rebuilt from the recorded per-part digests, so the file's bytes are not
// re-read and a same-size corruption of such an object is not detected.
func (s *Store) VerifyIntegrity(ctx context.Context, bucket, key, versionID string) (bool, error) {
	meta, err := s.meta.GetMetadata(ctx, bucket, key, versionID)
	if err != nil {
		return false, err
	}
	if meta.IsDeleteMarker {
		return true, nil
	}
	dataPath := s.resolver.ObjectPath(bucket, key, meta.VersionID)

	if len(meta.Parts) > 0 {
		info, err := os.Stat(dataPath)
		if err != nil {
			return false, apierrors.Wrap(apierrors.InternalError, "stat data file", err)
		}
		if info.Size() != meta.Size {
			return false, nil
		}
		digests := make([]string, len(meta.Parts))
		for i, p := range meta.Parts {
			digests[i] = p.ETag
		}
		composite, err := checksum.MultipartETag(digests)
		if err != nil {
			return false, err
		}
		return composite == meta.ETag, nil
	}

	hash, size, err := chunkio.HashFile(dataPath, s.chunkSize)
	if err != nil {
		return false, err
	}
	return size == meta.Size && hash == meta.ETag, nil
}
