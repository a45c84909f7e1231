// Package multipart implements the two-phase multipart upload assembly
// protocol: create/uploadPart/uploadPartCopy/complete/abort, plus an orphan
// sweeper. The completed object's ETag is reconstructed from the parts'
// individual SHA-256 digests via pkg/checksum.MultipartETag, so it stays
// verifiable against the assembled bytes rather than being an opaque ID.
package multipart

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

// Coordinator runs the multipart state machine.
type Coordinator struct {
	meta      metadata.Store
	resolver  *pathresolver.Resolver
	chunkSize int
	logger    *zap.SugaredLogger
}

// New creates a Coordinator. chunkSize <= 0 uses chunkio.DefaultChunkSize.
func New(meta metadata.Store, resolver *pathresolver.Resolver, chunkSize int, logger *zap.SugaredLogger) *Coordinator {
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return &Coordinator{meta: meta, resolver: resolver, chunkSize: chunkSize, logger: logger}
}

// CreateOptions carries the target object's attributes, fixed at upload
// creation time and applied to the final assembled object.
type CreateOptions struct {
	ContentType  string
	UserMetadata map[string]string
	Owner        string
}

// Create starts a new multipart upload and returns its upload ID.
func (c *Coordinator) Create(ctx context.Context, bucket, key string, opts CreateOptions) (string, error) {
	if err := pathresolver.ValidateKey(key); err != nil {
		return "", err
	}
	if _, err := c.meta.GetBucket(ctx, bucket); err != nil {
		return "", err
	}

	uploadID := uuid.New().String()
	info := &metadata.MultipartUploadInfo{
		Bucket:       bucket,
		Key:          key,
		UploadID:     uploadID,
		Owner:        opts.Owner,
		ContentType:  opts.ContentType,
		UserMetadata: opts.UserMetadata,
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := c.meta.CreateMultipartUpload(ctx, info); err != nil {
		return "", err
	}
	return uploadID, nil
}

// PartResult describes a stored part.
type PartResult struct {
	ETag string
	Size int64
}

// maxPartNumber is the upper bound on a part's number within an upload.
const maxPartNumber = 10000

// UploadPart streams one numbered part's bytes to storage, computing its
// SHA-256 ETag over the stream without buffering it whole.
func (c *Coordinator) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, data io.Reader) (*PartResult, error) {
	if partNumber < 1 || partNumber > maxPartNumber {
		return nil, apierrors.New(apierrors.InvalidPart, "part number must be between 1 and 10000")
	}
	info, err := c.meta.GetMultipartUpload(ctx, bucket, key, uploadID)
	if err != nil {
		return nil, err
	}
	if info.Key != key {
		return nil, apierrors.New(apierrors.NoSuchUpload, "upload does not belong to this key")
	}

	partPath := c.resolver.UploadPartPath(bucket, uploadID, partNumber)
	result, err := chunkio.WriteFile(partPath, data, c.chunkSize)
	if err != nil {
		return nil, err
	}

	part := &metadata.PartMetadata{
		Bucket:     bucket,
		Key:        key,
		UploadID:   uploadID,
		PartNumber: partNumber,
		ETag:       result.SHA256Hex,
		Size:       result.Size,
	}
	if err := c.meta.PutPart(ctx, part); err != nil {
		chunkio.RemoveQuiet(partPath)
		return nil, err
	}
	return &PartResult{ETag: part.ETag, Size: part.Size}, nil
}

// UploadPartCopy populates a part from a byte range of an existing object
// version rather than from request bytes, re-hashing the copied range so
// the part's ETag always reflects what was actually written.
func (c *Coordinator) UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey, srcVersionID string, rng *chunkio.Range) (*PartResult, error) {
	if partNumber < 1 || partNumber > maxPartNumber {
		return nil, apierrors.New(apierrors.InvalidPart, "part number must be between 1 and 10000")
	}
	srcMeta, err := c.meta.GetMetadata(ctx, srcBucket, srcKey, srcVersionID)
	if err != nil {
		return nil, err
	}
	if srcMeta.IsDeleteMarker {
		return nil, apierrors.New(apierrors.MethodNotAllowed, "cannot copy a delete marker")
	}

	srcPath := c.resolver.ObjectPath(srcBucket, srcKey, srcMeta.VersionID)
	rc, _, err := chunkio.OpenRange(srcPath, rng)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return c.UploadPart(ctx, bucket, key, uploadID, partNumber, rc)
}

// RequestedPart is a part number/ETag pair supplied by the caller to
// CompleteMultipartUpload, used to validate the stored parts match what the
// client believes it uploaded.
type RequestedPart struct {
	PartNumber int
	ETag       string
}

// CompleteResult describes the assembled object.
type CompleteResult struct {
	ETag         string
	Size         int64
	VersionID    string
	LastModified int64
}

// Complete validates the requested part list against stored parts,
// concatenates them in order into the final object path, and persists the
// composite metadata. Validation failures and assembly failures alike leave
// the upload directory untouched so the client may retry;
// only a successful assembly removes it.
func (c *Coordinator) Complete(ctx context.Context, bucket, key, uploadID string, requested []RequestedPart, versioningEnabled bool) (*CompleteResult, error) {
	info, err := c.meta.GetMultipartUpload(ctx, bucket, key, uploadID)
	if err != nil {
		return nil, err
	}
	if info.Key != key {
		return nil, apierrors.New(apierrors.NoSuchUpload, "upload does not belong to this key")
	}

	stored, err := c.meta.ListParts(ctx, bucket, key, uploadID)
	if err != nil {
		return nil, err
	}
	storedByNumber := make(map[int]metadata.PartMetadata, len(stored))
	for _, p := range stored {
		storedByNumber[p.PartNumber] = p
	}

	prev := 0
	parts := make([]metadata.PartMetadata, 0, len(requested))
	for _, req := range requested {
		if req.PartNumber <= prev {
			return nil, apierrors.New(apierrors.InvalidPart, "part numbers must be strictly ascending and unique")
		}
		prev = req.PartNumber

		stored, ok := storedByNumber[req.PartNumber]
		if !ok {
			return nil, apierrors.New(apierrors.InvalidPart, "referenced part was never uploaded")
		}
		if stored.ETag != req.ETag {
			return nil, apierrors.New(apierrors.InvalidPart, "part ETag does not match stored part")
		}
		parts = append(parts, stored)
	}
	if len(parts) == 0 {
		return nil, apierrors.New(apierrors.InvalidPart, "at least one part is required")
	}

	versionID := pathresolver.NullVersion
	if versioningEnabled {
		versionID = uuid.New().String()
	}
	dstPath := c.resolver.ObjectPath(bucket, key, versionID)
	size, err := assembleParts(dstPath, c.resolver, bucket, uploadID, parts)
	if err != nil {
		chunkio.RemoveQuiet(dstPath)
		return nil, err
	}

	digests := make([]string, len(parts))
	partInfos := make([]metadata.PartInfo, len(parts))
	for i, p := range parts {
		digests[i] = p.ETag
		partInfos[i] = metadata.PartInfo{PartNumber: p.PartNumber, ETag: p.ETag, Size: p.Size}
	}
	etag, err := checksum.MultipartETag(digests)
	if err != nil {
		chunkio.RemoveQuiet(dstPath)
		return nil, err
	}

	objMeta := &metadata.ObjectMetadata{
		Bucket:       bucket,
		Key:          key,
		VersionID:    versionID,
		Size:         size,
		LastModified: time.Now().UnixMilli(),
		ETag:         etag,
		ContentType:  info.ContentType,
		UserMetadata: info.UserMetadata,
		Owner:        info.Owner,
		Parts:        partInfos,
	}
	if err := c.meta.SaveMetadata(ctx, objMeta, versioningEnabled); err != nil {
		chunkio.RemoveQuiet(dstPath)
		return nil, err
	}

	if err := c.meta.CompleteMultipartUpload(ctx, bucket, key, uploadID); err != nil {
		c.logger.Warnw("failed to remove completed upload directory", "bucket", bucket, "key", key, "uploadId", uploadID, "error", err)
	}

	return &CompleteResult{
		ETag:         objMeta.ETag,
		Size:         objMeta.Size,
		VersionID:    objMeta.VersionID,
		LastModified: objMeta.LastModified,
	}, nil
}

// assembleParts streams each part's bytes, in order, into dst via a single
// chunked writer so peak memory stays bounded by chunk size regardless of
// object size.
func assembleParts(dst string, resolver *pathresolver.Resolver, bucket, uploadID string, parts []metadata.PartMetadata) (int64, error) {
	readers := make([]io.Reader, 0, len(parts))
	closers := make([]io.Closer, 0, len(parts))
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	for _, p := range parts {
		f, err := os.Open(resolver.UploadPartPath(bucket, uploadID, p.PartNumber))
		if err != nil {
			return 0, apierrors.Wrap(apierrors.InternalError, "open part file", err)
		}
		closers = append(closers, f)
		readers = append(readers, f)
	}

	result, err := chunkio.WriteFile(dst, io.MultiReader(readers...), chunkio.DefaultChunkSize)
	if err != nil {
		return 0, err
	}
	return result.Size, nil
}

// Abort removes the upload directory unconditionally; calling it twice (or
// on a completed upload) is a no-op rather than an error.
func (c *Coordinator) Abort(ctx context.Context, bucket, key, uploadID string) error {
	if err := c.meta.AbortMultipartUpload(ctx, bucket, key, uploadID); err != nil && !apierrors.Is(err, apierrors.NoSuchUpload) {
		return err
	}
	return nil
}

// ListParts returns the parts uploaded so far, sorted by part number.
func (c *Coordinator) ListParts(ctx context.Context, bucket, key, uploadID string) ([]metadata.PartMetadata, error) {
	return c.meta.ListParts(ctx, bucket, key, uploadID)
}

// ListUploads lists in-progress multipart uploads for a bucket.
func (c *Coordinator) ListUploads(ctx context.Context, bucket string) ([]metadata.MultipartUploadInfo, error) {
	return c.meta.ListMultipartUploads(ctx, bucket)
}

// ListUploadsForSweep lists every upload directory in a bucket, including
// ones whose info.json is missing or corrupt, for use by the orphan
// sweeper. Ordinary listing callers should use ListUploads instead.
func (c *Coordinator) ListUploadsForSweep(ctx context.Context, bucket string) ([]metadata.SweepableUpload, error) {
	return c.meta.ListUploadDirsForSweep(ctx, bucket)
}
