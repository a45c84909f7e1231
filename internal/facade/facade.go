// Package facade bundles the storage core's components behind a single
// public contract: buckets, objects, multipart uploads, and listing, each
// performing precondition checks, then the data write, then the metadata
// write, then an event-dispatch hand-off, in that order. It owns the
// per-(bucket,key) writer-exclusion lock table; the per-bucket configuration
// lock table already lives inside internal/bucketconfig.Registry, so this
// package composes that Registry rather than duplicating its locking.
package facade

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/apierrors"
	"github.com/objectvault/storagecore/internal/audit"
	"github.com/objectvault/storagecore/internal/batch"
	"github.com/objectvault/storagecore/internal/bucketconfig"
	"github.com/objectvault/storagecore/internal/chunkio"
	"github.com/objectvault/storagecore/internal/events"
	"github.com/objectvault/storagecore/internal/listing"
	"github.com/objectvault/storagecore/internal/metadata"
	"github.com/objectvault/storagecore/internal/multipart"
	"github.com/objectvault/storagecore/internal/objectstore"
	"github.com/objectvault/storagecore/internal/replication"
	"github.com/objectvault/storagecore/internal/telemetry"
)

// Locker provides one *sync.RWMutex per (bucket,key) pair, created on
// first use, guarded by its own mutex so creating a new per-key lock never
// blocks unrelated keys.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.RWMutex)}
}

func (l *Locker) get(bucket, key string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := bucket + "/" + key
	lk, ok := l.locks[id]
	if !ok {
		lk = &sync.RWMutex{}
		l.locks[id] = lk
	}
	return lk
}

// Lock acquires the exclusive lock for (bucket,key) and returns a function
// that releases it.
func (l *Locker) Lock(bucket, key string) func() {
	lk := l.get(bucket, key)
	lk.Lock()
	return lk.Unlock
}

// RLock acquires the shared lock for (bucket,key) and returns a function
// that releases it.
func (l *Locker) RLock(bucket, key string) func() {
	lk := l.get(bucket, key)
	lk.RLock()
	return lk.RUnlock
}

// Facade is the storage core's single public entry point.
type Facade struct {
	meta     metadata.Store
	objects  *objectstore.Store
	multi    *multipart.Coordinator
	list     *listing.Engine
	config   *bucketconfig.Registry
	dispatch *events.Dispatcher
	ledger   *audit.Ledger
	jobs     *batch.Store
	repl     *replication.Worker
	replReg  *replication.Registry
	logger   *zap.SugaredLogger

	locker *Locker
}

// New assembles a Facade from its already-constructed components. Any of
// ledger/jobs/repl/replReg may be nil, in which case the corresponding
// behavior (audit recording, batch jobs, replication fan-out) is skipped.
func New(
	meta metadata.Store,
	objects *objectstore.Store,
	multi *multipart.Coordinator,
	list *listing.Engine,
	config *bucketconfig.Registry,
	dispatch *events.Dispatcher,
	ledger *audit.Ledger,
	jobs *batch.Store,
	repl *replication.Worker,
	replReg *replication.Registry,
	logger *zap.SugaredLogger,
) *Facade {
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return &Facade{
		meta:     meta,
		objects:  objects,
		multi:    multi,
		list:     list,
		config:   config,
		dispatch: dispatch,
		ledger:   ledger,
		jobs:     jobs,
		repl:     repl,
		replReg:  replReg,
		logger:   logger,
		locker:   NewLocker(),
	}
}

func (f *Facade) audit(ctx context.Context, bucket, key, principal string, eventType audit.EventType, status string, detail string) {
	if f.ledger == nil {
		return
	}
	if err := f.ledger.Append(ctx, audit.Event{
		Bucket:    bucket,
		Key:       key,
		Principal: principal,
		EventType: eventType,
		Status:    status,
		Detail:    detail,
	}); err != nil {
		f.logger.Warnw("audit append failed", "bucket", bucket, "key", key, "error", err)
	}
}

func (f *Facade) observe(operation, status string, start time.Time) {
	telemetry.ObserveOperation(operation, status, time.Since(start).Seconds())
}

// --- Buckets -----------------------------------------------------------

// CreateBucket creates an empty bucket owned by owner.
func (f *Facade) CreateBucket(ctx context.Context, bucket, owner, principal string) error {
	start := time.Now()
	err := f.meta.CreateBucket(ctx, bucket, owner)
	if err != nil {
		f.observe("CreateBucket", "error", start)
		f.audit(ctx, bucket, "", principal, audit.EventBucketCreated, "failure", err.Error())
		return err
	}
	telemetry.SetStorageBuckets(f.bucketCountOrZero(ctx))
	f.audit(ctx, bucket, "", principal, audit.EventBucketCreated, "success", "")
	f.observe("CreateBucket", "ok", start)
	f.dispatch.Dispatch(ctx, bucket, events.Event{
		Type:      events.EventBucketCreated,
		Timestamp: time.Now(),
		Principal: principal,
		Entity:    events.S3EventEntity{Bucket: events.BucketInfo{Name: bucket}},
	})
	return nil
}

func (f *Facade) bucketCountOrZero(ctx context.Context) int64 {
	buckets, err := f.meta.ListBuckets(ctx)
	if err != nil {
		return 0
	}
	return int64(len(buckets))
}

// DeleteBucket removes an empty bucket.
func (f *Facade) DeleteBucket(ctx context.Context, bucket, principal string) error {
	start := time.Now()
	empty, err := f.meta.BucketIsEmpty(ctx, bucket)
	if err != nil {
		f.observe("DeleteBucket", "error", start)
		return err
	}
	if !empty {
		f.observe("DeleteBucket", "error", start)
		return apierrors.New(apierrors.BucketNotEmpty, "bucket is not empty")
	}
	if err := f.meta.DeleteBucket(ctx, bucket); err != nil {
		f.observe("DeleteBucket", "error", start)
		f.audit(ctx, bucket, "", principal, audit.EventBucketDeleted, "failure", err.Error())
		return err
	}
	telemetry.DeleteBucketMetrics(bucket)
	telemetry.SetStorageBuckets(f.bucketCountOrZero(ctx))
	f.audit(ctx, bucket, "", principal, audit.EventBucketDeleted, "success", "")
	f.observe("DeleteBucket", "ok", start)
	f.dispatch.Dispatch(ctx, bucket, events.Event{
		Type:      events.EventBucketDeleted,
		Timestamp: time.Now(),
		Principal: principal,
		Entity:    events.S3EventEntity{Bucket: events.BucketInfo{Name: bucket}},
	})
	return nil
}

// GetBucket returns a bucket's metadata.
func (f *Facade) GetBucket(ctx context.Context, bucket string) (*metadata.BucketMetadata, error) {
	return f.meta.GetBucket(ctx, bucket)
}

// ListBuckets returns every bucket.
func (f *Facade) ListBuckets(ctx context.Context) ([]metadata.BucketMetadata, error) {
	return f.meta.ListBuckets(ctx)
}

// HeadBucket reports whether bucket exists, returning NoSuchBucket if not.
func (f *Facade) HeadBucket(ctx context.Context, bucket string) error {
	_, err := f.meta.GetBucket(ctx, bucket)
	return err
}

// Config returns the bucket configuration registry, for callers that need
// versioning/ACL/lifecycle/replication/notification/CORS/tag access
// directly (the bucket-config setters/getters are already lock-guarded and
// need no further wrapping here).
func (f *Facade) Config() *bucketconfig.Registry { return f.config }

// --- Objects -------------------------------------------------------------

// PutObject writes a new object version under the (bucket,key)
// writer-exclusion lock, then enqueues any matching replication rules and dispatches a
// created event.
func (f *Facade) PutObject(ctx context.Context, bucket, key string, data io.Reader, opts objectstore.PutOptions, principal string) (*objectstore.PutResult, error) {
	start := time.Now()
	unlock := f.locker.Lock(bucket, key)
	defer unlock()

	opts.VersioningEnabled = f.config.IsVersioningEnabled(ctx, bucket)

	result, err := f.objects.Put(ctx, bucket, key, data, opts)
	if err != nil {
		f.observe("PutObject", "error", start)
		f.audit(ctx, bucket, key, principal, audit.EventObjectPut, "failure", err.Error())
		return nil, err
	}

	telemetry.IncStorageBytes(result.Size)
	telemetry.IncStorageObjects()
	telemetry.IncBucketObjects(bucket)
	telemetry.IncBucketBytes(bucket, result.Size)
	f.audit(ctx, bucket, key, principal, audit.EventObjectPut, "success", "")
	f.observe("PutObject", "ok", start)

	f.enqueueReplication(ctx, bucket, key, result.VersionID)
	f.dispatch.Dispatch(ctx, bucket, events.Event{
		Type:      events.EventObjectCreatedPut,
		Timestamp: time.Now(),
		Principal: principal,
		Entity: events.S3EventEntity{
			Bucket: events.BucketInfo{Name: bucket},
			Object: events.ObjectInfo{Key: key, Size: result.Size, ETag: result.ETag, VersionID: result.VersionID},
		},
	})
	return result, nil
}

func (f *Facade) enqueueReplication(ctx context.Context, bucket, key, versionID string) {
	if f.repl == nil || f.replReg == nil {
		return
	}
	rules, err := f.replReg.Rules(ctx, bucket)
	if err != nil || len(rules) == 0 {
		return
	}
	for _, rule := range replication.MatchingRules(rules, key) {
		rule := rule
		f.repl.Enqueue(replication.Task{
			Bucket:    bucket,
			Key:       key,
			VersionID: versionID,
			Rule:      rule,
			Open: func() (io.ReadCloser, int64, error) {
				res, err := f.objects.Get(ctx, bucket, key, versionID, nil)
				if err != nil {
					return nil, 0, err
				}
				return res.Body, res.Size, nil
			},
		})
	}
}

// GetObject opens an object version for reading. The (bucket,key) read
// lock is held only long enough to resolve metadata and open the data
// file, then released before this call returns; the caller must Close the
// returned result's Body to release the open file (locks
// guard metadata and path resolution, not the full streamed transfer).
func (f *Facade) GetObject(ctx context.Context, bucket, key, versionID string, rng *chunkio.Range, principal string) (*objectstore.GetResult, error) {
	start := time.Now()
	unlock := f.locker.RLock(bucket, key)
	result, err := f.objects.Get(ctx, bucket, key, versionID, rng)
	unlock()
	if err != nil {
		f.observe("GetObject", "error", start)
		f.audit(ctx, bucket, key, principal, audit.EventObjectGet, "failure", err.Error())
		return nil, err
	}
	f.audit(ctx, bucket, key, principal, audit.EventObjectGet, "success", "")
	f.observe("GetObject", "ok", start)
	return result, nil
}

// HeadObject returns a version's metadata without opening its data.
func (f *Facade) HeadObject(ctx context.Context, bucket, key, versionID string) (*metadata.ObjectMetadata, error) {
	unlock := f.locker.RLock(bucket, key)
	defer unlock()
	return f.objects.Head(ctx, bucket, key, versionID)
}

// DeleteObject removes (or marks deleted, per versioning status) one
// object version.
func (f *Facade) DeleteObject(ctx context.Context, bucket, key, versionID, principal string) (*objectstore.DeleteResult, error) {
	start := time.Now()
	unlock := f.locker.Lock(bucket, key)
	defer unlock()

	versioningEnabled := f.config.IsVersioningEnabled(ctx, bucket)
	result, err := f.objects.Delete(ctx, bucket, key, versionID, versioningEnabled)
	if err != nil {
		f.observe("DeleteObject", "error", start)
		f.audit(ctx, bucket, key, principal, audit.EventObjectDeleted, "failure", err.Error())
		return nil, err
	}
	if !result.DeleteMarker {
		telemetry.DecStorageObjects()
		telemetry.DecStorageBytes(result.Size)
		telemetry.DecBucketObjects(bucket)
		telemetry.DecBucketBytes(bucket, result.Size)
	}
	f.audit(ctx, bucket, key, principal, audit.EventObjectDeleted, "success", "")
	f.observe("DeleteObject", "ok", start)
	f.dispatch.Dispatch(ctx, bucket, events.Event{
		Type:      events.EventObjectRemoved,
		Timestamp: time.Now(),
		Principal: principal,
		Entity:    events.S3EventEntity{Bucket: events.BucketInfo{Name: bucket}, Object: events.ObjectInfo{Key: key, VersionID: result.VersionID}},
	})
	return result, nil
}

// DeleteObjects removes multiple (key, versionID) pairs, taking each key's
// writer-exclusion lock in turn so concurrent single-object writes stay
// correctly serialized against the batch.
func (f *Facade) DeleteObjects(ctx context.Context, bucket string, items []objectstore.DeleteObjectsItem, principal string) ([]objectstore.DeleteResult, []objectstore.DeleteObjectsError) {
	versioningEnabled := f.config.IsVersioningEnabled(ctx, bucket)

	var results []objectstore.DeleteResult
	var errs []objectstore.DeleteObjectsError
	for _, item := range items {
		unlock := f.locker.Lock(bucket, item.Key)
		res, err := f.objects.Delete(ctx, bucket, item.Key, item.VersionID, versioningEnabled)
		unlock()
		if err != nil {
			errs = append(errs, objectstore.DeleteObjectsError{Key: item.Key, VersionID: item.VersionID, Err: err})
			f.audit(ctx, bucket, item.Key, principal, audit.EventObjectDeleted, "failure", err.Error())
			continue
		}
		if !res.DeleteMarker {
			telemetry.DecStorageObjects()
			telemetry.DecStorageBytes(res.Size)
			telemetry.DecBucketObjects(bucket)
			telemetry.DecBucketBytes(bucket, res.Size)
		}
		f.audit(ctx, bucket, item.Key, principal, audit.EventObjectDeleted, "success", "")
		results = append(results, *res)
	}
	return results, errs
}

// CopyObject copies srcKey's bytes into a new version of dstKey.
func (f *Facade) CopyObject(ctx context.Context, srcBucket, srcKey, srcVersionID, dstBucket, dstKey string, opts objectstore.PutOptions, principal string) (*objectstore.PutResult, error) {
	start := time.Now()
	unlock := f.locker.Lock(dstBucket, dstKey)
	defer unlock()

	opts.VersioningEnabled = f.config.IsVersioningEnabled(ctx, dstBucket)
	result, err := f.objects.Copy(ctx, srcBucket, srcKey, srcVersionID, dstBucket, dstKey, opts)
	if err != nil {
		f.observe("CopyObject", "error", start)
		f.audit(ctx, dstBucket, dstKey, principal, audit.EventObjectCopy, "failure", err.Error())
		return nil, err
	}
	telemetry.IncStorageBytes(result.Size)
	telemetry.IncStorageObjects()
	telemetry.IncBucketObjects(dstBucket)
	telemetry.IncBucketBytes(dstBucket, result.Size)
	f.audit(ctx, dstBucket, dstKey, principal, audit.EventObjectCopy, "success", "")
	f.observe("CopyObject", "ok", start)
	f.enqueueReplication(ctx, dstBucket, dstKey, result.VersionID)
	f.dispatch.Dispatch(ctx, dstBucket, events.Event{
		Type:      events.EventObjectCreatedCopy,
		Timestamp: time.Now(),
		Principal: principal,
		Entity: events.S3EventEntity{
			Bucket: events.BucketInfo{Name: dstBucket},
			Object: events.ObjectInfo{Key: dstKey, Size: result.Size, ETag: result.ETag, VersionID: result.VersionID},
		},
	})
	return result, nil
}

// VerifyIntegrity re-hashes a single-part version's bytes and compares them
// against its ETag; a multipart version is checked by size and recorded
// part digests only.
func (f *Facade) VerifyIntegrity(ctx context.Context, bucket, key, versionID string) (bool, error) {
	unlock := f.locker.RLock(bucket, key)
	defer unlock()
	return f.objects.VerifyIntegrity(ctx, bucket, key, versionID)
}

// --- Per-object attributes -------------------------------------------------

// SetObjectTags replaces a version's tag set.
func (f *Facade) SetObjectTags(ctx context.Context, bucket, key, versionID string, tags map[string]string) (*metadata.ObjectMetadata, error) {
	unlock := f.locker.Lock(bucket, key)
	defer unlock()
	return f.meta.UpdateObjectAttributes(ctx, bucket, key, versionID, func(m *metadata.ObjectMetadata) {
		m.Tags = tags
	})
}

// GetObjectTags returns a version's tag set.
func (f *Facade) GetObjectTags(ctx context.Context, bucket, key, versionID string) (map[string]string, error) {
	unlock := f.locker.RLock(bucket, key)
	defer unlock()
	meta, err := f.meta.GetMetadata(ctx, bucket, key, versionID)
	if err != nil {
		return nil, err
	}
	return meta.Tags, nil
}

// SetObjectStorageClass changes a version's storage-class label.
func (f *Facade) SetObjectStorageClass(ctx context.Context, bucket, key, versionID, storageClass string) (*metadata.ObjectMetadata, error) {
	unlock := f.locker.Lock(bucket, key)
	defer unlock()
	return f.meta.UpdateObjectAttributes(ctx, bucket, key, versionID, func(m *metadata.ObjectMetadata) {
		m.StorageClass = storageClass
	})
}

// SetObjectLegalHold turns a version's legal hold on or off. A legal hold
// blocks Delete regardless of any retention mode.
func (f *Facade) SetObjectLegalHold(ctx context.Context, bucket, key, versionID string, hold metadata.LegalHold) (*metadata.ObjectMetadata, error) {
	unlock := f.locker.Lock(bucket, key)
	defer unlock()
	return f.meta.UpdateObjectAttributes(ctx, bucket, key, versionID, func(m *metadata.ObjectMetadata) {
		m.LegalHold = hold
	})
}

// SetObjectLock sets or clears a version's retention mode/date. Tightening
// an existing Compliance lock's retainUntil forward is allowed; the caller
// (not this layer) is responsible for rejecting a shortening request, since
// that policy decision belongs to the bypass-capability check ahead of the
// façade.
func (f *Facade) SetObjectLock(ctx context.Context, bucket, key, versionID string, lock *metadata.ObjectLock) (*metadata.ObjectMetadata, error) {
	unlock := f.locker.Lock(bucket, key)
	defer unlock()
	return f.meta.UpdateObjectAttributes(ctx, bucket, key, versionID, func(m *metadata.ObjectMetadata) {
		m.Lock = lock
	})
}

// SetObjectACL replaces a version's ACL sidecar.
func (f *Facade) SetObjectACL(ctx context.Context, bucket, key, versionID string, acl *metadata.ACL) error {
	unlock := f.locker.Lock(bucket, key)
	defer unlock()
	return f.meta.PutObjectACL(ctx, bucket, key, versionID, acl)
}

// GetObjectACL returns a version's ACL sidecar.
func (f *Facade) GetObjectACL(ctx context.Context, bucket, key, versionID string) (*metadata.ACL, error) {
	unlock := f.locker.RLock(bucket, key)
	defer unlock()
	return f.meta.GetObjectACL(ctx, bucket, key, versionID)
}

// --- Events ----------------------------------------------------------------

// PublishEvent constructs and dispatches a typed event record for bucket
// directly, for callers driving events the façade's own write operations
// don't raise automatically (e.g. a replication or restore completion). It
// also appends an audit entry under the same event type, matching the
// record-then-dispatch order every other façade operation follows.
func (f *Facade) PublishEvent(ctx context.Context, bucket string, eventType events.EventType, key string, userMetadata map[string]string, principal, sourceIP string) {
	f.audit(ctx, bucket, key, principal, audit.EventType(eventType), "success", "")
	f.dispatch.Dispatch(ctx, bucket, events.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Principal: principal,
		SourceIP:  sourceIP,
		Entity: events.S3EventEntity{
			Bucket: events.BucketInfo{Name: bucket},
			Object: events.ObjectInfo{Key: key, UserMetadata: userMetadata},
		},
	})
}

// --- Listing -------------------------------------------------------------

// ListObjects lists a bucket's current object versions.
func (f *Facade) ListObjects(ctx context.Context, bucket string, opts metadata.ListOptions) (*metadata.ListResult, error) {
	return f.list.ListObjects(ctx, bucket, opts)
}

// ListObjectVersions lists every retained version of every key in bucket.
func (f *Facade) ListObjectVersions(ctx context.Context, bucket string, opts metadata.ListOptions) (*metadata.ListVersionsResult, error) {
	return f.list.ListObjectVersions(ctx, bucket, opts)
}

// --- Multipart -------------------------------------------------------------

// CreateMultipartUpload starts a new multipart upload.
func (f *Facade) CreateMultipartUpload(ctx context.Context, bucket, key string, opts multipart.CreateOptions) (string, error) {
	return f.multi.Create(ctx, bucket, key, opts)
}

// UploadPart stores one numbered part of an in-progress upload.
func (f *Facade) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, data io.Reader) (*multipart.PartResult, error) {
	return f.multi.UploadPart(ctx, bucket, key, uploadID, partNumber, data)
}

// UploadPartCopy populates a part from a byte range of an existing object.
func (f *Facade) UploadPartCopy(ctx context.Context, bucket, key, uploadID string, partNumber int, srcBucket, srcKey, srcVersionID string, rng *chunkio.Range) (*multipart.PartResult, error) {
	return f.multi.UploadPartCopy(ctx, bucket, key, uploadID, partNumber, srcBucket, srcKey, srcVersionID, rng)
}

// CompleteMultipartUpload assembles the uploaded parts into the final
// object version under bucket/key's writer-exclusion lock.
func (f *Facade) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, requested []multipart.RequestedPart, principal string) (*multipart.CompleteResult, error) {
	start := time.Now()
	unlock := f.locker.Lock(bucket, key)
	defer unlock()

	versioningEnabled := f.config.IsVersioningEnabled(ctx, bucket)
	result, err := f.multi.Complete(ctx, bucket, key, uploadID, requested, versioningEnabled)
	if err != nil {
		f.observe("CompleteMultipartUpload", "error", start)
		f.audit(ctx, bucket, key, principal, audit.EventMultipartComplete, "failure", err.Error())
		return nil, err
	}
	telemetry.IncStorageBytes(result.Size)
	telemetry.IncStorageObjects()
	telemetry.IncBucketObjects(bucket)
	telemetry.IncBucketBytes(bucket, result.Size)
	f.audit(ctx, bucket, key, principal, audit.EventMultipartComplete, "success", "")
	f.observe("CompleteMultipartUpload", "ok", start)
	f.enqueueReplication(ctx, bucket, key, result.VersionID)
	f.dispatch.Dispatch(ctx, bucket, events.Event{
		Type:      events.EventObjectCreatedMultipart,
		Timestamp: time.Now(),
		Principal: principal,
		Entity: events.S3EventEntity{
			Bucket: events.BucketInfo{Name: bucket},
			Object: events.ObjectInfo{Key: key, Size: result.Size, ETag: result.ETag, VersionID: result.VersionID},
		},
	})
	return result, nil
}

// AbortMultipartUpload discards an in-progress upload and its parts.
func (f *Facade) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	return f.multi.Abort(ctx, bucket, key, uploadID)
}

// ListParts returns the parts uploaded so far for uploadID.
func (f *Facade) ListParts(ctx context.Context, bucket, key, uploadID string) ([]metadata.PartMetadata, error) {
	return f.multi.ListParts(ctx, bucket, key, uploadID)
}

// ListMultipartUploads returns bucket's in-progress uploads.
func (f *Facade) ListMultipartUploads(ctx context.Context, bucket string) ([]metadata.MultipartUploadInfo, error) {
	return f.multi.ListUploads(ctx, bucket)
}

// --- Audit & batch jobs ----------------------------------------------------

// QueryAudit returns audit events matching q.
func (f *Facade) QueryAudit(ctx context.Context, q audit.Query) (*audit.QueryResult, error) {
	if f.ledger == nil {
		return &audit.QueryResult{}, nil
	}
	return f.ledger.Query(ctx, q)
}

// CreateBatchJob registers a new batch job in Pending status.
func (f *Facade) CreateBatchJob(ctx context.Context, operationType, manifestLocation string, priority int) (*batch.Job, error) {
	if f.jobs == nil {
		return nil, apierrors.New(apierrors.InternalError, "batch jobs are not configured")
	}
	return f.jobs.Create(ctx, operationType, manifestLocation, priority)
}

// GetBatchJob returns one batch job by ID.
func (f *Facade) GetBatchJob(ctx context.Context, id string) (*batch.Job, error) {
	if f.jobs == nil {
		return nil, apierrors.New(apierrors.InternalError, "batch jobs are not configured")
	}
	return f.jobs.Get(ctx, id)
}

// ListBatchJobs returns every batch job.
func (f *Facade) ListBatchJobs(ctx context.Context) ([]batch.Job, error) {
	if f.jobs == nil {
		return nil, nil
	}
	return f.jobs.List(ctx)
}

// TransitionBatchJob moves a batch job to its next status.
func (f *Facade) TransitionBatchJob(ctx context.Context, id string, next batch.Status) (*batch.Job, error) {
	if f.jobs == nil {
		return nil, apierrors.New(apierrors.InternalError, "batch jobs are not configured")
	}
	return f.jobs.Transition(ctx, id, next)
}
