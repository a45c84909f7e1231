// Package fsmeta is the JSON-sidecar implementation of metadata.Store.
// Every object version, bucket, and multipart-upload record is a plain
// JSON file beside the data it describes; durability follows the same
// create-temp/fsync/rename discipline as chunkio.
package fsmeta

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/apierrors"
	"github.com/objectvault/storagecore/internal/metadata"
	"github.com/objectvault/storagecore/internal/pathresolver"
)

// versionEntry is one element of a key's version-ordering index.
type versionEntry struct {
	VersionID      string `json:"versionId"`
	IsDeleteMarker bool   `json:"isDeleteMarker"`
	LastModified   int64  `json:"lastModified"`
}

// versionsIndex is the "<key>.versions" sidecar, oldest first, newest
// (current) last.
type versionsIndex struct {
	Entries []versionEntry `json:"entries"`
}

// Store is the filesystem-backed metadata.Store implementation.
type Store struct {
	resolver *pathresolver.Resolver
	logger   *zap.SugaredLogger

	// mu serializes the read-modify-write sequences that update a key's
	// versions index, since a bare SaveMetadata/DeleteMetadata otherwise
	// races on the index file itself. The façade's per-(bucket,key) lock
	// already excludes concurrent writers to the same key, but bucket-wide
	// operations (ListBuckets, DeleteBucket) still touch shared state, so
	// this mutex guards the index file specifically.
	mu sync.Mutex
}

// New creates a Store rooted at root.
func New(root string, logger *zap.SugaredLogger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apierrors.Wrap(apierrors.InternalError, "create root directory", err)
	}
	if logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		logger = l.Sugar()
	}
	return &Store{resolver: pathresolver.New(root), logger: logger}, nil
}

// Resolver exposes the underlying path resolver for components (objectstore,
// multipart, listing) that need to compute data-file paths consistently
// with metadata paths.
func (s *Store) Resolver() *pathresolver.Resolver { return s.resolver }

func (s *Store) Close() error { return nil }

// --- generic JSON sidecar I/O -------------------------------------------

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return apierrors.Wrap(apierrors.InternalError, "read "+path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apierrors.Wrap(apierrors.InternalError, "decode "+path, err)
	}
	return nil
}

func writeJSONAtomic(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apierrors.Wrap(apierrors.InternalError, "create parent directory", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apierrors.Wrap(apierrors.InternalError, "encode "+path, err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return apierrors.Wrap(apierrors.InternalError, "create temp file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return apierrors.Wrap(apierrors.InternalError, "write "+path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return apierrors.Wrap(apierrors.InternalError, "fsync "+path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return apierrors.Wrap(apierrors.InternalError, "close "+path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apierrors.Wrap(apierrors.InternalError, "rename into place", err)
	}
	return nil
}

// --- buckets --------------------------------------------------------------

func (s *Store) CreateBucket(ctx context.Context, bucket, owner string) error {
	dir := s.resolver.BucketDir(bucket)
	if _, err := os.Stat(dir); err == nil {
		return apierrors.New(apierrors.BucketAlreadyExists, bucket)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apierrors.Wrap(apierrors.InternalError, "create bucket directory", err)
	}
	meta := metadata.BucketMetadata{Name: bucket, Owner: owner, CreatedAt: nowMillis()}
	return writeJSONAtomic(s.resolver.BucketMetadataPath(bucket), &meta)
}

func (s *Store) DeleteBucket(ctx context.Context, bucket string) error {
	empty, err := s.BucketIsEmpty(ctx, bucket)
	if err != nil {
		return err
	}
	if !empty {
		return apierrors.New(apierrors.BucketNotEmpty, bucket)
	}
	if err := os.RemoveAll(s.resolver.BucketDir(bucket)); err != nil {
		return apierrors.Wrap(apierrors.InternalError, "remove bucket directory", err)
	}
	return nil
}

func (s *Store) GetBucket(ctx context.Context, bucket string) (*metadata.BucketMetadata, error) {
	var meta metadata.BucketMetadata
	if err := readJSON(s.resolver.BucketMetadataPath(bucket), &meta); err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchBucket, bucket)
		}
		return nil, err
	}
	return &meta, nil
}

func (s *Store) ListBuckets(ctx context.Context) ([]metadata.BucketMetadata, error) {
	entries, err := os.ReadDir(s.resolver.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apierrors.Wrap(apierrors.InternalError, "read root directory", err)
	}
	var out []metadata.BucketMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.GetBucket(ctx, e.Name())
		if err != nil {
			continue
		}
		out = append(out, *meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) BucketIsEmpty(ctx context.Context, bucket string) (bool, error) {
	dir := s.resolver.BucketDir(bucket)
	empty := true
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			if filepath.Base(path) == ".uploads" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".versions") {
			empty = false
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return false, apierrors.New(apierrors.NoSuchBucket, bucket)
		}
		return false, apierrors.Wrap(apierrors.InternalError, "walk bucket directory", err)
	}
	return empty, nil
}

// --- object version metadata ----------------------------------------------

func (s *Store) loadIndex(bucket, key string) (*versionsIndex, error) {
	var idx versionsIndex
	if err := readJSON(s.resolver.VersionsIndexPath(bucket, key), &idx); err != nil {
		if os.IsNotExist(err) {
			return &versionsIndex{}, nil
		}
		return nil, err
	}
	return &idx, nil
}

func (s *Store) saveIndex(bucket, key string, idx *versionsIndex) error {
	return writeJSONAtomic(s.resolver.VersionsIndexPath(bucket, key), idx)
}

func (s *Store) GetMetadata(ctx context.Context, bucket, key, versionID string) (*metadata.ObjectMetadata, error) {
	if versionID == "" || versionID == pathresolver.NullVersion {
		idx, err := s.loadIndex(bucket, key)
		if err != nil {
			return nil, err
		}
		if len(idx.Entries) == 0 {
			return nil, apierrors.New(apierrors.NoSuchKey, key)
		}
		versionID = idx.Entries[len(idx.Entries)-1].VersionID
	}
	var meta metadata.ObjectMetadata
	if err := readJSON(s.resolver.MetadataPath(bucket, key, versionID), &meta); err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchVersion, versionID)
		}
		return nil, err
	}
	return &meta, nil
}

// UpdateObjectAttributes rewrites the mutable fields of an already-persisted
// version in place: it never touches the versions index, so isLatest and
// version ordering are unaffected (tags, storage-class, lock,
// and legal-hold are the only fields a version may change post-write).
func (s *Store) UpdateObjectAttributes(ctx context.Context, bucket, key, versionID string, mutate func(*metadata.ObjectMetadata)) (*metadata.ObjectMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.GetMetadata(ctx, bucket, key, versionID)
	if err != nil {
		return nil, err
	}
	mutate(meta)
	if err := writeJSONAtomic(s.resolver.MetadataPath(bucket, key, meta.VersionID), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveMetadata appends or overwrites a key's current version, maintaining
// the single-isLatest invariant. When
// versioningEnabled is false the write always lands on the "null" version,
// replacing any prior null entry while leaving other explicit versions (from
// a period when versioning was enabled) untouched in history.
func (s *Store) SaveMetadata(ctx context.Context, meta *metadata.ObjectMetadata, versioningEnabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex(meta.Bucket, meta.Key)
	if err != nil {
		return err
	}

	if meta.VersionID == "" {
		if versioningEnabled {
			meta.VersionID = uuid.New().String()
		} else {
			meta.VersionID = pathresolver.NullVersion
		}
	}

	if !versioningEnabled {
		filtered := idx.Entries[:0]
		for _, e := range idx.Entries {
			if e.VersionID != pathresolver.NullVersion {
				filtered = append(filtered, e)
			}
		}
		idx.Entries = filtered
	}

	// Demote the current latest, if any.
	if len(idx.Entries) > 0 {
		prev := idx.Entries[len(idx.Entries)-1]
		if err := s.setIsLatest(meta.Bucket, meta.Key, prev.VersionID, false); err != nil {
			return err
		}
	}

	meta.IsLatest = true
	if meta.LastModified == 0 {
		meta.LastModified = nowMillis()
	}
	if err := writeJSONAtomic(s.resolver.MetadataPath(meta.Bucket, meta.Key, meta.VersionID), meta); err != nil {
		return err
	}

	idx.Entries = append(idx.Entries, versionEntry{
		VersionID:      meta.VersionID,
		IsDeleteMarker: meta.IsDeleteMarker,
		LastModified:   meta.LastModified,
	})
	return s.saveIndex(meta.Bucket, meta.Key, idx)
}

func (s *Store) setIsLatest(bucket, key, versionID string, latest bool) error {
	path := s.resolver.MetadataPath(bucket, key, versionID)
	var meta metadata.ObjectMetadata
	if err := readJSON(path, &meta); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if meta.IsLatest == latest {
		return nil
	}
	meta.IsLatest = latest
	return writeJSONAtomic(path, &meta)
}

// DeleteMetadata permanently removes one version's sidecar record and, if it
// was the current version, promotes the next-newest remaining version.
func (s *Store) DeleteMetadata(ctx context.Context, bucket, key, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex(bucket, key)
	if err != nil {
		return err
	}
	if versionID == "" {
		versionID = pathresolver.NullVersion
	}

	pos := -1
	for i, e := range idx.Entries {
		if e.VersionID == versionID {
			pos = i
			break
		}
	}
	if pos == -1 {
		return apierrors.New(apierrors.NoSuchVersion, versionID)
	}
	wasLatest := pos == len(idx.Entries)-1

	if err := os.Remove(s.resolver.MetadataPath(bucket, key, versionID)); err != nil && !os.IsNotExist(err) {
		return apierrors.Wrap(apierrors.InternalError, "remove metadata sidecar", err)
	}
	removeQuiet(s.resolver.ACLPath(bucket, key, versionID))

	idx.Entries = append(idx.Entries[:pos], idx.Entries[pos+1:]...)

	if len(idx.Entries) == 0 {
		return os.Remove(s.resolver.VersionsIndexPath(bucket, key))
	}
	if wasLatest {
		if err := s.setIsLatest(bucket, key, idx.Entries[len(idx.Entries)-1].VersionID, true); err != nil {
			return err
		}
	}
	return s.saveIndex(bucket, key, idx)
}

func removeQuiet(path string) { _ = os.Remove(path) }

func nowMillis() int64 { return time.Now().UnixMilli() }

// --- listing ---------------------------------------------------------------

func (s *Store) walkKeys(bucket string, fn func(key string) error) error {
	dir := s.resolver.BucketDir(bucket)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if filepath.Base(path) == ".uploads" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".versions") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(strings.TrimSuffix(rel, ".versions"))
		return fn(key)
	})
}

func (s *Store) ListObjects(ctx context.Context, bucket string, opts metadata.ListOptions) (*metadata.ListResult, error) {
	var keys []string
	if err := s.walkKeys(bucket, func(key string) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return nil, apierrors.Wrap(apierrors.InternalError, "walk bucket keys", err)
	}
	sort.Strings(keys)

	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}
	marker := opts.Marker
	if opts.ContinuationToken != "" {
		marker = opts.ContinuationToken
	}

	result := &metadata.ListResult{}
	commonPrefixSet := map[string]bool{}

	// lastEmitted tracks the last key that actually produced an object or a
	// new common prefix. On truncation both pagination tokens resume from
	// this key, not from the key that triggered truncation (which itself
	// has not been emitted yet and must reappear on the next page).
	var lastEmitted string

	for _, key := range keys {
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		if marker != "" && key <= marker {
			continue
		}
		if opts.Delimiter != "" {
			rest := strings.TrimPrefix(key, opts.Prefix)
			if idx := strings.Index(rest, opts.Delimiter); idx >= 0 {
				cp := opts.Prefix + rest[:idx+len(opts.Delimiter)]
				if !commonPrefixSet[cp] {
					if len(result.Objects)+len(commonPrefixSet) >= maxKeys {
						result.IsTruncated = true
						result.NextMarker = lastEmitted
						result.NextContinuationToken = lastEmitted
						break
					}
					commonPrefixSet[cp] = true
					result.CommonPrefixes = append(result.CommonPrefixes, cp)
				}
				// Every key collapsing into an already-seen common prefix
				// still advances the resume point: it was already folded
				// into this page's output, so the next page's marker must
				// skip past it too, or it would regenerate the same prefix.
				lastEmitted = key
				continue
			}
		}

		idx, err := s.loadIndex(bucket, key)
		if err != nil || len(idx.Entries) == 0 {
			continue
		}
		latest := idx.Entries[len(idx.Entries)-1]
		if latest.IsDeleteMarker {
			continue
		}
		if len(result.Objects)+len(result.CommonPrefixes) >= maxKeys {
			result.IsTruncated = true
			result.NextMarker = lastEmitted
			result.NextContinuationToken = lastEmitted
			break
		}
		var meta metadata.ObjectMetadata
		if err := readJSON(s.resolver.MetadataPath(bucket, key, latest.VersionID), &meta); err != nil {
			continue
		}
		result.Objects = append(result.Objects, meta)
		lastEmitted = key
	}

	sort.Strings(result.CommonPrefixes)
	return result, nil
}

func (s *Store) ListObjectVersions(ctx context.Context, bucket string, opts metadata.ListOptions) (*metadata.ListVersionsResult, error) {
	var keys []string
	if err := s.walkKeys(bucket, func(key string) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return nil, apierrors.Wrap(apierrors.InternalError, "walk bucket keys", err)
	}
	sort.Strings(keys)

	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	result := &metadata.ListVersionsResult{}
	var lastKey, lastVersionID string
	for _, key := range keys {
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		if opts.Marker != "" && key < opts.Marker {
			continue
		}
		idx, err := s.loadIndex(bucket, key)
		if err != nil {
			continue
		}
		// Newest first within a key, matching ListObjectVersions ordering.
		versions := make([]metadata.ObjectMetadata, 0, len(idx.Entries))
		for i := len(idx.Entries) - 1; i >= 0; i-- {
			var meta metadata.ObjectMetadata
			if err := readJSON(s.resolver.MetadataPath(bucket, key, idx.Entries[i].VersionID), &meta); err != nil {
				continue
			}
			versions = append(versions, meta)
		}
		startIdx := 0
		if opts.Marker == key && opts.ContinuationToken != "" {
			// Resume after the last version emitted for this key on a prior
			// page: find its position in traversal order rather than
			// comparing versionID strings, since version IDs are random
			// UUIDs with no relation to lastModified ordering.
			for i, v := range versions {
				if v.VersionID == opts.ContinuationToken {
					startIdx = i + 1
					break
				}
			}
		}
		for _, v := range versions[startIdx:] {
			if len(result.Versions) >= maxKeys {
				result.IsTruncated = true
				result.NextKeyMarker = lastKey
				result.NextVersionIDMarker = lastVersionID
				return result, nil
			}
			result.Versions = append(result.Versions, v)
			lastKey, lastVersionID = key, v.VersionID
		}
	}
	return result, nil
}

// --- multipart uploads -------------------------------------------------

func (s *Store) CreateMultipartUpload(ctx context.Context, info *metadata.MultipartUploadInfo) error {
	if info.CreatedAt == 0 {
		info.CreatedAt = nowMillis()
	}
	return writeJSONAtomic(s.resolver.UploadInfoPath(info.Bucket, info.UploadID), info)
}

func (s *Store) GetMultipartUpload(ctx context.Context, bucket, key, uploadID string) (*metadata.MultipartUploadInfo, error) {
	var info metadata.MultipartUploadInfo
	if err := readJSON(s.resolver.UploadInfoPath(bucket, uploadID), &info); err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchUpload, uploadID)
		}
		return nil, err
	}
	if info.Key != key {
		return nil, apierrors.New(apierrors.NoSuchUpload, uploadID)
	}
	return &info, nil
}

func partMetaPath(resolver *pathresolver.Resolver, bucket, uploadID string, partNumber int) string {
	return resolver.UploadPartPath(bucket, uploadID, partNumber) + ".meta"
}

func (s *Store) PutPart(ctx context.Context, part *metadata.PartMetadata) error {
	return writeJSONAtomic(partMetaPath(s.resolver, part.Bucket, part.UploadID, part.PartNumber), part)
}

func (s *Store) ListParts(ctx context.Context, bucket, key, uploadID string) ([]metadata.PartMetadata, error) {
	dir := s.resolver.UploadDir(bucket, uploadID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchUpload, uploadID)
		}
		return nil, apierrors.Wrap(apierrors.InternalError, "read upload directory", err)
	}
	var parts []metadata.PartMetadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".meta") {
			continue
		}
		var part metadata.PartMetadata
		if err := readJSON(filepath.Join(dir, e.Name()), &part); err != nil {
			continue
		}
		parts = append(parts, part)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts, nil
}

func (s *Store) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	if err := os.RemoveAll(s.resolver.UploadDir(bucket, uploadID)); err != nil {
		return apierrors.Wrap(apierrors.InternalError, "remove upload directory", err)
	}
	return nil
}

func (s *Store) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	return s.AbortMultipartUpload(ctx, bucket, key, uploadID)
}

func (s *Store) ListMultipartUploads(ctx context.Context, bucket string) ([]metadata.MultipartUploadInfo, error) {
	dir := s.resolver.UploadsDir(bucket)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apierrors.Wrap(apierrors.InternalError, "read uploads directory", err)
	}
	var uploads []metadata.MultipartUploadInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var info metadata.MultipartUploadInfo
		if err := readJSON(s.resolver.UploadInfoPath(bucket, e.Name()), &info); err != nil {
			continue
		}
		uploads = append(uploads, info)
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].CreatedAt < uploads[j].CreatedAt })
	return uploads, nil
}

// ListUploadDirsForSweep enumerates every upload directory under bucket,
// including ones whose info.json is missing or fails to parse, so an
// orphan sweep can remove corrupt uploads that ListMultipartUploads hides
// from ordinary callers.
func (s *Store) ListUploadDirsForSweep(ctx context.Context, bucket string) ([]metadata.SweepableUpload, error) {
	dir := s.resolver.UploadsDir(bucket)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apierrors.Wrap(apierrors.InternalError, "read uploads directory", err)
	}
	var uploads []metadata.SweepableUpload
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var info metadata.MultipartUploadInfo
		if err := readJSON(s.resolver.UploadInfoPath(bucket, e.Name()), &info); err != nil {
			uploads = append(uploads, metadata.SweepableUpload{UploadID: e.Name(), Unreadable: true})
			continue
		}
		uploads = append(uploads, metadata.SweepableUpload{UploadID: e.Name(), Info: &info})
	}
	return uploads, nil
}

// --- bucket configuration ---------------------------------------------

func (s *Store) PutBucketVersioning(ctx context.Context, bucket string, v *metadata.BucketVersioning) error {
	return writeJSONAtomic(s.resolver.VersioningPath(bucket), v)
}

func (s *Store) GetBucketVersioning(ctx context.Context, bucket string) (*metadata.BucketVersioning, error) {
	var v metadata.BucketVersioning
	if err := readJSON(s.resolver.VersioningPath(bucket), &v); err != nil {
		if os.IsNotExist(err) {
			return &metadata.BucketVersioning{Status: metadata.VersioningDisabled}, nil
		}
		return nil, err
	}
	return &v, nil
}

func (s *Store) PutBucketACL(ctx context.Context, bucket string, acl *metadata.ACL) error {
	return writeJSONAtomic(s.resolver.BucketACLPath(bucket), acl)
}

func (s *Store) GetBucketACL(ctx context.Context, bucket string) (*metadata.ACL, error) {
	var acl metadata.ACL
	if err := readJSON(s.resolver.BucketACLPath(bucket), &acl); err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchBucket, bucket)
		}
		return nil, err
	}
	return &acl, nil
}

func (s *Store) PutBucketPolicy(ctx context.Context, bucket string, policy *string) error {
	return writeJSONAtomic(s.resolver.BucketPolicyPath(bucket), policy)
}

func (s *Store) GetBucketPolicy(ctx context.Context, bucket string) (*string, error) {
	var policy string
	if err := readJSON(s.resolver.BucketPolicyPath(bucket), &policy); err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchBucketPolicy, bucket)
		}
		return nil, err
	}
	return &policy, nil
}

func (s *Store) DeleteBucketPolicy(ctx context.Context, bucket string) error {
	if err := os.Remove(s.resolver.BucketPolicyPath(bucket)); err != nil && !os.IsNotExist(err) {
		return apierrors.Wrap(apierrors.InternalError, "remove bucket policy", err)
	}
	return nil
}

func (s *Store) PutLifecycleRules(ctx context.Context, bucket string, rules []metadata.LifecycleRule) error {
	return writeJSONAtomic(s.resolver.LifecyclePath(bucket), rules)
}

func (s *Store) GetLifecycleRules(ctx context.Context, bucket string) ([]metadata.LifecycleRule, error) {
	var rules []metadata.LifecycleRule
	if err := readJSON(s.resolver.LifecyclePath(bucket), &rules); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return rules, nil
}

func (s *Store) PutReplicationConfig(ctx context.Context, bucket string, cfg *metadata.ReplicationConfig) error {
	return writeJSONAtomic(s.resolver.ReplicationPath(bucket), cfg)
}

func (s *Store) GetReplicationConfig(ctx context.Context, bucket string) (*metadata.ReplicationConfig, error) {
	var cfg metadata.ReplicationConfig
	if err := readJSON(s.resolver.ReplicationPath(bucket), &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) PutNotificationConfig(ctx context.Context, bucket string, cfg *metadata.NotificationConfig) error {
	return writeJSONAtomic(s.resolver.NotificationPath(bucket), cfg)
}

func (s *Store) GetNotificationConfig(ctx context.Context, bucket string) (*metadata.NotificationConfig, error) {
	var cfg metadata.NotificationConfig
	if err := readJSON(s.resolver.NotificationPath(bucket), &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) PutObjectLockConfig(ctx context.Context, bucket string, cfg *metadata.ObjectLockConfig) error {
	return writeJSONAtomic(s.resolver.ObjectLockConfigPath(bucket), cfg)
}

func (s *Store) GetObjectLockConfig(ctx context.Context, bucket string) (*metadata.ObjectLockConfig, error) {
	var cfg metadata.ObjectLockConfig
	if err := readJSON(s.resolver.ObjectLockConfigPath(bucket), &cfg); err != nil {
		if os.IsNotExist(err) {
			return &metadata.ObjectLockConfig{}, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) PutVPCConfig(ctx context.Context, bucket string, cfg *metadata.VPCConfig) error {
	return writeJSONAtomic(s.resolver.VPCConfigPath(bucket), cfg)
}

func (s *Store) GetVPCConfig(ctx context.Context, bucket string) (*metadata.VPCConfig, error) {
	var cfg metadata.VPCConfig
	if err := readJSON(s.resolver.VPCConfigPath(bucket), &cfg); err != nil {
		if os.IsNotExist(err) {
			return &metadata.VPCConfig{}, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) PutBucketCORS(ctx context.Context, bucket string, cfg *metadata.CORSConfig) error {
	return writeJSONAtomic(s.resolver.BucketCORSPath(bucket), cfg)
}

func (s *Store) GetBucketCORS(ctx context.Context, bucket string) (*metadata.CORSConfig, error) {
	var cfg metadata.CORSConfig
	if err := readJSON(s.resolver.BucketCORSPath(bucket), &cfg); err != nil {
		if os.IsNotExist(err) {
			return &metadata.CORSConfig{}, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *Store) PutBucketTags(ctx context.Context, bucket string, tags map[string]string) error {
	return writeJSONAtomic(s.resolver.BucketTagsPath(bucket), tags)
}

func (s *Store) GetBucketTags(ctx context.Context, bucket string) (map[string]string, error) {
	var tags map[string]string
	if err := readJSON(s.resolver.BucketTagsPath(bucket), &tags); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return tags, nil
}

func (s *Store) PutObjectACL(ctx context.Context, bucket, key, versionID string, acl *metadata.ACL) error {
	return writeJSONAtomic(s.resolver.ACLPath(bucket, key, versionID), acl)
}

func (s *Store) GetObjectACL(ctx context.Context, bucket, key, versionID string) (*metadata.ACL, error) {
	var acl metadata.ACL
	if err := readJSON(s.resolver.ACLPath(bucket, key, versionID), &acl); err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchKey, key)
		}
		return nil, err
	}
	return &acl, nil
}

var _ metadata.Store = (*Store)(nil)
