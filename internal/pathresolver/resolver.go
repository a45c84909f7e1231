// Package pathresolver maps (bucket, key, versionId) tuples to deterministic
// on-disk paths.
package pathresolver

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/objectvault/storagecore/internal/apierrors"
)

// NullVersion is the sentinel versionId used when a bucket does not have
// versioning Enabled.
const NullVersion = "null"

// reservedNames are sidecar/config file names that can never be addressed
// as object keys.
var reservedNames = map[string]bool{
	".bucket_metadata":     true,
	".bucket_acl":          true,
	".bucket_policy":       true,
	".bucket_lifecycle":    true,
	".bucket_replication":  true,
	".bucket_notification": true,
	".bucket_lock":         true,
	".bucket_vpc":          true,
	".bucket_tags":         true,
	".bucket_cors":         true,
	"versioning.json":      true,
}

var reservedSuffixes = []string{".metadata", ".acl", ".versions"}

// Resolver resolves bucket/key/version tuples against a root directory.
type Resolver struct {
	root string
}

// New creates a Resolver rooted at root.
func New(root string) *Resolver {
	return &Resolver{root: root}
}

// Root returns the configured root directory.
func (r *Resolver) Root() string { return r.root }

// BucketDir returns the directory holding a bucket's data and sidecars.
func (r *Resolver) BucketDir(bucket string) string {
	return filepath.Join(r.root, bucket)
}

// UploadsDir returns the directory holding in-progress multipart uploads
// for a bucket.
func (r *Resolver) UploadsDir(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".uploads")
}

// UploadDir returns the directory for a single multipart upload.
func (r *Resolver) UploadDir(bucket, uploadID string) string {
	return filepath.Join(r.UploadsDir(bucket), uploadID)
}

// UploadInfoPath returns the info.json path for a multipart upload.
func (r *Resolver) UploadInfoPath(bucket, uploadID string) string {
	return filepath.Join(r.UploadDir(bucket, uploadID), "info.json")
}

// UploadPartPath returns the path of a stored part's bytes.
func (r *Resolver) UploadPartPath(bucket, uploadID string, partNumber int) string {
	return filepath.Join(r.UploadDir(bucket, uploadID), partNumberName(partNumber))
}

// ObjectPath returns the data file path for (bucket, key, versionId).
// versionId == "" or NullVersion addresses the unversioned ("null") file;
// any other versionId addresses the versioned sibling file.
func (r *Resolver) ObjectPath(bucket, key, versionID string) string {
	base := filepath.Join(r.BucketDir(bucket), filepath.FromSlash(key))
	if versionID == "" || versionID == NullVersion {
		return base
	}
	dir := filepath.Dir(base)
	name := filepath.Base(base)
	return filepath.Join(dir, name+"@"+versionID)
}

// VersionsIndexPath returns the path of a key's version-ordering index,
// used to track the current ("isLatest") version and enumerate history
// without relying on directory-entry ordering.
func (r *Resolver) VersionsIndexPath(bucket, key string) string {
	base := filepath.Join(r.BucketDir(bucket), filepath.FromSlash(key))
	return base + ".versions"
}

// MetadataPath returns the sidecar metadata path for an object version.
func (r *Resolver) MetadataPath(bucket, key, versionID string) string {
	return r.ObjectPath(bucket, key, versionID) + ".metadata"
}

// ACLPath returns the sidecar ACL path for an object version.
func (r *Resolver) ACLPath(bucket, key, versionID string) string {
	return r.ObjectPath(bucket, key, versionID) + ".acl"
}

// BucketMetadataPath, BucketACLPath, BucketPolicyPath, VersioningPath and
// the path functions below return the per-bucket reserved sidecar files.
func (r *Resolver) BucketMetadataPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_metadata")
}

func (r *Resolver) BucketACLPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_acl")
}

func (r *Resolver) BucketPolicyPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_policy")
}

func (r *Resolver) VersioningPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), "versioning.json")
}

func (r *Resolver) LifecyclePath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_lifecycle")
}

func (r *Resolver) ReplicationPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_replication")
}

func (r *Resolver) NotificationPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_notification")
}

func (r *Resolver) ObjectLockConfigPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_lock")
}

func (r *Resolver) VPCConfigPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_vpc")
}

func (r *Resolver) BucketTagsPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_tags")
}

func (r *Resolver) BucketCORSPath(bucket string) string {
	return filepath.Join(r.BucketDir(bucket), ".bucket_cors")
}

// ValidateKey rejects keys that collide with reserved sidecar names or
// escape the bucket directory, returning an InvalidKey error.
func ValidateKey(key string) error {
	if key == "" {
		return apierrors.New(apierrors.InvalidKey, "key must not be empty")
	}
	if strings.Contains(key, "..") {
		return apierrors.New(apierrors.InvalidKey, "key must not contain '..' path segments")
	}
	if strings.HasPrefix(key, "/") {
		return apierrors.New(apierrors.InvalidKey, "key must not be absolute")
	}
	base := key
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		base = key[idx+1:]
	}
	if reservedNames[base] || strings.HasPrefix(key, ".uploads/") || key == ".uploads" {
		return apierrors.New(apierrors.InvalidKey, "key collides with a reserved name")
	}
	for _, suffix := range reservedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return apierrors.New(apierrors.InvalidKey, "key must not use a reserved suffix")
		}
	}
	return nil
}

func partNumberName(partNumber int) string {
	return strconv.Itoa(partNumber)
}
