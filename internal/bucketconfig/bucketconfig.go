// Package bucketconfig is the per-bucket configuration registry: ACL,
// versioning, lifecycle, replication, notification, object-lock defaults,
// VPC allow-list, CORS, and tags, each guarded by a per-bucket
// configuration lock and persisted through the fsmeta sidecar convention.
// The lock table mirrors the per-(bucket,key) writer lock in internal/facade,
// keyed here by bucket name alone.
package bucketconfig

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/metadata"
)

// Locker provides one *sync.RWMutex per bucket name, created on first use.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.RWMutex)}
}

func (l *Locker) get(bucket string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[bucket]
	if !ok {
		lk = &sync.RWMutex{}
		l.locks[bucket] = lk
	}
	return lk
}

// Lock acquires the exclusive config lock for bucket.
func (l *Locker) Lock(bucket string) { l.get(bucket).Lock() }

// Unlock releases the exclusive config lock for bucket.
func (l *Locker) Unlock(bucket string) { l.get(bucket).Unlock() }

// RLock acquires the shared config lock for bucket.
func (l *Locker) RLock(bucket string) { l.get(bucket).RLock() }

// RUnlock releases the shared config lock for bucket.
func (l *Locker) RUnlock(bucket string) { l.get(bucket).RUnlock() }

// Registry is the bucket configuration registry.
type Registry struct {
	meta   metadata.Store
	locker *Locker
	logger *zap.SugaredLogger
}

// New creates a Registry backed by meta.
func New(meta metadata.Store, logger *zap.SugaredLogger) *Registry {
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return &Registry{meta: meta, locker: NewLocker(), logger: logger}
}

// SetVersioning applies a bucket's versioning status under the config lock.
// Transitioning into Suspended never retroactively strips existing
// versions; it only affects how future writes are versioned.
func (r *Registry) SetVersioning(ctx context.Context, bucket string, status metadata.VersioningStatus) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutBucketVersioning(ctx, bucket, &metadata.BucketVersioning{Status: status})
}

// GetVersioning returns a bucket's current versioning status.
func (r *Registry) GetVersioning(ctx context.Context, bucket string) (*metadata.BucketVersioning, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetBucketVersioning(ctx, bucket)
}

// IsVersioningEnabled reports whether writes to bucket should be versioned.
func (r *Registry) IsVersioningEnabled(ctx context.Context, bucket string) bool {
	v, err := r.GetVersioning(ctx, bucket)
	if err != nil {
		return false
	}
	return v.Status == metadata.VersioningEnabled
}

// SetACL replaces a bucket's access-control list.
func (r *Registry) SetACL(ctx context.Context, bucket string, acl *metadata.ACL) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutBucketACL(ctx, bucket, acl)
}

// GetACL returns a bucket's access-control list.
func (r *Registry) GetACL(ctx context.Context, bucket string) (*metadata.ACL, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetBucketACL(ctx, bucket)
}

// SetPolicy sets a bucket's raw JSON policy document.
func (r *Registry) SetPolicy(ctx context.Context, bucket string, policyJSON string) error {
	if err := ValidatePolicyJSON(policyJSON); err != nil {
		return err
	}
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutBucketPolicy(ctx, bucket, &policyJSON)
}

// GetPolicy returns a bucket's raw JSON policy document, or nil if unset.
func (r *Registry) GetPolicy(ctx context.Context, bucket string) (*string, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetBucketPolicy(ctx, bucket)
}

// DeletePolicy removes a bucket's policy document.
func (r *Registry) DeletePolicy(ctx context.Context, bucket string) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.DeleteBucketPolicy(ctx, bucket)
}

// SetLifecycleRules replaces a bucket's entire lifecycle rule set. Empty or
// duplicate rule IDs are rejected before the replace-all is persisted.
func (r *Registry) SetLifecycleRules(ctx context.Context, bucket string, rules []metadata.LifecycleRule) error {
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.ID == "" {
			return fmt.Errorf("lifecycle rule must have a non-empty id")
		}
		if seen[rule.ID] {
			return fmt.Errorf("duplicate lifecycle rule id: %s", rule.ID)
		}
		seen[rule.ID] = true
	}

	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutLifecycleRules(ctx, bucket, rules)
}

// GetLifecycleRules returns a bucket's lifecycle rule set.
func (r *Registry) GetLifecycleRules(ctx context.Context, bucket string) ([]metadata.LifecycleRule, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetLifecycleRules(ctx, bucket)
}

// SetReplicationConfig replaces a bucket's replication rule set.
func (r *Registry) SetReplicationConfig(ctx context.Context, bucket string, cfg *metadata.ReplicationConfig) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutReplicationConfig(ctx, bucket, cfg)
}

// GetReplicationConfig returns a bucket's replication rule set.
func (r *Registry) GetReplicationConfig(ctx context.Context, bucket string) (*metadata.ReplicationConfig, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetReplicationConfig(ctx, bucket)
}

// SetNotificationConfig replaces a bucket's event notification rule set.
func (r *Registry) SetNotificationConfig(ctx context.Context, bucket string, cfg *metadata.NotificationConfig) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutNotificationConfig(ctx, bucket, cfg)
}

// GetNotificationConfig returns a bucket's event notification rule set.
func (r *Registry) GetNotificationConfig(ctx context.Context, bucket string) (*metadata.NotificationConfig, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetNotificationConfig(ctx, bucket)
}

// SetObjectLockConfig replaces a bucket's default object-lock configuration.
func (r *Registry) SetObjectLockConfig(ctx context.Context, bucket string, cfg *metadata.ObjectLockConfig) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutObjectLockConfig(ctx, bucket, cfg)
}

// GetObjectLockConfig returns a bucket's default object-lock configuration.
func (r *Registry) GetObjectLockConfig(ctx context.Context, bucket string) (*metadata.ObjectLockConfig, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetObjectLockConfig(ctx, bucket)
}

// SetVPCConfig replaces a bucket's CIDR allow-list.
func (r *Registry) SetVPCConfig(ctx context.Context, bucket string, cfg *metadata.VPCConfig) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutVPCConfig(ctx, bucket, cfg)
}

// GetVPCConfig returns a bucket's CIDR allow-list.
func (r *Registry) GetVPCConfig(ctx context.Context, bucket string) (*metadata.VPCConfig, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetVPCConfig(ctx, bucket)
}

// SetCORS replaces a bucket's CORS rule set, after validating each rule.
func (r *Registry) SetCORS(ctx context.Context, bucket string, cfg *metadata.CORSConfig) error {
	if err := ValidateCORS(cfg); err != nil {
		return err
	}
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutBucketCORS(ctx, bucket, cfg)
}

// GetCORS returns a bucket's CORS rule set.
func (r *Registry) GetCORS(ctx context.Context, bucket string) (*metadata.CORSConfig, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetBucketCORS(ctx, bucket)
}

// SetTags replaces a bucket's tag set.
func (r *Registry) SetTags(ctx context.Context, bucket string, tags map[string]string) error {
	r.locker.Lock(bucket)
	defer r.locker.Unlock(bucket)
	return r.meta.PutBucketTags(ctx, bucket, tags)
}

// GetTags returns a bucket's tag set.
func (r *Registry) GetTags(ctx context.Context, bucket string) (map[string]string, error) {
	r.locker.RLock(bucket)
	defer r.locker.RUnlock(bucket)
	return r.meta.GetBucketTags(ctx, bucket)
}

var validCORSMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
}

// ValidateCORS rejects a CORS rule set with no methods/origins or an
// unrecognized HTTP method.
func ValidateCORS(cfg *metadata.CORSConfig) error {
	if cfg == nil {
		return fmt.Errorf("CORS configuration is nil")
	}
	for _, rule := range cfg.Rules {
		if len(rule.AllowedMethods) == 0 {
			return fmt.Errorf("CORS rule must have at least one allowed method")
		}
		if len(rule.AllowedOrigins) == 0 {
			return fmt.Errorf("CORS rule must have at least one allowed origin")
		}
		for _, method := range rule.AllowedMethods {
			if !validCORSMethods[method] {
				return fmt.Errorf("invalid CORS method: %s", method)
			}
		}
	}
	return nil
}

// ValidatePolicyJSON rejects an empty policy document. Full IAM-style
// statement evaluation belongs to the request router in front of this
// package; this package only guards against persisting an empty policy.
func ValidatePolicyJSON(policyJSON string) error {
	if policyJSON == "" {
		return fmt.Errorf("policy document must not be empty")
	}
	return nil
}
