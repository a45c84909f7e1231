package bucketconfig

import (
	"context"
	"testing"

	"github.com/objectvault/storagecore/internal/metadata"
	"github.com/objectvault/storagecore/internal/metadata/fsmeta"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	meta, err := fsmeta.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("fsmeta.New() error = %v", err)
	}
	if err := meta.CreateBucket(context.Background(), "b", "alice"); err != nil {
		t.Fatalf("CreateBucket() error = %v", err)
	}
	return New(meta, nil)
}

func TestVersioningRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	if r.IsVersioningEnabled(ctx, "b") {
		t.Error("versioning should default to disabled")
	}

	if err := r.SetVersioning(ctx, "b", metadata.VersioningEnabled); err != nil {
		t.Fatalf("SetVersioning() error = %v", err)
	}
	if !r.IsVersioningEnabled(ctx, "b") {
		t.Error("versioning should be enabled after SetVersioning")
	}

	got, err := r.GetVersioning(ctx, "b")
	if err != nil {
		t.Fatalf("GetVersioning() error = %v", err)
	}
	if got.Status != metadata.VersioningEnabled {
		t.Errorf("Status = %s, want %s", got.Status, metadata.VersioningEnabled)
	}
}

func TestACLRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	acl := &metadata.ACL{Owner: "alice", Grants: []metadata.ACLGrant{{Grantee: "bob", Permission: "READ"}}}
	if err := r.SetACL(ctx, "b", acl); err != nil {
		t.Fatalf("SetACL() error = %v", err)
	}
	got, err := r.GetACL(ctx, "b")
	if err != nil {
		t.Fatalf("GetACL() error = %v", err)
	}
	if len(got.Grants) != 1 || got.Grants[0].Grantee != "bob" {
		t.Errorf("Grants = %+v", got.Grants)
	}
}

func TestPolicyRoundTripAndDelete(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	if err := r.SetPolicy(ctx, "b", ""); err == nil {
		t.Error("expected error setting an empty policy document")
	}

	if err := r.SetPolicy(ctx, "b", `{"Version":"2012-10-17","Statement":[]}`); err != nil {
		t.Fatalf("SetPolicy() error = %v", err)
	}
	got, err := r.GetPolicy(ctx, "b")
	if err != nil {
		t.Fatalf("GetPolicy() error = %v", err)
	}
	if got == nil || *got == "" {
		t.Error("expected a non-empty stored policy")
	}

	if err := r.DeletePolicy(ctx, "b"); err != nil {
		t.Fatalf("DeletePolicy() error = %v", err)
	}
	got, err = r.GetPolicy(ctx, "b")
	if err != nil {
		t.Fatalf("GetPolicy() after delete error = %v", err)
	}
	if got != nil {
		t.Error("expected nil policy after delete")
	}
}

func TestLifecycleRulesRejectsDuplicateID(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	rules := []metadata.LifecycleRule{
		{ID: "r1", Status: "Enabled", ExpirationDays: 30},
		{ID: "r1", Status: "Enabled", ExpirationDays: 60},
	}
	if err := r.SetLifecycleRules(ctx, "b", rules); err == nil {
		t.Error("expected error for duplicate lifecycle rule id")
	}
}

func TestLifecycleRulesRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	rules := []metadata.LifecycleRule{{ID: "r1", Status: "Enabled", ExpirationDays: 30}}
	if err := r.SetLifecycleRules(ctx, "b", rules); err != nil {
		t.Fatalf("SetLifecycleRules() error = %v", err)
	}
	got, err := r.GetLifecycleRules(ctx, "b")
	if err != nil {
		t.Fatalf("GetLifecycleRules() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("rules = %+v", got)
	}
}

func TestCORSValidationRejectsUnknownMethod(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cfg := &metadata.CORSConfig{Rules: []metadata.CORSRule{
		{AllowedMethods: []string{"TRACE"}, AllowedOrigins: []string{"*"}},
	}}
	if err := r.SetCORS(ctx, "b", cfg); err == nil {
		t.Error("expected error for unrecognized CORS method")
	}
}

func TestCORSRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cfg := &metadata.CORSConfig{Rules: []metadata.CORSRule{
		{AllowedMethods: []string{"GET"}, AllowedOrigins: []string{"*"}},
	}}
	if err := r.SetCORS(ctx, "b", cfg); err != nil {
		t.Fatalf("SetCORS() error = %v", err)
	}
	got, err := r.GetCORS(ctx, "b")
	if err != nil {
		t.Fatalf("GetCORS() error = %v", err)
	}
	if len(got.Rules) != 1 {
		t.Errorf("Rules = %+v", got.Rules)
	}
}

func TestTagsRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	if err := r.SetTags(ctx, "b", map[string]string{"env": "prod"}); err != nil {
		t.Fatalf("SetTags() error = %v", err)
	}
	got, err := r.GetTags(ctx, "b")
	if err != nil {
		t.Fatalf("GetTags() error = %v", err)
	}
	if got["env"] != "prod" {
		t.Errorf("tags = %+v", got)
	}
}

func TestObjectLockConfigRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cfg := &metadata.ObjectLockConfig{Enabled: true, DefaultMode: metadata.LockModeGovernance, DefaultDays: 7}
	if err := r.SetObjectLockConfig(ctx, "b", cfg); err != nil {
		t.Fatalf("SetObjectLockConfig() error = %v", err)
	}
	got, err := r.GetObjectLockConfig(ctx, "b")
	if err != nil {
		t.Fatalf("GetObjectLockConfig() error = %v", err)
	}
	if !got.Enabled || got.DefaultDays != 7 {
		t.Errorf("config = %+v", got)
	}
}

func TestVPCConfigRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cfg := &metadata.VPCConfig{AllowedCIDRs: []string{"10.0.0.0/8"}}
	if err := r.SetVPCConfig(ctx, "b", cfg); err != nil {
		t.Fatalf("SetVPCConfig() error = %v", err)
	}
	got, err := r.GetVPCConfig(ctx, "b")
	if err != nil {
		t.Fatalf("GetVPCConfig() error = %v", err)
	}
	if len(got.AllowedCIDRs) != 1 || got.AllowedCIDRs[0] != "10.0.0.0/8" {
		t.Errorf("AllowedCIDRs = %+v", got.AllowedCIDRs)
	}
}

func TestReplicationConfigRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cfg := &metadata.ReplicationConfig{Rules: []metadata.ReplicationRule{
		{ID: "r1", Status: "Enabled", Destination: metadata.ReplicationDestination{Bucket: "dest"}},
	}}
	if err := r.SetReplicationConfig(ctx, "b", cfg); err != nil {
		t.Fatalf("SetReplicationConfig() error = %v", err)
	}
	got, err := r.GetReplicationConfig(ctx, "b")
	if err != nil {
		t.Fatalf("GetReplicationConfig() error = %v", err)
	}
	if len(got.Rules) != 1 || got.Rules[0].Destination.Bucket != "dest" {
		t.Errorf("rules = %+v", got.Rules)
	}
}

func TestNotificationConfigRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	cfg := &metadata.NotificationConfig{Rules: []metadata.NotificationRule{
		{ID: "n1", Events: []string{"s3:ObjectCreated:*"}, SinkKind: "webhook", Target: "https://example.invalid/hook"},
	}}
	if err := r.SetNotificationConfig(ctx, "b", cfg); err != nil {
		t.Fatalf("SetNotificationConfig() error = %v", err)
	}
	got, err := r.GetNotificationConfig(ctx, "b")
	if err != nil {
		t.Fatalf("GetNotificationConfig() error = %v", err)
	}
	if len(got.Rules) != 1 || got.Rules[0].SinkKind != "webhook" {
		t.Errorf("rules = %+v", got.Rules)
	}
}
