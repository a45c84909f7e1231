package fsmeta

import (
	"context"
	"reflect"
	"testing"

	"github.com/objectvault/storagecore/internal/apierrors"
	"github.com/objectvault/storagecore/internal/metadata"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestCreateAndGetBucket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateBucket(ctx, "bucket-a", "alice"); err != nil {
		t.Fatalf("CreateBucket() error = %v", err)
	}
	meta, err := s.GetBucket(ctx, "bucket-a")
	if err != nil {
		t.Fatalf("GetBucket() error = %v", err)
	}
	if meta.Owner != "alice" {
		t.Errorf("Owner = %s, want alice", meta.Owner)
	}

	if err := s.CreateBucket(ctx, "bucket-a", "bob"); !apierrors.Is(err, apierrors.BucketAlreadyExists) {
		t.Errorf("expected BucketAlreadyExists, got %v", err)
	}
}

func TestGetBucketMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetBucket(context.Background(), "missing"); !apierrors.Is(err, apierrors.NoSuchBucket) {
		t.Errorf("expected NoSuchBucket, got %v", err)
	}
}

func TestSaveAndGetMetadataUnversioned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}

	meta := &metadata.ObjectMetadata{Bucket: "b", Key: "k1", Size: 10, ETag: "etag1"}
	if err := s.SaveMetadata(ctx, meta, false); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if meta.VersionID != "null" {
		t.Errorf("VersionID = %s, want null", meta.VersionID)
	}

	got, err := s.GetMetadata(ctx, "b", "k1", "")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if got.ETag != "etag1" || !got.IsLatest {
		t.Errorf("got = %+v", got)
	}

	// Overwrite: still a single null version, still latest.
	meta2 := &metadata.ObjectMetadata{Bucket: "b", Key: "k1", Size: 20, ETag: "etag2"}
	if err := s.SaveMetadata(ctx, meta2, false); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	got2, err := s.GetMetadata(ctx, "b", "k1", "")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if got2.ETag != "etag2" {
		t.Errorf("ETag = %s, want etag2", got2.ETag)
	}
}

func TestSaveMetadataVersionedSingleLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}

	v1 := &metadata.ObjectMetadata{Bucket: "b", Key: "k1", ETag: "v1"}
	if err := s.SaveMetadata(ctx, v1, true); err != nil {
		t.Fatal(err)
	}
	v2 := &metadata.ObjectMetadata{Bucket: "b", Key: "k1", ETag: "v2"}
	if err := s.SaveMetadata(ctx, v2, true); err != nil {
		t.Fatal(err)
	}

	got1, err := s.GetMetadata(ctx, "b", "k1", v1.VersionID)
	if err != nil {
		t.Fatal(err)
	}
	if got1.IsLatest {
		t.Error("first version should no longer be latest")
	}

	got2, err := s.GetMetadata(ctx, "b", "k1", v2.VersionID)
	if err != nil {
		t.Fatal(err)
	}
	if !got2.IsLatest {
		t.Error("second version should be latest")
	}

	current, err := s.GetMetadata(ctx, "b", "k1", "")
	if err != nil {
		t.Fatal(err)
	}
	if current.VersionID != v2.VersionID {
		t.Errorf("current version = %s, want %s", current.VersionID, v2.VersionID)
	}
}

func TestDeleteMetadataPromotesNextLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}
	v1 := &metadata.ObjectMetadata{Bucket: "b", Key: "k1", ETag: "v1"}
	s.SaveMetadata(ctx, v1, true)
	v2 := &metadata.ObjectMetadata{Bucket: "b", Key: "k1", ETag: "v2"}
	s.SaveMetadata(ctx, v2, true)

	if err := s.DeleteMetadata(ctx, "b", "k1", v2.VersionID); err != nil {
		t.Fatalf("DeleteMetadata() error = %v", err)
	}

	got1, err := s.GetMetadata(ctx, "b", "k1", v1.VersionID)
	if err != nil {
		t.Fatal(err)
	}
	if !got1.IsLatest {
		t.Error("remaining version should be promoted to latest")
	}
}

func TestListObjectsExcludesDeleteMarkers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}
	s.SaveMetadata(ctx, &metadata.ObjectMetadata{Bucket: "b", Key: "a"}, false)
	s.SaveMetadata(ctx, &metadata.ObjectMetadata{Bucket: "b", Key: "b", IsDeleteMarker: true}, false)

	res, err := s.ListObjects(ctx, "b", metadata.ListOptions{})
	if err != nil {
		t.Fatalf("ListObjects() error = %v", err)
	}
	if len(res.Objects) != 1 || res.Objects[0].Key != "a" {
		t.Errorf("Objects = %+v, want only key 'a'", res.Objects)
	}
}

func TestListObjectsPaginationUnionCoversAllKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"k1", "k2", "k3"} {
		if err := s.SaveMetadata(ctx, &metadata.ObjectMetadata{Bucket: "b", Key: key}, false); err != nil {
			t.Fatalf("SaveMetadata(%s) error = %v", key, err)
		}
	}

	var seen []string
	token := ""
	for page := 0; page < 10; page++ {
		res, err := s.ListObjects(ctx, "b", metadata.ListOptions{MaxKeys: 2, ContinuationToken: token})
		if err != nil {
			t.Fatalf("ListObjects() error = %v", err)
		}
		for _, obj := range res.Objects {
			seen = append(seen, obj.Key)
		}
		if !res.IsTruncated {
			break
		}
		if res.NextContinuationToken == "" {
			t.Fatalf("page %d: truncated result carries an empty continuation token", page)
		}
		token = res.NextContinuationToken
	}

	if want := []string{"k1", "k2", "k3"}; !reflect.DeepEqual(seen, want) {
		t.Errorf("union of pages = %v, want %v (every key exactly once, in order)", seen, want)
	}
}

func TestListObjectsPaginationUnionCoversCommonPrefixes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"a/1", "a/2", "b/1", "c"} {
		if err := s.SaveMetadata(ctx, &metadata.ObjectMetadata{Bucket: "b", Key: key}, false); err != nil {
			t.Fatalf("SaveMetadata(%s) error = %v", key, err)
		}
	}

	var objects, prefixes []string
	token := ""
	for page := 0; page < 10; page++ {
		res, err := s.ListObjects(ctx, "b", metadata.ListOptions{MaxKeys: 1, Delimiter: "/", ContinuationToken: token})
		if err != nil {
			t.Fatalf("ListObjects() error = %v", err)
		}
		for _, obj := range res.Objects {
			objects = append(objects, obj.Key)
		}
		prefixes = append(prefixes, res.CommonPrefixes...)
		if !res.IsTruncated {
			break
		}
		token = res.NextContinuationToken
	}

	if want := []string{"c"}; !reflect.DeepEqual(objects, want) {
		t.Errorf("union of object pages = %v, want %v", objects, want)
	}
	if want := []string{"a/", "b/"}; !reflect.DeepEqual(prefixes, want) {
		t.Errorf("union of common-prefix pages = %v, want %v", prefixes, want)
	}
}

func TestListObjectVersionsPaginatesWithinOneKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.SaveMetadata(ctx, &metadata.ObjectMetadata{Bucket: "b", Key: "k"}, true); err != nil {
			t.Fatalf("SaveMetadata() error = %v", err)
		}
	}

	first, err := s.ListObjectVersions(ctx, "b", metadata.ListOptions{MaxKeys: 1})
	if err != nil {
		t.Fatalf("ListObjectVersions() error = %v", err)
	}
	if !first.IsTruncated || len(first.Versions) != 1 {
		t.Fatalf("first page = %+v, want one truncated version", first)
	}
	seen := map[string]bool{first.Versions[0].VersionID: true}

	second, err := s.ListObjectVersions(ctx, "b", metadata.ListOptions{
		MaxKeys:           1,
		Marker:            first.NextKeyMarker,
		ContinuationToken: first.NextVersionIDMarker,
	})
	if err != nil {
		t.Fatalf("ListObjectVersions() page 2 error = %v", err)
	}
	if len(second.Versions) != 1 || seen[second.Versions[0].VersionID] {
		t.Fatalf("second page = %+v, want one unseen version", second)
	}
	seen[second.Versions[0].VersionID] = true

	third, err := s.ListObjectVersions(ctx, "b", metadata.ListOptions{
		MaxKeys:           1,
		Marker:            second.NextKeyMarker,
		ContinuationToken: second.NextVersionIDMarker,
	})
	if err != nil {
		t.Fatalf("ListObjectVersions() page 3 error = %v", err)
	}
	if third.IsTruncated || len(third.Versions) != 1 || seen[third.Versions[0].VersionID] {
		t.Fatalf("third page = %+v, want the final unseen version and no truncation", third)
	}
}

func TestMultipartUploadLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}

	info := &metadata.MultipartUploadInfo{Bucket: "b", Key: "big", UploadID: "u1", Owner: "alice"}
	if err := s.CreateMultipartUpload(ctx, info); err != nil {
		t.Fatalf("CreateMultipartUpload() error = %v", err)
	}

	if err := s.PutPart(ctx, &metadata.PartMetadata{Bucket: "b", Key: "big", UploadID: "u1", PartNumber: 1, ETag: "p1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutPart(ctx, &metadata.PartMetadata{Bucket: "b", Key: "big", UploadID: "u1", PartNumber: 2, ETag: "p2"}); err != nil {
		t.Fatal(err)
	}

	parts, err := s.ListParts(ctx, "b", "big", "u1")
	if err != nil {
		t.Fatalf("ListParts() error = %v", err)
	}
	if len(parts) != 2 || parts[0].PartNumber != 1 || parts[1].PartNumber != 2 {
		t.Errorf("parts = %+v", parts)
	}

	if err := s.AbortMultipartUpload(ctx, "b", "big", "u1"); err != nil {
		t.Fatalf("AbortMultipartUpload() error = %v", err)
	}
	if _, err := s.GetMultipartUpload(ctx, "b", "big", "u1"); !apierrors.Is(err, apierrors.NoSuchUpload) {
		t.Errorf("expected NoSuchUpload after abort, got %v", err)
	}
}

func TestBucketConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}

	v := &metadata.BucketVersioning{Status: metadata.VersioningEnabled}
	if err := s.PutBucketVersioning(ctx, "b", v); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetBucketVersioning(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != metadata.VersioningEnabled {
		t.Errorf("Status = %s, want %s", got.Status, metadata.VersioningEnabled)
	}

	rules := []metadata.LifecycleRule{{ID: "r1", Status: "Enabled", ExpirationDays: 7}}
	if err := s.PutLifecycleRules(ctx, "b", rules); err != nil {
		t.Fatal(err)
	}
	gotRules, err := s.GetLifecycleRules(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(gotRules) != 1 || gotRules[0].ID != "r1" {
		t.Errorf("rules = %+v", gotRules)
	}
}

func TestBucketIsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateBucket(ctx, "b", "alice"); err != nil {
		t.Fatal(err)
	}
	empty, err := s.BucketIsEmpty(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Error("fresh bucket should be empty")
	}

	s.SaveMetadata(ctx, &metadata.ObjectMetadata{Bucket: "b", Key: "k"}, false)
	empty, err = s.BucketIsEmpty(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if empty {
		t.Error("bucket with an object should not be empty")
	}
}
