package facade

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/objectvault/storagecore/internal/bucketconfig"
	"github.com/objectvault/storagecore/internal/events"
	"github.com/objectvault/storagecore/internal/listing"
	"github.com/objectvault/storagecore/internal/metadata"
	"github.com/objectvault/storagecore/internal/metadata/fsmeta"
	"github.com/objectvault/storagecore/internal/multipart"
	"github.com/objectvault/storagecore/internal/objectstore"
	"github.com/objectvault/storagecore/internal/pathresolver"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	root := t.TempDir()

	meta, err := fsmeta.New(root, nil)
	if err != nil {
		t.Fatalf("fsmeta.New: %v", err)
	}
	t.Cleanup(func() { meta.Close() })

	resolver := pathresolver.New(root)
	objects := objectstore.New(meta, resolver, 0, nil)
	multi := multipart.New(meta, resolver, 0, nil)
	list := listing.New(meta)
	config := bucketconfig.New(meta, nil)
	dispatch := events.New(meta, nil, true)

	return New(meta, objects, multi, list, config, dispatch, nil, nil, nil, nil, nil)
}

func TestFacadeCreateBucketThenPutGetObject(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	if err := f.CreateBucket(ctx, "my-bucket", "alice", "alice"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}

	putResult, err := f.PutObject(ctx, "my-bucket", "hello.txt", bytes.NewReader([]byte("hello world")), objectstore.PutOptions{ContentType: "text/plain", Owner: "alice"}, "alice")
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if putResult.Size != int64(len("hello world")) {
		t.Errorf("Size = %d, want %d", putResult.Size, len("hello world"))
	}

	got, err := f.GetObject(ctx, "my-bucket", "hello.txt", "", nil, "alice")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	defer got.Body.Close()
	data, err := io.ReadAll(got.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("body = %q, want %q", data, "hello world")
	}

	if recorded := f.dispatch.Recorded(); len(recorded) != 2 {
		t.Fatalf("recorded events = %d, want 2 (BucketCreated, ObjectCreatedPut)", len(recorded))
	}
}

func TestFacadePutObjectUnknownBucket(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	_, err := f.PutObject(ctx, "no-such-bucket", "a.txt", bytes.NewReader([]byte("x")), objectstore.PutOptions{}, "alice")
	if err == nil {
		t.Fatal("expected an error for a nonexistent bucket")
	}
}

func TestFacadeDeleteObjectThenGetFails(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	if err := f.CreateBucket(ctx, "b", "alice", "alice"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	if _, err := f.PutObject(ctx, "b", "k", bytes.NewReader([]byte("data")), objectstore.PutOptions{}, "alice"); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if _, err := f.DeleteObject(ctx, "b", "k", "", "alice"); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if _, err := f.GetObject(ctx, "b", "k", "", nil, "alice"); err == nil {
		t.Fatal("expected an error reading a deleted object")
	}
}

func TestFacadeListObjects(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	if err := f.CreateBucket(ctx, "b", "alice", "alice"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	for _, key := range []string{"a.txt", "b.txt", "c.txt"} {
		if _, err := f.PutObject(ctx, "b", key, bytes.NewReader([]byte(key)), objectstore.PutOptions{}, "alice"); err != nil {
			t.Fatalf("PutObject(%s): %v", key, err)
		}
	}

	result, err := f.ListObjects(ctx, "b", metadata.ListOptions{})
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if len(result.Objects) != 3 {
		t.Fatalf("ListObjects returned %d objects, want 3", len(result.Objects))
	}
}

func TestFacadeMultipartUploadLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	if err := f.CreateBucket(ctx, "b", "alice", "alice"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}

	uploadID, err := f.CreateMultipartUpload(ctx, "b", "big.bin", multipart.CreateOptions{ContentType: "application/octet-stream"})
	if err != nil {
		t.Fatalf("CreateMultipartUpload: %v", err)
	}

	part1, err := f.UploadPart(ctx, "b", "big.bin", uploadID, 1, bytes.NewReader([]byte("part-one-")))
	if err != nil {
		t.Fatalf("UploadPart 1: %v", err)
	}
	part2, err := f.UploadPart(ctx, "b", "big.bin", uploadID, 2, bytes.NewReader([]byte("part-two")))
	if err != nil {
		t.Fatalf("UploadPart 2: %v", err)
	}

	result, err := f.CompleteMultipartUpload(ctx, "b", "big.bin", uploadID, []multipart.RequestedPart{
		{PartNumber: 1, ETag: part1.ETag},
		{PartNumber: 2, ETag: part2.ETag},
	}, "alice")
	if err != nil {
		t.Fatalf("CompleteMultipartUpload: %v", err)
	}
	if result.Size != int64(len("part-one-")+len("part-two")) {
		t.Errorf("Size = %d, want %d", result.Size, len("part-one-")+len("part-two"))
	}

	got, err := f.GetObject(ctx, "b", "big.bin", "", nil, "alice")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	defer got.Body.Close()
	data, _ := io.ReadAll(got.Body)
	if string(data) != "part-one-part-two" {
		t.Errorf("assembled body = %q, want %q", data, "part-one-part-two")
	}
}

func TestFacadePublishEventDispatches(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	if err := f.CreateBucket(ctx, "b", "alice", "alice"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}

	before := len(f.dispatch.Recorded())
	f.PublishEvent(ctx, "b", events.EventObjectRemoved, "k", map[string]string{"reason": "restore"}, "alice", "203.0.113.5")

	recorded := f.dispatch.Recorded()
	if len(recorded) != before+1 {
		t.Fatalf("recorded events = %d, want %d", len(recorded), before+1)
	}
	evt := recorded[len(recorded)-1]
	if evt.Type != events.EventObjectRemoved || evt.Entity.Object.Key != "k" || evt.SourceIP != "203.0.113.5" {
		t.Errorf("unexpected published event: %+v", evt)
	}
	if evt.Entity.Object.Sequencer == "" {
		t.Error("expected a non-empty sequencer on the dispatched event")
	}
}

func TestFacadeDeleteNonEmptyBucketFails(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	if err := f.CreateBucket(ctx, "b", "alice", "alice"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	if _, err := f.PutObject(ctx, "b", "k", bytes.NewReader([]byte("x")), objectstore.PutOptions{}, "alice"); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if err := f.DeleteBucket(ctx, "b", "alice"); err == nil {
		t.Fatal("expected DeleteBucket to fail on a non-empty bucket")
	}
}
