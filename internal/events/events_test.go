package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/objectvault/storagecore/internal/metadata"
)

type fakeConfigSource struct {
	mu  sync.Mutex
	cfg map[string]*metadata.NotificationConfig
}

func newFakeConfigSource() *fakeConfigSource {
	return &fakeConfigSource{cfg: make(map[string]*metadata.NotificationConfig)}
}

func (f *fakeConfigSource) GetNotificationConfig(ctx context.Context, bucket string) (*metadata.NotificationConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg[bucket], nil
}

type recordingSink struct {
	mu     sync.Mutex
	kind   string
	events []Event
}

func (s *recordingSink) Kind() string { return s.kind }

func (s *recordingSink) Send(ctx context.Context, evt Event, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatchTestModeRecordsWithoutSinks(t *testing.T) {
	d := New(newFakeConfigSource(), nil, true)
	d.Dispatch(context.Background(), "my-bucket", Event{Type: EventObjectCreatedPut})

	recorded := d.Recorded()
	if len(recorded) != 1 {
		t.Fatalf("Recorded() len = %d, want 1", len(recorded))
	}
}

func TestDispatchMatchesRuleBySinkKind(t *testing.T) {
	src := newFakeConfigSource()
	src.cfg["my-bucket"] = &metadata.NotificationConfig{
		Rules: []metadata.NotificationRule{
			{ID: "r1", Events: []string{string(EventObjectCreatedPut)}, SinkKind: "queue", Target: "t1"},
		},
	}
	d := New(src, nil, false)
	sink := &recordingSink{kind: "queue"}
	d.RegisterSink(sink)

	d.Dispatch(context.Background(), "my-bucket", Event{Type: EventObjectCreatedPut, Entity: S3EventEntity{Object: ObjectInfo{Key: "a.txt"}}})

	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("sink received %d events, want 1", sink.count())
	}
}

func TestDispatchSkipsNonMatchingEventType(t *testing.T) {
	src := newFakeConfigSource()
	src.cfg["my-bucket"] = &metadata.NotificationConfig{
		Rules: []metadata.NotificationRule{
			{ID: "r1", Events: []string{string(EventObjectRemoved)}, SinkKind: "queue", Target: "t1"},
		},
	}
	d := New(src, nil, false)
	sink := &recordingSink{kind: "queue"}
	d.RegisterSink(sink)

	d.Dispatch(context.Background(), "my-bucket", Event{Type: EventObjectCreatedPut})

	time.Sleep(20 * time.Millisecond)
	if sink.count() != 0 {
		t.Fatalf("sink received %d events, want 0", sink.count())
	}
}

func TestDispatchFiltersByPrefix(t *testing.T) {
	src := newFakeConfigSource()
	src.cfg["my-bucket"] = &metadata.NotificationConfig{
		Rules: []metadata.NotificationRule{
			{ID: "r1", Events: []string{string(EventObjectCreatedPut)}, Filter: metadata.NotificationFilter{Prefix: "logs/"}, SinkKind: "queue", Target: "t1"},
		},
	}
	d := New(src, nil, false)
	sink := &recordingSink{kind: "queue"}
	d.RegisterSink(sink)

	d.Dispatch(context.Background(), "my-bucket", Event{Type: EventObjectCreatedPut, Entity: S3EventEntity{Object: ObjectInfo{Key: "images/a.png"}}})
	time.Sleep(20 * time.Millisecond)
	if sink.count() != 0 {
		t.Fatalf("non-matching prefix should not dispatch, got %d", sink.count())
	}

	d.Dispatch(context.Background(), "my-bucket", Event{Type: EventObjectCreatedPut, Entity: S3EventEntity{Object: ObjectInfo{Key: "logs/b.txt"}}})
	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("matching prefix should dispatch, got %d", sink.count())
	}
}

func TestQueueSinkDropsOldestWhenFull(t *testing.T) {
	sink := NewQueueSink(2, nil)
	var drops int
	sink.OnDrop(func() { drops++ })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := sink.Send(ctx, Event{Type: EventObjectCreatedPut}, "t1"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	if drops == 0 {
		t.Fatal("expected at least one drop once the queue overflowed")
	}
	if len(sink.Queue("t1")) != 2 {
		t.Fatalf("queue length = %d, want 2", len(sink.Queue("t1")))
	}
}
