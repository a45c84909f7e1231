// Package events implements the event dispatcher: a typed Event record
// fanned out, per bucket notification rule, to one of four pluggable sink
// kinds (webhook, topic, queue, serverless-function), with rules sourced
// from metadata.NotificationConfig.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/metadata"
	"github.com/objectvault/storagecore/internal/telemetry"
)

// EventType is a closed variant of the event kinds the dispatcher can emit.
type EventType string

const (
	EventBucketCreated          EventType = "s3:BucketCreated"
	EventBucketDeleted          EventType = "s3:BucketDeleted"
	EventObjectCreatedPut       EventType = "s3:ObjectCreated:Put"
	EventObjectCreatedCopy      EventType = "s3:ObjectCreated:Copy"
	EventObjectCreatedMultipart EventType = "s3:ObjectCreated:CompleteMultipartUpload"
	EventObjectRemoved          EventType = "s3:ObjectRemoved:Delete"
)

// BucketInfo identifies the bucket an event concerns.
type BucketInfo struct {
	Name    string `json:"name"`
	OwnerID string `json:"ownerIdentity,omitempty"`
	ARN     string `json:"arn,omitempty"`
}

// ObjectInfo identifies the object version an event concerns.
type ObjectInfo struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size,omitempty"`
	ETag         string            `json:"eTag,omitempty"`
	VersionID    string            `json:"versionId,omitempty"`
	Sequencer    string            `json:"sequencer,omitempty"`
	UserMetadata map[string]string `json:"userMetadata,omitempty"`
}

// S3EventEntity bundles the bucket/object pair an Event refers to, named
// for the S3-event-notification shape operators already recognize.
type S3EventEntity struct {
	Bucket BucketInfo `json:"bucket"`
	Object ObjectInfo `json:"object,omitempty"`
}

// Event is one dispatched occurrence.
type Event struct {
	Type      EventType     `json:"eventName"`
	Timestamp time.Time     `json:"eventTime"`
	RequestID string        `json:"requestId,omitempty"`
	Principal string        `json:"principalId,omitempty"`
	SourceIP  string        `json:"sourceIp,omitempty"`
	Entity    S3EventEntity `json:"s3"`
}

// Sequencer returns a monotonically increasing hex string derived from the
// event's timestamp, suitable for ordering same-key events the way S3's own
// event notifications do (object.sequencer), without requiring a shared
// counter across dispatcher instances.
func (e Event) Sequencer() string {
	return fmt.Sprintf("%016X", e.Timestamp.UnixNano())
}

// Sink delivers one matched event to its destination. Implementations must
// not block the caller for longer than their own internal timeout.
type Sink interface {
	Send(ctx context.Context, evt Event, target string) error
	Kind() string
}

// configSource is the subset of metadata.Store the dispatcher needs to look
// up a bucket's notification rules, kept narrow so tests can fake it
// without a full Store implementation.
type configSource interface {
	GetNotificationConfig(ctx context.Context, bucket string) (*metadata.NotificationConfig, error)
}

// DefaultSinkTimeout is the per-emission network timeout applied to each
// sink delivery when the dispatcher has not been given a different one.
const DefaultSinkTimeout = 30 * time.Second

// Dispatcher fans events out to the sinks registered for each kind,
// matching a bucket's metadata.NotificationConfig rules against the
// event's type and key (prefix/suffix filter).
type Dispatcher struct {
	logger      *zap.SugaredLogger
	meta        configSource
	sinks       map[string]Sink
	testMode    bool
	sinkTimeout time.Duration

	mu       sync.Mutex
	recorded []Event // only populated in testMode
}

// New creates a Dispatcher. When testMode is true, Dispatch short-circuits
// every sink to an in-memory recorder retrievable via Recorded, matching
// the requirement that tests never perform real network I/O.
func New(meta configSource, logger *zap.SugaredLogger, testMode bool) *Dispatcher {
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return &Dispatcher{
		logger:      logger,
		meta:        meta,
		sinks:       make(map[string]Sink),
		testMode:    testMode,
		sinkTimeout: DefaultSinkTimeout,
	}
}

// SetSinkTimeout overrides the per-emission sink delivery timeout. A
// non-positive value is ignored.
func (d *Dispatcher) SetSinkTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.sinkTimeout = timeout
	}
}

// RegisterSink wires a Sink implementation under its Kind(). Call this for
// each of webhook/topic/queue/serverless-function before Dispatch is used.
func (d *Dispatcher) RegisterSink(s Sink) {
	d.sinks[s.Kind()] = s
}

// Recorded returns the events dispatched so far; only meaningful in test
// mode.
func (d *Dispatcher) Recorded() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Event, len(d.recorded))
	copy(out, d.recorded)
	return out
}

// Dispatch looks up bucket's notification rules, matches evt against each,
// and hands off delivery to the matching rules' sinks on a separate
// goroutine so the caller (an object-store write) never blocks on sink I/O.
func (d *Dispatcher) Dispatch(ctx context.Context, bucket string, evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.Entity.Object.Sequencer == "" {
		evt.Entity.Object.Sequencer = evt.Sequencer()
	}

	if d.testMode {
		d.mu.Lock()
		d.recorded = append(d.recorded, evt)
		d.mu.Unlock()
		return
	}

	cfg, err := d.meta.GetNotificationConfig(ctx, bucket)
	if err != nil || cfg == nil {
		return
	}

	for _, rule := range cfg.Rules {
		if !matches(rule, evt) {
			continue
		}
		sink, ok := d.sinks[rule.SinkKind]
		if !ok {
			d.logger.Warnw("no sink registered for notification rule", "bucket", bucket, "ruleId", rule.ID, "sinkKind", rule.SinkKind)
			continue
		}
		go func(sink Sink, target, ruleID string) {
			sendCtx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
			defer cancel()
			if err := sink.Send(sendCtx, evt, target); err != nil {
				d.logger.Warnw("event dispatch failed", "bucket", bucket, "ruleId", ruleID, "sinkKind", sink.Kind(), "error", err)
				telemetry.EventsDispatchedTotal.WithLabelValues(sink.Kind(), "error").Inc()
				return
			}
			telemetry.EventsDispatchedTotal.WithLabelValues(sink.Kind(), "ok").Inc()
		}(sink, rule.Target, rule.ID)
	}
}

func matches(rule metadata.NotificationRule, evt Event) bool {
	typeMatched := false
	for _, want := range rule.Events {
		if want == string(evt.Type) || want == "*" {
			typeMatched = true
			break
		}
	}
	if !typeMatched {
		return false
	}
	key := evt.Entity.Object.Key
	if rule.Filter.Prefix != "" && !strings.HasPrefix(key, rule.Filter.Prefix) {
		return false
	}
	if rule.Filter.Suffix != "" && !strings.HasSuffix(key, rule.Filter.Suffix) {
		return false
	}
	return true
}

// WebhookSink POSTs the event as JSON to an arbitrary HTTP endpoint.
type WebhookSink struct {
	Client *http.Client
}

// NewWebhookSink creates a WebhookSink with the given request timeout.
func NewWebhookSink(timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSink{Client: &http.Client{Timeout: timeout}}
}

func (s *WebhookSink) Kind() string { return "webhook" }

// Send implements Sink.
func (s *WebhookSink) Send(ctx context.Context, evt Event, target string) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// ServerlessFunctionSink POSTs the event to a function URL under the same
// timeout discipline as WebhookSink, kept as a distinct Kind() so
// notification rules can route to "my webhook" and "invoke this function"
// separately even though the transport is identical.
type ServerlessFunctionSink struct {
	*WebhookSink
}

// NewServerlessFunctionSink creates a ServerlessFunctionSink.
func NewServerlessFunctionSink(timeout time.Duration) *ServerlessFunctionSink {
	return &ServerlessFunctionSink{WebhookSink: NewWebhookSink(timeout)}
}

func (s *ServerlessFunctionSink) Kind() string { return "serverless-function" }

// QueueSink pushes events onto a bounded in-memory channel per target name,
// dropping the oldest queued event (and logging at WARN) when the channel
// is full, matching the shared-resource overflow policy.
type QueueSink struct {
	mu     sync.Mutex
	queues map[string]chan Event
	cap    int
	logger *zap.SugaredLogger
	onDrop func()
}

// NewQueueSink creates a QueueSink whose per-target queues hold at most
// capacity events.
func NewQueueSink(capacity int, logger *zap.SugaredLogger) *QueueSink {
	if capacity <= 0 {
		capacity = 256
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return &QueueSink{queues: make(map[string]chan Event), cap: capacity, logger: logger}
}

// OnDrop installs a callback invoked once per dropped event, in addition
// to the telemetry.EventsQueueDropsTotal counter that Send increments
// itself.
func (s *QueueSink) OnDrop(fn func()) { s.onDrop = fn }

func (s *QueueSink) Kind() string { return "queue" }

// Send implements Sink.
func (s *QueueSink) Send(ctx context.Context, evt Event, target string) error {
	q := s.Queue(target)
	select {
	case q <- evt:
		return nil
	default:
		select {
		case <-q:
		default:
		}
		select {
		case q <- evt:
		default:
		}
		s.logger.Warnw("queue sink full, dropped oldest event", "target", target)
		telemetry.EventsQueueDropsTotal.Inc()
		if s.onDrop != nil {
			s.onDrop()
		}
		return nil
	}
}

// Queue returns the channel backing target, creating it if absent, so a
// consumer can drain it.
func (s *QueueSink) Queue(target string) chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[target]
	if !ok {
		q = make(chan Event, s.cap)
		s.queues[target] = q
	}
	return q
}
