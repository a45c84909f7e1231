// Package replication implements the replication worker: rule persistence
// (reusing metadata.ReplicationConfig rather than a private duplicate),
// per-object replication status bookkeeping, and a Worker draining a
// bounded task queue that constructs an aws-sdk-go-v2 S3 client per
// destination endpoint (static credentials, a custom endpoint resolver
// pointed at the rule's destination) and attempts a PutObject. Replication
// runs best-effort: errors only update status and are never surfaced to
// the object-store operation that enqueued the task.
package replication

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/metadata"
	"github.com/objectvault/storagecore/internal/telemetry"
)

// Status is a closed variant of per-object replication status.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusReplicated Status = "REPLICATED"
	StatusFailed     Status = "FAILED"
)

// ObjectStatus records the replication outcome for one object version
// against one rule.
type ObjectStatus struct {
	Bucket    string
	Key       string
	VersionID string
	RuleID    string
	Status    Status
	LastError string
	UpdatedAt time.Time
}

// Task describes one object version awaiting replication to a rule's
// destination. Open is deferred so enqueueing never holds the object
// open longer than necessary.
type Task struct {
	Bucket    string
	Key       string
	VersionID string
	Rule      metadata.ReplicationRule
	Open      func() (io.ReadCloser, int64, error)
}

// configStore is the subset of metadata.Store the Registry needs, kept
// narrow so tests can fake it without a full Store implementation.
type configStore interface {
	PutReplicationConfig(ctx context.Context, bucket string, cfg *metadata.ReplicationConfig) error
	GetReplicationConfig(ctx context.Context, bucket string) (*metadata.ReplicationConfig, error)
}

// Registry persists bucket replication rule sets through the shared
// metadata store, and tracks per-object replication status in memory
// (status is operational bookkeeping, not durable object metadata).
type Registry struct {
	meta configStore

	mu     sync.Mutex
	status map[string]*ObjectStatus // key: bucket/key/versionId/ruleId
}

// NewRegistry creates a Registry backed by meta.
func NewRegistry(meta configStore) *Registry {
	return &Registry{meta: meta, status: make(map[string]*ObjectStatus)}
}

// SetRules replaces a bucket's replication rule set.
func (r *Registry) SetRules(ctx context.Context, bucket string, rules []metadata.ReplicationRule) error {
	return r.meta.PutReplicationConfig(ctx, bucket, &metadata.ReplicationConfig{Rules: rules})
}

// Rules returns a bucket's replication rule set.
func (r *Registry) Rules(ctx context.Context, bucket string) ([]metadata.ReplicationRule, error) {
	cfg, err := r.meta.GetReplicationConfig(ctx, bucket)
	if err != nil || cfg == nil {
		return nil, err
	}
	return cfg.Rules, nil
}

func statusKey(bucket, key, versionID, ruleID string) string {
	return bucket + "/" + key + "/" + versionID + "/" + ruleID
}

// SetStatus records the outcome of a replication attempt.
func (r *Registry) SetStatus(s ObjectStatus) {
	s.UpdatedAt = time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[statusKey(s.Bucket, s.Key, s.VersionID, s.RuleID)] = &s
}

// GetStatus returns the recorded replication status for one (object, rule)
// pair, or nil if no attempt has been made yet.
func (r *Registry) GetStatus(bucket, key, versionID, ruleID string) *ObjectStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[statusKey(bucket, key, versionID, ruleID)]
}

// MatchingRules returns the enabled rules in rules whose prefix matches key.
func MatchingRules(rules []metadata.ReplicationRule, key string) []metadata.ReplicationRule {
	var out []metadata.ReplicationRule
	for _, rule := range rules {
		if rule.Status != "Enabled" {
			continue
		}
		if rule.Prefix != "" && !hasPrefix(key, rule.Prefix) {
			continue
		}
		out = append(out, rule)
	}
	return out
}

func hasPrefix(key, prefix string) bool {
	return len(key) >= len(prefix) && key[:len(prefix)] == prefix
}

// Worker drains a bounded task queue, replicating each task to its rule's
// destination endpoint via aws-sdk-go-v2.
type Worker struct {
	registry *Registry
	queue    chan Task
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	clients map[string]*s3.Client // keyed by destination endpoint

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker creates a Worker whose queue holds at most capacity tasks.
func NewWorker(registry *Registry, capacity int, logger *zap.SugaredLogger) *Worker {
	if capacity <= 0 {
		capacity = 256
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return &Worker{
		registry: registry,
		queue:    make(chan Task, capacity),
		logger:   logger,
		clients:  make(map[string]*s3.Client),
		stopCh:   make(chan struct{}),
	}
}

// Enqueue submits task for replication, returning false if the queue is
// full. The caller is expected to log and move on rather than block the
// originating write on a saturated replication pipeline.
func (w *Worker) Enqueue(task Task) bool {
	w.registry.SetStatus(ObjectStatus{Bucket: task.Bucket, Key: task.Key, VersionID: task.VersionID, RuleID: task.Rule.ID, Status: StatusPending})
	select {
	case w.queue <- task:
		telemetry.ReplicationQueueDepth.Set(float64(len(w.queue)))
		return true
	default:
		w.logger.Warnw("replication queue full, dropping task", "bucket", task.Bucket, "key", task.Key, "ruleId", task.Rule.ID)
		return false
	}
}

// Start launches the drain loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop halts the drain loop once the current task finishes.
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case task := <-w.queue:
			telemetry.ReplicationQueueDepth.Set(float64(len(w.queue)))
			w.process(task)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) process(task Task) {
	client, err := w.clientFor(task.Rule.Destination)
	if err != nil {
		w.fail(task, err)
		return
	}

	body, size, err := task.Open()
	if err != nil {
		w.fail(task, err)
		return
	}
	defer body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(task.Rule.Destination.Bucket),
		Key:           aws.String(task.Key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		w.fail(task, err)
		return
	}
	w.registry.SetStatus(ObjectStatus{Bucket: task.Bucket, Key: task.Key, VersionID: task.VersionID, RuleID: task.Rule.ID, Status: StatusReplicated})
	telemetry.ReplicationTasksTotal.WithLabelValues("replicated").Inc()
}

func (w *Worker) fail(task Task, err error) {
	w.registry.SetStatus(ObjectStatus{Bucket: task.Bucket, Key: task.Key, VersionID: task.VersionID, RuleID: task.Rule.ID, Status: StatusFailed, LastError: err.Error()})
	w.logger.Warnw("replication task failed", "bucket", task.Bucket, "key", task.Key, "destination", task.Rule.Destination.Bucket, "error", err)
	telemetry.ReplicationTasksTotal.WithLabelValues("failed").Inc()
}

// clientFor returns (creating and caching if necessary) an S3 client
// pointed at dest's endpoint.
func (w *Worker) clientFor(dest metadata.ReplicationDestination) (*s3.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.clients[dest.Endpoint]; ok {
		return c, nil
	}
	if dest.Endpoint == "" {
		return nil, fmt.Errorf("replication destination has no endpoint")
	}

	awsCfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("", "", ""),
		EndpointResolverWithOptions: aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: dest.Endpoint, HostnameImmutable: true}, nil
		}),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.UsePathStyle = true })
	w.clients[dest.Endpoint] = client
	return client, nil
}
