// Package audit implements the append-only audit ledger, stored under a
// (bucket, time, id) key, with an opaque continuation token for pagination
// and a retention purge. A query scans one bucket's time range; principal
// and eventType filters are applied in memory to the scanned records, not
// served by the key order. It is deliberately backed by
// github.com/cockroachdb/pebble rather than the fsmeta sidecar convention:
// pebble's sorted LSM makes a (bucket, time)-prefixed range scan a far
// better fit than re-reading JSON sidecar files per query, and keeps the
// write-heavy audit stream off the metadata store's own write path.
package audit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType is a closed variant of audit event kinds.
type EventType string

const (
	EventBucketCreated    EventType = "s3:BucketCreated"
	EventBucketDeleted    EventType = "s3:BucketDeleted"
	EventObjectPut        EventType = "s3:ObjectCreated:Put"
	EventObjectGet        EventType = "s3:ObjectGet"
	EventObjectDeleted    EventType = "s3:ObjectRemoved:Delete"
	EventObjectCopy       EventType = "s3:ObjectCreated:Copy"
	EventMultipartComplete EventType = "s3:ObjectCreated:CompleteMultipartUpload"
	EventConfigChanged    EventType = "config:Changed"
)

// Event is one append-only audit record.
type Event struct {
	ID        string    `json:"id"`
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key,omitempty"`
	Principal string    `json:"principal"`
	EventType EventType `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"` // success, failure
	Detail    string    `json:"detail,omitempty"`
}

// Query filters Ledger.Query.
type Query struct {
	Bucket            string
	Principal         string
	EventType         EventType
	Since             time.Time
	Until             time.Time
	MaxResults        int
	ContinuationToken string
}

// QueryResult is the output of Ledger.Query.
type QueryResult struct {
	Events                []Event
	NextContinuationToken string
}

// Ledger is the pebble-backed audit store.
type Ledger struct {
	db     *pebble.DB
	logger *zap.SugaredLogger
}

// New opens (or creates) a pebble database under root/audit.
func New(root string, logger *zap.SugaredLogger) (*Ledger, error) {
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	db, err := pebble.Open(filepath.Join(root, "audit"), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open audit ledger: %w", err)
	}
	return &Ledger{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// eventKey encodes a sort key as audit:<bucket>\x00<time-nanos-padded>\x00<id>
// so a range scan over a bucket's time window is a single key-prefix
// iteration (teacher's bucketKey/objectKey convention, generalized to a
// three-part sort key).
func eventKey(bucket string, ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("audit:%s\x00%020d\x00%s", bucket, ts.UnixNano(), id))
}

// Append records a new audit event, assigning it an ID and timestamp if
// unset.
func (l *Ledger) Append(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	data, err := encode(evt)
	if err != nil {
		return err
	}
	return l.db.Set(eventKey(evt.Bucket, evt.Timestamp, evt.ID), data, pebble.Sync)
}

// Query returns events matching q, newest constraints applied as a
// time-bounded prefix scan over the bucket followed by an in-memory filter
// on principal/eventType (indexed filters; the bucket+time
// dimensions are the only ones pebble's key order can serve directly).
func (l *Ledger) Query(ctx context.Context, q Query) (*QueryResult, error) {
	if q.Bucket == "" {
		return nil, fmt.Errorf("query requires a bucket")
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 1000
	}

	since := q.Since
	if since.IsZero() {
		since = time.Unix(0, 0)
	}
	until := q.Until
	if until.IsZero() {
		until = time.Now().Add(24 * time.Hour)
	}

	lowerKey := eventKey(q.Bucket, since, "")
	upperKey := eventKey(q.Bucket, until, "\xff")

	if q.ContinuationToken != "" {
		decoded, err := base64.StdEncoding.DecodeString(q.ContinuationToken)
		if err != nil {
			return nil, fmt.Errorf("invalid continuation token: %w", err)
		}
		// The token is the last key returned on the prior page; pebble's
		// LowerBound is inclusive, so appending a byte moves the bound to
		// strictly after that key and avoids re-returning it.
		lowerKey = append(decoded, 0x00)
	}

	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: lowerKey, UpperBound: upperKey})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var events []Event
	var lastKey []byte
	for iter.First(); iter.Valid(); iter.Next() {
		var evt Event
		if err := decode(iter.Value(), &evt); err != nil {
			l.logger.Warnw("skipping unreadable audit record", "error", err)
			continue
		}
		if q.Principal != "" && evt.Principal != q.Principal {
			continue
		}
		if q.EventType != "" && evt.EventType != q.EventType {
			continue
		}
		events = append(events, evt)
		if len(events) >= maxResults {
			lastKey = append([]byte(nil), iter.Key()...)
			iter.Next()
			break
		}
	}

	result := &QueryResult{Events: events}
	if lastKey != nil && iter.Valid() {
		result.NextContinuationToken = base64.StdEncoding.EncodeToString(lastKey)
	}
	return result, nil
}

// Purge removes all events for bucket older than olderThan, implementing
// the retention side of the audit ledger.
func (l *Ledger) Purge(ctx context.Context, bucket string, olderThan time.Time) (int, error) {
	lowerKey := eventKey(bucket, time.Unix(0, 0), "")
	upperKey := eventKey(bucket, olderThan, "")

	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: lowerKey, UpperBound: upperKey})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	batch := l.db.NewBatch()
	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		if err := batch.Delete(iter.Key(), nil); err != nil {
			return count, err
		}
		count++
	}
	if count == 0 {
		return 0, nil
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return count, nil
}

func encode(evt Event) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(evt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, evt *Event) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(evt)
}
