// Package batch implements the batch-job ledger: job
// CRUD plus the status state machine, persisted one JSON sidecar per job
// under <root>/.batch_jobs/<id>.json — the same atomic-write convention
// fsmeta uses for object metadata (internal/metadata/fsmeta), generalized
// from per-object-version records to per-job records.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/objectvault/storagecore/internal/apierrors"
)

// Status is a closed variant of batch-job lifecycle states.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusPreparing  Status = "Preparing"
	StatusReady      Status = "Ready"
	StatusActive     Status = "Active"
	StatusPaused     Status = "Paused"
	StatusCancelling Status = "Cancelling"
	StatusComplete   Status = "Complete"
	StatusFailed     Status = "Failed"
	StatusCancelled  Status = "Cancelled"
)

// transitions is the legal-transition table:
// Pending -> Preparing -> Ready -> Active -> (Complete | Failed | Cancelled);
// Active <-> Paused; Active -> Cancelling -> Cancelled.
// In addition, a Pending, Preparing, Ready or Paused job may move straight
// to Cancelled, and a Preparing job may move to Failed.
var transitions = map[Status]map[Status]bool{
	StatusPending:    {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing:  {StatusReady: true, StatusFailed: true, StatusCancelled: true},
	StatusReady:      {StatusActive: true, StatusCancelled: true},
	StatusActive:     {StatusPaused: true, StatusComplete: true, StatusFailed: true, StatusCancelled: true, StatusCancelling: true},
	StatusPaused:     {StatusActive: true, StatusCancelled: true},
	StatusCancelling: {StatusCancelled: true},
	StatusComplete:   {},
	StatusFailed:     {},
	StatusCancelled:  {},
}

// Progress tracks a job's unit-of-work counters.
type Progress struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Job is one batch-job record.
type Job struct {
	ID               string    `json:"id"`
	OperationType    string    `json:"operationType"`
	ManifestLocation string    `json:"manifestLocation"`
	Priority         int       `json:"priority"`
	Status           Status    `json:"status"`
	Progress         Progress  `json:"progress"`
	CreatedAt        int64     `json:"createdAt"`
	UpdatedAt        int64     `json:"updatedAt"`
	FailureReasons   []string  `json:"failureReasons,omitempty"`
}

// Store is the batch-job ledger.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a Store rooted at <root>/.batch_jobs.
func New(root string) (*Store, error) {
	dir := filepath.Join(root, ".batch_jobs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apierrors.Wrap(apierrors.InternalError, "create batch jobs directory", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create persists a new job in Pending status and returns it.
func (s *Store) Create(ctx context.Context, operationType, manifestLocation string, priority int) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	job := &Job{
		ID:               uuid.New().String(),
		OperationType:    operationType,
		ManifestLocation: manifestLocation,
		Priority:         priority,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.write(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns a job by ID.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

// List returns all jobs, sorted by creation time.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.InternalError, "read batch jobs directory", err)
	}

	var jobs []Job
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(filepath.Ext(entry.Name()))]
		job, err := s.read(id)
		if err != nil {
			continue
		}
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt < jobs[j].CreatedAt })
	return jobs, nil
}

// Transition applies a status change, rejecting any transition not present
// in the legal-transition table.
func (s *Store) Transition(ctx context.Context, id string, next Status) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.read(id)
	if err != nil {
		return nil, err
	}
	allowed, ok := transitions[job.Status]
	if !ok || !allowed[next] {
		return nil, fmt.Errorf("illegal batch job transition: %s -> %s", job.Status, next)
	}
	job.Status = next
	job.UpdatedAt = time.Now().UnixMilli()
	if err := s.write(job); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateProgress updates a job's progress counters without changing status.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress Progress) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.read(id)
	if err != nil {
		return nil, err
	}
	job.Progress = progress
	job.UpdatedAt = time.Now().UnixMilli()
	if err := s.write(job); err != nil {
		return nil, err
	}
	return job, nil
}

// AppendFailureReason records a failure reason against a job.
func (s *Store) AppendFailureReason(ctx context.Context, id, reason string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.read(id)
	if err != nil {
		return nil, err
	}
	job.FailureReasons = append(job.FailureReasons, reason)
	job.UpdatedAt = time.Now().UnixMilli()
	if err := s.write(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) read(id string) (*Job, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.NoSuchKey, "batch job not found")
		}
		return nil, apierrors.Wrap(apierrors.InternalError, "read batch job", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, apierrors.Wrap(apierrors.InternalError, "decode batch job", err)
	}
	return &job, nil
}

func (s *Store) write(job *Job) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return apierrors.Wrap(apierrors.InternalError, "encode batch job", err)
	}
	tmp := s.path(job.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apierrors.Wrap(apierrors.InternalError, "write batch job", err)
	}
	if err := os.Rename(tmp, s.path(job.ID)); err != nil {
		os.Remove(tmp)
		return apierrors.Wrap(apierrors.InternalError, "rename batch job into place", err)
	}
	return nil
}
