package batch

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job, err := s.Create(ctx, "delete-objects", "s3://manifests/job1.csv", 5)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("Status = %s, want %s", job.Status, StatusPending)
	}

	got, err := s.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.OperationType != "delete-objects" {
		t.Errorf("OperationType = %s, want delete-objects", got.OperationType)
	}
}

func TestLegalTransitionSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job, _ := s.Create(ctx, "op", "loc", 0)

	sequence := []Status{StatusPreparing, StatusReady, StatusActive, StatusComplete}
	for _, next := range sequence {
		updated, err := s.Transition(ctx, job.ID, next)
		if err != nil {
			t.Fatalf("Transition(%s) error = %v", next, err)
		}
		if updated.Status != next {
			t.Errorf("Status = %s, want %s", updated.Status, next)
		}
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job, _ := s.Create(ctx, "op", "loc", 0)

	if _, err := s.Transition(ctx, job.ID, StatusComplete); err == nil {
		t.Error("expected error transitioning directly from Pending to Complete")
	}
}

func TestActivePauseResume(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job, _ := s.Create(ctx, "op", "loc", 0)
	s.Transition(ctx, job.ID, StatusPreparing)
	s.Transition(ctx, job.ID, StatusReady)
	s.Transition(ctx, job.ID, StatusActive)

	if _, err := s.Transition(ctx, job.ID, StatusPaused); err != nil {
		t.Fatalf("Transition(Paused) error = %v", err)
	}
	if _, err := s.Transition(ctx, job.ID, StatusActive); err != nil {
		t.Fatalf("Transition(Active) from Paused error = %v", err)
	}
}

func TestUpdateProgressAndFailureReason(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job, _ := s.Create(ctx, "op", "loc", 0)

	updated, err := s.UpdateProgress(ctx, job.ID, Progress{Total: 10, Processed: 3})
	if err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}
	if updated.Progress.Processed != 3 {
		t.Errorf("Processed = %d, want 3", updated.Progress.Processed)
	}

	updated, err = s.AppendFailureReason(ctx, job.ID, "object not found")
	if err != nil {
		t.Fatalf("AppendFailureReason() error = %v", err)
	}
	if len(updated.FailureReasons) != 1 {
		t.Errorf("FailureReasons = %+v, want 1 entry", updated.FailureReasons)
	}
}

func TestListSortedByCreation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Create(ctx, "op1", "loc1", 0)
	s.Create(ctx, "op2", "loc2", 0)

	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("List() = %d jobs, want 2", len(jobs))
	}
}
