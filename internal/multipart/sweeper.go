package multipart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/metadata"
)

// Sweeper periodically removes orphaned multipart uploads: those whose
// info.json predates orphanAge are aborted outright; uploads whose
// info.json cannot be read at all are removed and logged at WARN rather
// than left to accumulate. Orphan age is measured from createdAt, not the
// file's mtime, so a slow but still-active upload is never swept mid-part.
type Sweeper struct {
	coordinator *Coordinator
	meta        metadata.Store
	orphanAge   time.Duration
	interval    time.Duration
	logger      *zap.SugaredLogger
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewSweeper creates a Sweeper. interval controls the sweep cadence;
// orphanAge is the minimum age of an upload before it is swept.
func NewSweeper(coordinator *Coordinator, meta metadata.Store, interval, orphanAge time.Duration, logger *zap.SugaredLogger) *Sweeper {
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return &Sweeper{
		coordinator: coordinator,
		meta:        meta,
		orphanAge:   orphanAge,
		interval:    interval,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start launches the sweep loop in a background goroutine.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
	s.logger.Infow("multipart sweeper started", "interval", s.interval, "orphanAge", s.orphanAge)
}

// Stop halts the sweep loop and waits for the current pass to finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("multipart sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce()
	for {
		select {
		case <-ticker.C:
			s.SweepOnce()
		case <-s.stopCh:
			return
		}
	}
}

// SweepOnce runs a single sweep pass over every bucket, aborting any
// multipart upload older than orphanAge. Exported so callers (the CLI's
// "multipart sweep" command) can trigger one pass outside the ticker loop.
func (s *Sweeper) SweepOnce() {
	ctx := context.Background()
	buckets, err := s.meta.ListBuckets(ctx)
	if err != nil {
		s.logger.Warnw("failed to list buckets during multipart sweep", "error", err)
		return
	}

	cutoff := time.Now().Add(-s.orphanAge).UnixMilli()
	for _, b := range buckets {
		bucket := b.Name
		uploads, err := s.coordinator.ListUploadsForSweep(ctx, bucket)
		if err != nil {
			s.logger.Warnw("failed to list multipart uploads during sweep", "bucket", bucket, "error", err)
			continue
		}
		for _, upload := range uploads {
			if upload.Unreadable {
				if err := s.coordinator.Abort(ctx, bucket, "", upload.UploadID); err != nil {
					s.logger.Warnw("failed to sweep corrupt multipart upload", "bucket", bucket, "uploadId", upload.UploadID, "error", err)
					continue
				}
				s.logger.Warnw("swept corrupt multipart upload", "bucket", bucket, "uploadId", upload.UploadID)
				continue
			}
			info := upload.Info
			if info.CreatedAt > cutoff {
				continue
			}
			if err := s.coordinator.Abort(ctx, bucket, info.Key, info.UploadID); err != nil {
				s.logger.Warnw("failed to sweep orphaned multipart upload", "bucket", bucket, "key", info.Key, "uploadId", info.UploadID, "error", err)
				continue
			}
			s.logger.Infow("swept orphaned multipart upload", "bucket", bucket, "key", info.Key, "uploadId", info.UploadID, "age", time.Since(time.UnixMilli(info.CreatedAt)))
		}
	}
}
