package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/objectvault/storagecore/internal/audit"
	"github.com/objectvault/storagecore/internal/batch"
	"github.com/objectvault/storagecore/internal/bucketconfig"
	"github.com/objectvault/storagecore/internal/config"
	"github.com/objectvault/storagecore/internal/events"
	"github.com/objectvault/storagecore/internal/events/topicsink"
	"github.com/objectvault/storagecore/internal/facade"
	"github.com/objectvault/storagecore/internal/listing"
	"github.com/objectvault/storagecore/internal/metadata/fsmeta"
	"github.com/objectvault/storagecore/internal/multipart"
	"github.com/objectvault/storagecore/internal/objectstore"
	"github.com/objectvault/storagecore/internal/pathresolver"
	"github.com/objectvault/storagecore/internal/replication"
)

// stack bundles every component bootstrap builds, so commands can reach
// the pieces the façade itself doesn't expose (the sweeper, the topic
// sink's hub, the replication worker) without re-constructing them.
type stack struct {
	facade  *facade.Facade
	sweeper *multipart.Sweeper
	hub     *topicsink.Hub
	worker  *replication.Worker

	closers []func() error
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warnw("error closing storagecore component", "error", err)
		}
	}
}

// bootstrap constructs every storage component from cfg and wires them
// together by explicit injection rather than a global registry.
func bootstrap(cfg *config.Config, log *zap.SugaredLogger) (*stack, error) {
	s := &stack{}

	meta, err := fsmeta.New(cfg.RootPath, log)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	s.closers = append(s.closers, meta.Close)

	resolver := pathresolver.New(cfg.RootPath)
	objects := objectstore.New(meta, resolver, cfg.ChunkSizeBytes, log)
	multi := multipart.New(meta, resolver, cfg.ChunkSizeBytes, log)
	list := listing.New(meta)
	bucketCfg := bucketconfig.New(meta, log)

	dispatch := events.New(meta, log, cfg.TestMode)
	dispatch.RegisterSink(events.NewWebhookSink(events.DefaultSinkTimeout))
	dispatch.RegisterSink(events.NewServerlessFunctionSink(events.DefaultSinkTimeout))
	queueSink := events.NewQueueSink(1024, log)
	dispatch.RegisterSink(queueSink)

	if cfg.EventsWebsocketAddr != "" {
		s.hub = topicsink.NewHub()
		s.hub.SetLogger(log)
		dispatch.RegisterSink(topicsink.NewSink(s.hub))
	}

	var ledger *audit.Ledger
	if !cfg.TestMode {
		ledger, err = audit.New(cfg.RootPath, log)
		if err != nil {
			return nil, fmt.Errorf("open audit ledger: %w", err)
		}
		s.closers = append(s.closers, ledger.Close)
	}

	jobs, err := batch.New(cfg.RootPath)
	if err != nil {
		return nil, fmt.Errorf("open batch job store: %w", err)
	}

	replReg := replication.NewRegistry(meta)
	worker := replication.NewWorker(replReg, 1024, log)
	worker.Start()
	s.worker = worker
	s.closers = append(s.closers, func() error { worker.Stop(); return nil })

	s.sweeper = multipart.NewSweeper(multi, meta, time.Hour, cfg.OrphanUploadAge(), log)

	s.facade = facade.New(meta, objects, multi, list, bucketCfg, dispatch, ledger, jobs, worker, replReg, log)
	return s, nil
}
