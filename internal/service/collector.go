package service

import (
	"context"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/config"
	"github.com/einvoicehub/einvoicehub/internal/domain/syncqueue"
	ierr "github.com/einvoicehub/einvoicehub/internal/errors"
	"github.com/einvoicehub/einvoicehub/internal/logger"
	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/sourcegraph/conc/pool"
)

// Collector drives the delivery queue: every poll it reclaims expired leases,
// lists due entries, claims them one by one and fans the claimed work out to a
// bounded worker pool. Claiming goes through the repository's atomic Claim, so
// collectors in other processes sharing the store never double-dispatch.
type Collector struct {
	syncRepo   syncqueue.Repository
	dispatcher *SyncDispatcher
	syncConfig config.SyncConfig
	logger     *logger.Logger
	workerID   string
}

// NewCollector creates a new Collector with a unique worker identity
func NewCollector(
	syncRepo syncqueue.Repository,
	dispatcher *SyncDispatcher,
	syncConfig config.SyncConfig,
	logger *logger.Logger,
) *Collector {
	return &Collector{
		syncRepo:   syncRepo,
		dispatcher: dispatcher,
		syncConfig: syncConfig,
		logger:     logger,
		workerID:   types.GenerateUUIDWithPrefix(types.UUIDPrefixWorker),
	}
}

// Start polls until the context is cancelled. It blocks; run it in its own
// goroutine.
func (c *Collector) Start(ctx context.Context) {
	c.logger.Infow("delivery queue collector started",
		"worker_id", c.workerID,
		"poll_interval", c.syncConfig.PollInterval,
		"batch_size", c.syncConfig.BatchSize,
		"workers", c.syncConfig.Workers)

	ticker := time.NewTicker(c.syncConfig.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Infow("delivery queue collector stopped", "worker_id", c.workerID)
			return
		case <-ticker.C:
			if err := c.RunOnce(ctx); err != nil {
				c.logger.Errorw("collector poll failed",
					"worker_id", c.workerID,
					"error", err)
			}
		}
	}
}

// RunOnce performs a single poll cycle
func (c *Collector) RunOnce(ctx context.Context) error {
	now := time.Now().UTC()

	reclaimed, err := c.syncRepo.ReclaimStale(ctx, now)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		c.logger.Warnw("reclaimed entries from expired leases",
			"worker_id", c.workerID,
			"count", reclaimed)
	}

	entries, err := c.syncRepo.ListDue(ctx, now, c.syncConfig.BatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	leaseUntil := now.Add(c.syncConfig.LeaseDuration)
	p := pool.New().WithMaxGoroutines(c.syncConfig.Workers)
	for _, entry := range entries {
		entry := entry
		p.Go(func() {
			c.process(ctx, entry.ID, leaseUntil)
		})
	}
	p.Wait()
	return nil
}

func (c *Collector) process(ctx context.Context, entryID string, leaseUntil time.Time) {
	claimed, err := c.syncRepo.Claim(ctx, entryID, c.workerID, leaseUntil)
	if err != nil {
		// Lost the race to another worker; nothing to do
		if ierr.IsVersionConflict(err) {
			return
		}
		c.logger.Errorw("failed to claim queue entry",
			"worker_id", c.workerID,
			"entry_id", entryID,
			"error", err)
		return
	}

	if err := c.dispatcher.Dispatch(ctx, claimed); err != nil {
		c.logger.Errorw("dispatch failed",
			"worker_id", c.workerID,
			"entry_id", entryID,
			"error", err)
	}
}

// Depth reports queue depth per status for operator visibility
func (c *Collector) Depth(ctx context.Context) (map[string]int, error) {
	return c.syncRepo.CountByStatus(ctx)
}
