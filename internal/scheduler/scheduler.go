// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic background jobs: rewarming the
// content list cache and pruning old event log rows.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nodezblockchain/nodez-go/internal/cache"
	"github.com/nodezblockchain/nodez-go/internal/content"
	"github.com/nodezblockchain/nodez-go/internal/store"
)

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron          *cron.Cron
	queries       *store.Queries
	contentCache  *cache.ContentCache
	repos         []*content.Repository
	retentionDays int
	logger        *slog.Logger
}

// New creates a scheduler. retentionDays bounds the event log; zero
// disables the sweep.
func New(queries *store.Queries, contentCache *cache.ContentCache, retentionDays int, logger *slog.Logger, repos ...*content.Repository) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		queries:       queries,
		contentCache:  contentCache,
		repos:         repos,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Start registers the jobs and begins the cron loop. The cache is
// warmed once immediately so the first request after boot is served
// hot.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.rewarmContentCache); err != nil {
		return err
	}

	if s.retentionDays > 0 {
		if _, err := s.cron.AddFunc("0 3 * * *", func() {
			if err := s.pruneEvents(); err != nil {
				s.logger.Error("event log prune failed", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	go s.rewarmContentCache()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) rewarmContentCache() {
	if s.contentCache == nil || len(s.repos) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.contentCache.Warm(ctx, s.repos...)
}

// pruneEvents deletes event rows older than the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned event log",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
