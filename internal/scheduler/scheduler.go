// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs Lumina's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/lumina/internal/model"
)

// Job names.
const (
	JobRefreshTrending = "refresh_trending"
	JobPruneEvents     = "prune_events"
)

// PruneSchedule runs event pruning daily at 03:00.
const PruneSchedule = "0 3 * * *"

// jobTimeout bounds a single job run.
const jobTimeout = 2 * time.Minute

// TrendingRefresher rebuilds the cached trending list.
type TrendingRefresher interface {
	RefreshTrending(ctx context.Context) ([]model.Post, error)
}

// EventPruner deletes event log rows older than a cutoff.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error)
}

// Config controls job schedules.
type Config struct {
	TrendingSchedule string
	EventRetention   time.Duration
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	LastError   string
}

type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error

	mu      sync.Mutex
	lastErr error
}

// Scheduler handles cron jobs for trending refresh and event pruning.
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	trending TrendingRefresher
	events   EventPruner
	cfg      Config
	now      func() time.Time

	jobs map[string]*job
}

// New creates a new scheduler instance.
func New(trending TrendingRefresher, events EventPruner, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		logger:   logger,
		trending: trending,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
		jobs:     make(map[string]*job),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.trending != nil && s.cfg.TrendingSchedule != "" {
		if err := s.add(JobRefreshTrending, "Rebuild the trending posts cache", s.cfg.TrendingSchedule, s.refreshTrending); err != nil {
			return err
		}
	}
	if s.events != nil && s.cfg.EventRetention > 0 {
		if err := s.add(JobPruneEvents, "Delete old event log entries", PruneSchedule, s.pruneEvents); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

func (s *Scheduler) add(name, description, schedule string, run func(ctx context.Context) error) error {
	j := &job{
		name:        name,
		description: description,
		schedule:    schedule,
		run:         run,
	}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for %s: %w", schedule, name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) execute(j *job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	err := j.run(ctx)
	j.mu.Lock()
	j.lastErr = err
	j.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err, "category", "scheduler")
	}
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns all registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		info := JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		}
		j.mu.Lock()
		if j.lastErr != nil {
			info.LastError = j.lastErr.Error()
		}
		j.mu.Unlock()
		result = append(result, info)
	}

	sort.Slice(result, func(a, b int) bool { return result[a].Name < result[b].Name })
	return result
}

// TriggerNow runs a registered job immediately on the calling goroutine.
func (s *Scheduler) TriggerNow(name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	s.logger.Info("manually triggering job", "name", name)
	s.execute(j)

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

func (s *Scheduler) refreshTrending(ctx context.Context) error {
	posts, err := s.trending.RefreshTrending(ctx)
	if err != nil {
		return fmt.Errorf("refreshing trending: %w", err)
	}
	s.logger.Debug("trending refreshed", "posts", len(posts))
	return nil
}

func (s *Scheduler) pruneEvents(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.cfg.EventRetention)
	deleted, err := s.events.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pruning events: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("pruned old events", "deleted", deleted, "before", cutoff.Format(time.RFC3339))
	}
	return nil
}
