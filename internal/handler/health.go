// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/lumina/internal/cache"
	"github.com/olegiv/lumina/internal/store"
)

// Health check states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// pingTimeout bounds the database check.
const pingTimeout = 2 * time.Second

// recentEventsLimit is how many logged events a detailed report carries.
const recentEventsLimit = 10

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ContentChecker verifies the static content directory.
type ContentChecker interface {
	Check() error
}

// EventLister reads the newest rows of the events table. *store.Queries
// implements it.
type EventLister interface {
	ListEvents(ctx context.Context, limit int64) ([]store.Event, error)
}

// HealthConfig holds the dependencies of a HealthHandler.
type HealthConfig struct {
	DB         Pinger
	Content    ContentChecker
	Cache      cache.Cacher
	Events     EventLister
	UploadsDir string
	Version    string
	// Detailed exposes check messages and system info. Enabled in
	// development.
	Detailed bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	cfg       HealthConfig
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg HealthConfig) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// StartTime returns when the handler (and application) was started.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
	Events    []RecentEvent    `json:"recent_events,omitempty"`
}

// RecentEvent is a logged warning or error shown in detailed reports.
type RecentEvent struct {
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. The database being down only degrades the
// service, since static posts are still served.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"content":  h.checkContent(),
		"disk":     h.checkDiskSpace(),
	}

	overall := StatusHealthy
	for _, c := range checks {
		if c.Status != StatusHealthy {
			overall = StatusDegraded
		}
	}
	if checks["database"].Status != StatusHealthy && checks["content"].Status != StatusHealthy {
		overall = StatusUnhealthy
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.cfg.Version,
		Checks:    checks,
	}

	if h.cfg.Detailed {
		if sp, ok := h.cfg.Cache.(cache.StatsProvider); ok {
			stats := sp.Stats()
			status.Cache = &stats
		}
		if r.URL.Query().Get("verbose") == "true" {
			status.System = getSystemInfo()
		}
		status.Events = h.recentEvents(r.Context())
	} else {
		for name, c := range checks {
			c.Message = ""
			checks[name] = c
		}
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready - checks the database and content
// directory before traffic is accepted.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	contentCheck := h.checkContent()

	if dbCheck.Status == StatusHealthy && contentCheck.Status == StatusHealthy {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	resp := map[string]string{"status": "not_ready"}
	if h.cfg.Detailed {
		if dbCheck.Message != "" && dbCheck.Status != StatusHealthy {
			resp["database"] = dbCheck.Message
		}
		if contentCheck.Status != StatusHealthy {
			resp["content"] = contentCheck.Message
		}
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

// recentEvents returns the newest logged events, or nil when they cannot be
// read.
func (h *HealthHandler) recentEvents(ctx context.Context) []RecentEvent {
	if h.cfg.Events == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	rows, err := h.cfg.Events.ListEvents(ctx, recentEventsLimit)
	if err != nil {
		return nil
	}
	events := make([]RecentEvent, 0, len(rows))
	for _, e := range rows {
		events = append(events, RecentEvent{
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		})
	}
	return events
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	if h.cfg.DB == nil {
		return Check{Status: StatusUnhealthy, Message: "Not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := h.cfg.DB.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  StatusUnhealthy,
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  StatusHealthy,
		Message: "Connected",
		Latency: latency.String(),
	}
}

// checkContent verifies the static post directory is readable.
func (h *HealthHandler) checkContent() Check {
	if h.cfg.Content == nil {
		return Check{Status: StatusUnhealthy, Message: "Not configured"}
	}
	if err := h.cfg.Content.Check(); err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	}
	return Check{Status: StatusHealthy}
}

// checkDiskSpace checks available disk space in the uploads directory.
func (h *HealthHandler) checkDiskSpace() Check {
	if _, err := os.Stat(h.cfg.UploadsDir); os.IsNotExist(err) {
		// Created on first upload
		return Check{
			Status:  StatusHealthy,
			Message: "Uploads directory does not exist yet",
		}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.cfg.UploadsDir, &stat); err != nil {
		return Check{
			Status:  StatusUnhealthy,
			Message: "Failed to check disk space: " + err.Error(),
		}
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	available := formatBytes(availableBytes)

	const minSpace = 100 * 1024 * 1024 // 100MB
	if availableBytes < minSpace {
		return Check{
			Status:  StatusDegraded,
			Message: "Low disk space: " + available + " available",
		}
	}

	return Check{
		Status:  StatusHealthy,
		Message: available + " available",
	}
}

// getSystemInfo returns system-level metrics.
func getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
