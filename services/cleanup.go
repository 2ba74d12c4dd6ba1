package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// CleanupStats is the outcome of the most recent cleanup pass.
type CleanupStats struct {
	LastRun       time.Time `json:"last_run"`
	StaleChapters int64     `json:"stale_chapters"`
	ExpiredShares int64     `json:"expired_shares"`
	TotalRuns     int       `json:"total_runs"`
	LastError     string    `json:"last_error,omitempty"`
}

// CleanupService handles background cleanup tasks: stale cached chapters and
// expired share links.
type CleanupService struct {
	store    *VerseStore
	shares   *ShareService
	cacheTTL time.Duration
	interval time.Duration

	mu     sync.Mutex
	stats  CleanupStats
	cancel context.CancelFunc
	done   chan struct{}
}

var cleanupService *CleanupService

// InitCleanupService initializes the singleton cleanup service.
func InitCleanupService(store *VerseStore, shares *ShareService, cacheTTL, interval time.Duration) *CleanupService {
	cleanupService = NewCleanupService(store, shares, cacheTTL, interval)
	return cleanupService
}

// GetCleanupService returns the initialized cleanup service.
func GetCleanupService() *CleanupService {
	return cleanupService
}

func NewCleanupService(store *VerseStore, shares *ShareService, cacheTTL, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{store: store, shares: shares, cacheTTL: cacheTTL, interval: interval}
}

// Start runs a pass immediately and then every interval until Stop.
func (s *CleanupService) Start() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
	log.Printf("🧹 Cleanup service started (every %s)", s.interval)
}

// Stop stops the worker and waits for a running pass to finish.
func (s *CleanupService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Println("🧹 Cleanup service stopped")
}

// RunOnce performs one cleanup pass.
func (s *CleanupService) RunOnce(ctx context.Context) CleanupStats {
	var stale, expired int64
	var lastErr string

	if s.store != nil && s.cacheTTL > 0 {
		n, err := s.store.PurgeStaleChapters(ctx, time.Now().UTC().Add(-s.cacheTTL))
		if err != nil {
			log.Printf("Error purging stale chapters: %v", err)
			lastErr = err.Error()
		}
		stale = n
	}
	if s.shares != nil {
		n, err := s.shares.PurgeExpired(ctx)
		if err != nil {
			log.Printf("Error purging expired share links: %v", err)
			lastErr = err.Error()
		}
		expired = n
	}

	if stale > 0 || expired > 0 {
		log.Printf("✅ Cleaned up %d stale chapters and %d expired share links", stale, expired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.LastRun = time.Now().UTC()
	s.stats.StaleChapters = stale
	s.stats.ExpiredShares = expired
	s.stats.TotalRuns++
	s.stats.LastError = lastErr
	return s.stats
}

func (s *CleanupService) Stats() CleanupStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
