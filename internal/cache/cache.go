package cache

import (
	"log/slog"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans registered caches until stopped.
type Janitor struct {
	caches      []Cleaner
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewJanitor creates a janitor; a nil logger disables logging.
func NewJanitor(logger *slog.Logger) *Janitor {
	return &Janitor{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to be cleaned.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Start runs the cleanup loop in its own goroutine.
func (j *Janitor) Start(interval time.Duration) {
	go j.loop(interval)
}

// Sweep cleans every registered cache once and returns the number of
// entries removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

func (j *Janitor) loop(interval time.Duration) {
	defer close(j.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 && j.logger != nil {
				j.logger.Debug("Expired cache entries removed", "count", n)
			}
		case <-j.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup loop and waits for it to exit. Only call after Start.
func (j *Janitor) Stop() {
	close(j.stopCleanup)
	<-j.cleanupDone
}
