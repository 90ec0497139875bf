package auth

import (
	"context"
	"log"
	"sync"
	"time"
)

// JanitorInterval is how often expired sessions and OAuth states are purged
const JanitorInterval = 10 * time.Minute

// Janitor periodically removes expired sessions and abandoned login attempts
type Janitor struct {
	sessionStore *SessionStore
	stateStore   *OAuthStateStore
	interval     time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewJanitor creates a janitor; interval <= 0 uses JanitorInterval
func NewJanitor(sessionStore *SessionStore, stateStore *OAuthStateStore, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = JanitorInterval
	}
	return &Janitor{
		sessionStore: sessionStore,
		stateStore:   stateStore,
		interval:     interval,
		stopCh:       make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval
func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.Sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-j.stopCh:
				return
			case <-ticker.C:
				j.Sweep(ctx)
			}
		}
	}()
}

// Stop waits for the janitor goroutine to exit
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	j.wg.Wait()
}

// Sweep purges expired rows once
func (j *Janitor) Sweep(ctx context.Context) {
	if j.sessionStore != nil {
		if n, err := j.sessionStore.CleanupExpiredSessions(ctx); err != nil {
			log.Printf("auth: cleanup sessions: %v", err)
		} else if n > 0 {
			log.Printf("auth: removed %d expired sessions", n)
		}
	}
	if j.stateStore != nil {
		if _, err := j.stateStore.CleanupExpiredStates(ctx); err != nil {
			log.Printf("auth: cleanup oauth states: %v", err)
		}
	}
}
