package application

import (
	"context"
	"time"

	"file-utility-bot/internal/domain"
	"file-utility-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Default sweep interval when the configured value is zero
const defaultSweepInterval = time.Minute

// Janitor evicts sessions that stayed idle longer than the configured timeout
type Janitor struct {
	sessions    output.SessionStore
	locks       *keyedMutex
	busy        func(key domain.IdentityKey) bool
	idleTimeout time.Duration
	interval    time.Duration
}

// NewJanitor creates a janitor sharing the key locks of svc. Sessions with
// an operation still queued or running are never evicted.
// idleTimeout <= 0 disables eviction.
func NewJanitor(svc *BotService, idleTimeout, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Janitor{
		sessions:    svc.sessions,
		locks:       svc.locks,
		busy:        svc.hasPending,
		idleTimeout: idleTimeout,
		interval:    interval,
	}
}

// Run sweeps every interval until ctx is done
func (j *Janitor) Run(ctx context.Context) {
	if j.idleTimeout <= 0 {
		logrus.Info("Session idle eviction disabled")
		return
	}

	logrus.Infof("Session janitor started: idle timeout %v, sweep every %v", j.idleTimeout, j.interval)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep evicts every idle session once and returns how many were removed
func (j *Janitor) Sweep() int {
	evicted := 0
	for _, key := range j.sessions.IdleKeys(j.idleTimeout) {
		unlock := j.locks.Lock(key)
		if j.busy(key) {
			unlock()
			continue
		}
		ok, err := j.sessions.Evict(key, j.idleTimeout)
		unlock()
		if err != nil {
			logrus.Errorf("Failed to evict session %s: %v", key, err)
			continue
		}
		if ok {
			evicted++
		}
	}
	if evicted > 0 {
		logrus.Infof("Evicted %d idle sessions", evicted)
	}
	return evicted
}
