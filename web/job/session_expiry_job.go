// Package job holds the background tasks scheduled by the web server.
package job

import (
	"time"

	"github.com/authgate/authgate/logger"
	"github.com/authgate/authgate/util/common"
	"github.com/authgate/authgate/web/cache"
)

// EmbeddedSessionExpiryJob advances the clock of the embedded Redis so that
// session keys past their TTL are evicted. An external Redis expires keys on
// its own and does not need it.
type EmbeddedSessionExpiryJob struct {
	now     func() time.Time
	lastRun time.Time
	advance func(time.Duration) error
}

// NewEmbeddedSessionExpiryJob creates a new job that starts counting from now.
func NewEmbeddedSessionExpiryJob() *EmbeddedSessionExpiryJob {
	return &EmbeddedSessionExpiryJob{
		now:     time.Now,
		lastRun: time.Now(),
		advance: cache.FastForward,
	}
}

// Run is called by the scheduler.
func (j *EmbeddedSessionExpiryJob) Run() {
	defer common.Recover("session expiry job")

	now := j.now()
	elapsed := now.Sub(j.lastRun)
	if elapsed <= 0 {
		return
	}
	if err := j.advance(elapsed); err != nil {
		logger.Warning("session expiry job err:", err)
		return
	}
	j.lastRun = now
}
