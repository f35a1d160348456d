// internal/login/throttle.go
package login

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultThrottleLimit  = 10
	defaultThrottleWindow = 5 * time.Minute
)

// Throttle counts failed attempts per identifier+IP in Redis and blocks
// further verification once the fixed window fills. Redis trouble fails
// open: a degraded cache must not lock users out.
type Throttle struct {
	log    *zap.SugaredLogger
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewThrottle(log *zap.SugaredLogger, rdb *redis.Client) *Throttle {
	return &Throttle{log: log, rdb: rdb, limit: defaultThrottleLimit, window: defaultThrottleWindow}
}

func throttleKey(email, ip string) string {
	return "mam:fails:" + email + ":" + ip
}

// Blocked reports whether this identifier+IP has exceeded the window.
func (t *Throttle) Blocked(ctx context.Context, email, ip string) bool {
	n, err := t.rdb.Get(ctx, throttleKey(email, ip)).Int64()
	if err != nil {
		if err != redis.Nil {
			t.log.Warnw("throttle read failed, failing open", "err", err)
		}
		return false
	}
	return n >= t.limit
}

// RecordFailure bumps the window counter after an exhausted login.
func (t *Throttle) RecordFailure(ctx context.Context, email, ip string) {
	key := throttleKey(email, ip)
	pipe := t.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		t.log.Warnw("throttle write failed", "err", err)
	}
}
