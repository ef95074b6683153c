package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

func debtLockKey(instanceId int) string {
	return fmt.Sprintf("debt:%d", instanceId)
}

// acquireDebtLock takes the best-effort Redis lock for one instance and returns its release func.
// If Redis is unavailable or the lock is held, it logs and proceeds; the row lock and version check still serialize writes.
func (l *DebtLedger) acquireDebtLock(ctx context.Context, op string, instanceId int) func() {
	if !l.UseRedisLocks {
		return func() {}
	}
	fields := logrus.Fields{
		"field":       op,
		"instance_id": instanceId,
	}
	if l.Locker == nil {
		l.Logger.WithFields(fields).Warn("redis lock not ready; proceeding without redis lock")
		return func() {}
	}
	lock, err := l.Locker.Obtain(ctx, debtLockKey(instanceId), l.LockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.LockRetryInterval), l.LockRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.Logger.WithFields(fields).Warn("could not obtain redis lock; proceeding without redis lock")
		return func() {}
	} else if err != nil {
		l.Logger.WithFields(fields).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		return func() {}
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			l.Logger.WithFields(fields).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}
}
