package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UsageTracker counts billable actions per user per day in Redis. Keys roll
// over at UTC midnight via expiry, so no cleanup pass is needed.
type UsageTracker struct {
	client *redis.Client
	limit  int // free tier daily allowance
}

func NewUsageTracker(client *redis.Client, freeDailyLimit int) *UsageTracker {
	return &UsageTracker{client: client, limit: freeDailyLimit}
}

func usageKey(userID string, now time.Time) string {
	return fmt.Sprintf("usage:%s:%s", userID, now.UTC().Format("2006-01-02"))
}

// Increment records one action and returns the new daily count.
func (u *UsageTracker) Increment(ctx context.Context, userID string) (int64, error) {
	now := time.Now()
	key := usageKey(userID, now)

	count, err := u.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr usage %s: %w", key, err)
	}
	if count == 1 {
		midnight := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		u.client.ExpireAt(ctx, key, midnight)
	}
	return count, nil
}

// CountToday returns the user's action count for the current UTC day.
func (u *UsageTracker) CountToday(ctx context.Context, userID string) (int, error) {
	count, err := u.client.Get(ctx, usageKey(userID, time.Now())).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage count: %w", err)
	}
	return count, nil
}

// CanGenerate reports whether the user may start another generation. Pro
// subscribers are unlimited; free users get the configured daily allowance.
// remaining is -1 for unlimited.
func (u *UsageTracker) CanGenerate(ctx context.Context, userID string, pro bool) (allowed bool, remaining int, err error) {
	if pro {
		return true, -1, nil
	}

	count, err := u.CountToday(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if count >= u.limit {
		return false, 0, nil
	}
	return true, u.limit - count, nil
}

// Limit exposes the free tier daily allowance.
func (u *UsageTracker) Limit() int { return u.limit }
