package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"minerpro-backend/internal/quota"
)

// redisLedger keeps one sorted set per (user, action) with event timestamps
// as scores, so a sliding-window count is a single ZCOUNT.
type redisLedger struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisLedger constructs a Redis-backed ledger. Keys expire after
// retention, which must cover at least the counting window.
func NewRedisLedger(client *redis.Client, retention time.Duration) Ledger {
	if retention < Window {
		retention = Window
	}
	return &redisLedger{client: client, retention: retention}
}

func ledgerKey(userID string, action quota.Action) string {
	return fmt.Sprintf("ledger:%s:%s", userID, action)
}

func (l *redisLedger) CountSince(ctx context.Context, userID string, action quota.Action, since time.Time) (int, error) {
	count, err := l.client.ZCount(ctx, ledgerKey(userID, action),
		strconv.FormatInt(since.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count events: %v", ErrStorageUnavailable, err)
	}
	return int(count), nil
}

func (l *redisLedger) Record(ctx context.Context, event Event) error {
	key := ledgerKey(event.UserID, event.Action)
	pipe := l.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(event.CreatedAt.UnixNano()),
		Member: event.ID,
	})
	pipe.Expire(ctx, key, l.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: record event: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (l *redisLedger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	max := strconv.FormatInt(cutoff.UnixNano()-1, 10)
	iter := l.client.Scan(ctx, 0, "ledger:*", 0).Iterator()
	for iter.Next(ctx) {
		n, err := l.client.ZRemRangeByScore(ctx, iter.Val(), "0", max).Result()
		if err != nil {
			return purged, fmt.Errorf("%w: purge events: %v", ErrStorageUnavailable, err)
		}
		purged += n
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("%w: purge scan: %v", ErrStorageUnavailable, err)
	}
	return purged, nil
}

func (l *redisLedger) Clear(ctx context.Context, userID string) error {
	keys := []string{
		ledgerKey(userID, quota.ActionChat),
		ledgerKey(userID, quota.ActionFAQ),
	}
	if err := l.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: clear events: %v", ErrStorageUnavailable, err)
	}
	return nil
}
