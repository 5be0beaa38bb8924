package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portsrepo "github.com/valr-fintech/treasury-ledger/internal/core/ports/repositories"
)

const counterPrefix = "txncount:v1:"

// counterTTL outlives the calendar month the key counts, so a quote issued
// late in the month still sees the full count. Keys expire on their own after
// the month rolls over.
const counterTTL = 40 * 24 * time.Hour

// MonthlyCounter is the Redis-backed monthly transaction-count oracle.
// Counts are keyed per account, per transaction class, per UTC calendar month.
type MonthlyCounter struct {
	client *redis.Client
}

// NewMonthlyCounter creates the counter on an existing Redis client.
func NewMonthlyCounter(client *redis.Client) *MonthlyCounter {
	return &MonthlyCounter{client: client}
}

// Ensure MonthlyCounter implements the TransactionCounter port
var _ portsrepo.TransactionCounter = (*MonthlyCounter)(nil)

// NewClient configures a Redis client from a URL and verifies connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func counterKey(accountID string, class domain.TransactionClass, at time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", counterPrefix, accountID, class, at.UTC().Format("2006-01"))
}

// Count returns the count for the calendar month containing periodStart.
// A missing key means no transactions this month.
func (c *MonthlyCounter) Count(ctx context.Context, accountID string, class domain.TransactionClass, periodStart time.Time) (int64, error) {
	count, err := c.client.Get(ctx, counterKey(accountID, class, periodStart)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read monthly counter: %w", err)
	}
	return count, nil
}

// Increment records one more transaction in the calendar month containing now.
func (c *MonthlyCounter) Increment(ctx context.Context, accountID string, class domain.TransactionClass, now time.Time) (int64, error) {
	key := counterKey(accountID, class, now)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment monthly counter: %w", err)
	}
	// Set the expiry on first increment only; later INCRs keep it.
	if count == 1 {
		if err := c.client.Expire(ctx, key, counterTTL).Err(); err != nil {
			return count, fmt.Errorf("set monthly counter expiry: %w", err)
		}
	}
	return count, nil
}
