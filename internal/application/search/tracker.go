package search

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MaxRecent is how many distinct queries are remembered per user.
const MaxRecent = 5

const recentPrefix = "recent_searches:"

// Tracker keeps a user's recent queries, most recent first, without duplicates.
type Tracker interface {
	Record(ctx context.Context, userID, query string) ([]string, error)
	Recent(ctx context.Context, userID string) ([]string, error)
}

// push moves q to the front of list and caps it at MaxRecent.
func push(list []string, q string) []string {
	out := make([]string, 0, MaxRecent)
	out = append(out, q)
	for _, s := range list {
		if s == q {
			continue
		}
		if len(out) == MaxRecent {
			break
		}
		out = append(out, s)
	}
	return out
}

// MemoryTracker lives in the process; history is lost on restart.
type MemoryTracker struct {
	mu     sync.Mutex
	byUser map[string][]string
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{byUser: make(map[string][]string)}
}

func (m *MemoryTracker) Record(ctx context.Context, userID, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	m.mu.Lock()
	defer m.mu.Unlock()
	if query == "" {
		return clone(m.byUser[userID]), nil
	}
	m.byUser[userID] = push(m.byUser[userID], query)
	return clone(m.byUser[userID]), nil
}

func (m *MemoryTracker) Recent(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.byUser[userID]), nil
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// RedisTracker keeps the list in Redis so every API instance sees the same history.
type RedisTracker struct {
	Rdb *redis.Client
}

func (r *RedisTracker) Record(ctx context.Context, userID, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.Recent(ctx, userID)
	}
	key := recentPrefix + userID
	pipe := r.Rdb.TxPipeline()
	pipe.LRem(ctx, key, 0, query)
	pipe.LPush(ctx, key, query)
	pipe.LTrim(ctx, key, 0, MaxRecent-1)
	list := pipe.LRange(ctx, key, 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return []string{}, err
	}
	return list.Val(), nil
}

func (r *RedisTracker) Recent(ctx context.Context, userID string) ([]string, error) {
	list, err := r.Rdb.LRange(ctx, recentPrefix+userID, 0, MaxRecent-1).Result()
	if err != nil {
		return []string{}, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
