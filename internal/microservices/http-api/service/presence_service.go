package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dareduel/internal/shared"

	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:user:"

// PresenceService tracks which users currently hold an open realtime
// connection. Entries live in Redis with a TTL so a crashed server never
// leaves ghosts online; Refresh is called on every heartbeat to keep live
// entries alive.
//
// Presence is best-effort: when Redis is unreachable every user reads as
// offline and writes are dropped with a warning. The game itself never
// depends on it.
type PresenceService interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) bool
	Snapshot(ctx context.Context, userIDs []string) []shared.PresenceSnapshot
}

type presenceService struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPresenceService returns a Redis-backed presence tracker. rdb may be
// nil, in which case every user reads as offline.
func NewPresenceService(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) PresenceService {
	return &presenceService{rdb: rdb, ttl: ttl, logger: logger}
}

func presenceKey(userID string) string {
	return presenceKeyPrefix + userID
}

func (s *presenceService) MarkOnline(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return nil
	}
	err := s.rdb.Set(ctx, presenceKey(userID), time.Now().UTC().Format(time.RFC3339), s.ttl).Err()
	if err != nil {
		s.logger.Warn("presence mark-online failed", "user_id", userID, "error", err)
		return fmt.Errorf("mark online: %w", err)
	}
	return nil
}

func (s *presenceService) MarkOffline(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.Del(ctx, presenceKey(userID)).Err(); err != nil {
		s.logger.Warn("presence mark-offline failed", "user_id", userID, "error", err)
		return fmt.Errorf("mark offline: %w", err)
	}
	return nil
}

// Refresh extends the TTL without rewriting the first-seen timestamp.
func (s *presenceService) Refresh(ctx context.Context, userID string) error {
	if s.rdb == nil {
		return nil
	}
	ok, err := s.rdb.Expire(ctx, presenceKey(userID), s.ttl).Result()
	if err != nil {
		s.logger.Warn("presence refresh failed", "user_id", userID, "error", err)
		return fmt.Errorf("refresh presence: %w", err)
	}
	if !ok {
		// Key expired between heartbeats, recreate it.
		return s.MarkOnline(ctx, userID)
	}
	return nil
}

func (s *presenceService) IsOnline(ctx context.Context, userID string) bool {
	if s.rdb == nil {
		return false
	}
	n, err := s.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		s.logger.Warn("presence lookup failed", "user_id", userID, "error", err)
		return false
	}
	return n > 0
}

// Snapshot resolves presence for a batch of users with a single MGET.
func (s *presenceService) Snapshot(ctx context.Context, userIDs []string) []shared.PresenceSnapshot {
	snapshots := make([]shared.PresenceSnapshot, len(userIDs))
	for i, id := range userIDs {
		snapshots[i] = shared.PresenceSnapshot{UserID: id}
	}
	if s.rdb == nil || len(userIDs) == 0 {
		return snapshots
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = presenceKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		s.logger.Warn("presence snapshot failed", "count", len(userIDs), "error", err)
		return snapshots
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		snapshots[i].Online = true
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			snapshots[i].LastSeen = ts
		}
	}
	return snapshots
}
