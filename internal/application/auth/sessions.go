package auth

import (
	"context"

	"serviceloop-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// TrackSession remembers sid under user_sessions:<user_id> so it can be revoked later.
func TrackSession(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	return rdb.SAdd(ctx, middleware.UserSessionsPrefix+userID, sid).Err()
}

// UntrackSession removes one session id and its Redis payload.
func UntrackSession(ctx context.Context, rdb *redis.Client, userID, sid string) {
	if sid == "" {
		return
	}
	if userID != "" {
		rdb.SRem(ctx, middleware.UserSessionsPrefix+userID, sid)
	}
	rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
}

// DestroyUserSessions deletes every session of a user except keep (pass "" to drop all).
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID, keep string) {
	if rdb == nil || userID == "" {
		return
	}
	key := middleware.UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		rdb.Del(ctx, key)
		return
	}
	for _, sid := range sessionIDs {
		if sid == keep {
			continue
		}
		rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
		rdb.SRem(ctx, key, sid)
	}
}
