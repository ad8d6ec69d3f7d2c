package health

import (
	"context"
	"errors"
	"testing"

	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping() error { return f.err }

func newRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestCollect_NilDependencies(t *testing.T) {
	r := Collect(context.Background(), nil, nil, nil)
	assert.Equal(t, "issue", r.Status)
	assert.Equal(t, "disconnected", r.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", r.Dependencies["redis"].Status)
	assert.True(t, r.Schema.Ready)
	assert.Equal(t, 0, r.Traffic.TotalRequests)
}

func TestCollect_TrafficCounters(t *testing.T) {
	ctx := context.Background()
	rdb := newRedis(t)

	r := Collect(ctx, rdb, fakePinger{}, nil)
	assert.Equal(t, "ok", r.Status)
	assert.Equal(t, "100", r.Traffic.SuccessRate)

	require.NoError(t, rdb.Set(ctx, middleware.KeyReqTotal, "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyReqErrors, "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyResTime, "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyResCount, "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, middleware.KeyLastReq, `{"method":"GET","path":"/api/posts"}`, 0).Err())

	r = Collect(ctx, rdb, fakePinger{}, nil)
	assert.Equal(t, 10, r.Traffic.TotalRequests)
	assert.Equal(t, 8, r.Traffic.SuccessCount)
	assert.Equal(t, "80.0", r.Traffic.SuccessRate)
	assert.Equal(t, "15.05", r.Traffic.AvgResponseTime)
	assert.Equal(t, "/api/posts", r.Traffic.LastRequest.(map[string]interface{})["path"])
}

func TestCollect_IssueWhenTablesMissingOrDBDown(t *testing.T) {
	ctx := context.Background()
	rdb := newRedis(t)

	r := Collect(ctx, rdb, fakePinger{}, database.NewReadiness("post_organizations"))
	assert.Equal(t, "issue", r.Status)
	assert.False(t, r.Schema.Ready)
	assert.Equal(t, []string{"post_organizations"}, r.Schema.Missing)

	r = Collect(ctx, rdb, fakePinger{err: errors.New("down")}, nil)
	assert.Equal(t, "error", r.Dependencies["database"].Status)
	assert.Equal(t, "issue", r.Status)
}

func TestResetTrafficAndRecentErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newRedis(t)
	require.NoError(t, rdb.Set(ctx, middleware.KeyReqTotal, "4", 0).Err())
	require.NoError(t, rdb.LPush(ctx, middleware.KeyErrorLog, `{"status":500}`, "not json").Err())

	errs, err := RecentErrors(ctx, rdb, 50)
	require.NoError(t, err)
	assert.Len(t, errs, 1)

	require.NoError(t, ResetTraffic(ctx, rdb))
	assert.Equal(t, int64(0), rdb.Exists(ctx, middleware.KeyReqTotal, middleware.KeyErrorLog).Val())
	assert.Equal(t, int64(1), rdb.Exists(ctx, middleware.KeyStartTime).Val())
}
