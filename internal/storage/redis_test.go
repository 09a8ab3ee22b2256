package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"ats-evaluator/internal/config"
	"ats-evaluator/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要真实Redis，设置 TEST_REDIS_ADDR 后运行
func TestRedisJDCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping Redis integration test")
	}

	r, err := NewRedisAdapter(&config.RedisConfig{Address: addr})
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	key := "test-" + time.Now().Format("150405.000000")
	defer r.Client.Del(ctx, "ats:jd:vector:"+key, "ats:jd:keywords:"+key)

	_, found, err := r.GetJDVector(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.SetJDVector(ctx, key, []float64{0.1, 0.2}, time.Minute))
	vec, found, err := r.GetJDVector(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float64{0.1, 0.2}, vec)

	groups := types.KeywordGroups{CoreRequirements: []string{"Go"}}
	require.NoError(t, r.SetKeywordGroups(ctx, key, groups, time.Minute))
	got, found, err := r.GetKeywordGroups(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, groups.CoreRequirements, got.CoreRequirements)
}

func TestRedisOptions(t *testing.T) {
	opt := redisOptions(&config.RedisConfig{Address: "localhost:6379", DB: 2, DialTimeoutSeconds: 3})
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 3*time.Second, opt.DialTimeout)
	assert.Zero(t, opt.ReadTimeout)
}
