package cache

import (
	"context"
	"testing"

	"recruit-track-go/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueryCacheHitAndMiss(t *testing.T) {
	c := NewMemoryQueryCache()
	ctx := context.Background()
	key := Key{Kind: constants.KindCandidate, Filter: "status=Relevant"}

	_, ok := c.GetList(ctx, key)
	assert.False(t, ok)

	c.SetList(ctx, key, []byte(`[{"name":"Alice"}]`))
	payload, ok := c.GetList(ctx, key)
	require.True(t, ok)
	assert.JSONEq(t, `[{"name":"Alice"}]`, string(payload))

	// 不同过滤条件是不同的缓存条目
	_, ok = c.GetList(ctx, Key{Kind: constants.KindCandidate, Filter: "status=Rejectable"})
	assert.False(t, ok)
}

func TestMemoryQueryCacheInvalidateByKind(t *testing.T) {
	c := NewMemoryQueryCache()
	ctx := context.Background()

	candidateKey := Key{Kind: constants.KindCandidate, Filter: "a=1"}
	postKey := Key{Kind: constants.KindPost, Filter: "b=2"}
	c.SetList(ctx, candidateKey, []byte(`[1]`))
	c.SetList(ctx, postKey, []byte(`[2]`))

	// 失效按实体类型整体进行，不影响其他类型
	require.NoError(t, c.Invalidate(ctx, constants.KindCandidate))

	_, ok := c.GetList(ctx, candidateKey)
	assert.False(t, ok)
	_, ok = c.GetList(ctx, postKey)
	assert.True(t, ok)

	// 失效后重新写入再次可读
	c.SetList(ctx, candidateKey, []byte(`[3]`))
	payload, ok := c.GetList(ctx, candidateKey)
	require.True(t, ok)
	assert.Equal(t, "[3]", string(payload))
}

func TestKeyFilterDigestStable(t *testing.T) {
	a := Key{Kind: constants.KindCandidate, Filter: "status=Relevant&post="}
	b := Key{Kind: constants.KindCandidate, Filter: "status=Relevant&post="}
	other := Key{Kind: constants.KindCandidate, Filter: "status=Rejectable&post="}

	assert.Equal(t, a.filterDigest(), b.filterDigest())
	assert.NotEqual(t, a.filterDigest(), other.filterDigest())
}
