package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkindrix/convo-core/internal/model"
)

func TestUsageMergeAssociative(t *testing.T) {
	a := model.Usage{InputTokens: 10, OutputTokens: 20}
	b := model.Usage{InputTokens: 5, OutputTokens: 5, CacheReadInputTokens: 3}
	c := model.Usage{OutputTokens: 1, CacheCreationInputTokens: 2}

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))

	assert.Equal(t, left, right)
	assert.Equal(t, int64(15), left.InputTokens)
	assert.Equal(t, int64(26), left.OutputTokens)
}

func TestUsageTotalInput(t *testing.T) {
	u := model.Usage{InputTokens: 10, CacheCreationInputTokens: 5, CacheReadInputTokens: 2}
	assert.Equal(t, int64(17), u.TotalInput())
	assert.Equal(t, int64(17), u.TotalTokens())
}

func TestUsageCacheHitRate(t *testing.T) {
	require.Zero(t, model.Usage{}.CacheHitRate())

	u := model.Usage{CacheReadInputTokens: 3, CacheCreationInputTokens: 1}
	assert.InDelta(t, 0.75, u.CacheHitRate(), 1e-9)
}

func TestUsageMergeServerToolRequests(t *testing.T) {
	a := model.Usage{ServerToolRequests: map[string]int64{"web_search": 1}}
	b := model.Usage{ServerToolRequests: map[string]int64{"web_search": 2, "web_fetch": 1}}

	merged := a.Merge(b)
	assert.Equal(t, int64(3), merged.ServerToolRequests["web_search"])
	assert.Equal(t, int64(1), merged.ServerToolRequests["web_fetch"])
}
