package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStablePerPrompt(t *testing.T) {
	a := Key("summarize anomalies")
	assert.Equal(t, a, Key("summarize anomalies"))
	assert.NotEqual(t, a, Key("summarize anomalies!"))
	assert.True(t, strings.HasPrefix(a, "insight:"))
	assert.Len(t, a, len("insight:")+64)
}

func TestCacheWithoutClientMisses(t *testing.T) {
	c := NewRedisInsightCache(nil, time.Minute)

	require.NoError(t, c.Set(context.Background(), "p", "r"))
	value, ok, err := c.Get(context.Background(), "p")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}
