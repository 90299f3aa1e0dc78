package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTripReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Save(ctx, "fp", resolvedTree("#205081")))

	a, ok, err := m.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	a.Design.BrandColor = "#ffffff"

	b, ok, err := m.Get(ctx, "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "#205081", b.Design.BrandColor)
}

func TestNopNeverHits(t *testing.T) {
	ctx := context.Background()
	var n Nop
	require.NoError(t, n.Save(ctx, "fp", resolvedTree("#205081")))
	_, ok, err := n.Get(ctx, "fp")
	require.NoError(t, err)
	assert.False(t, ok)
}
