package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/domain"
)

func (g *Guard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots)
}

func TestGuard_PerKey(t *testing.T) {
	g := NewGuard()
	releaseA, ok := g.TryAcquire("buy-product:1")
	assert.True(t, ok)

	_, ok = g.TryAcquire("buy-product:1")
	assert.False(t, ok)

	releaseB, ok := g.TryAcquire("buy-product:2")
	assert.True(t, ok)
	releaseB()

	releaseA()
	releaseA() // second release is harmless

	again, ok := g.TryAcquire("buy-product:1")
	assert.True(t, ok)
	again()
}

func TestGuard_ForgetsReleasedKeys(t *testing.T) {
	g := NewGuard()
	for id := int64(1); id <= 50; id++ {
		release, ok := g.TryAcquire(domain.ActionRequest{Kind: domain.ActionAddToCart, ProductID: id}.Key())
		assert.True(t, ok)
		release()
	}
	assert.Equal(t, 0, g.size())

	release, _ := g.TryAcquire("add-to-cart:1")
	_, ok := g.TryAcquire("add-to-cart:1")
	assert.False(t, ok)
	assert.Equal(t, 1, g.size(), "a dropped attempt keeps the holder's slot")
	release()
	assert.Equal(t, 0, g.size())
}

func TestActionRequest_Key(t *testing.T) {
	assert.Equal(t, "buy-product:7", domain.ActionRequest{Kind: domain.ActionBuyProduct, ProductID: 7}.Key())
	assert.NotEqual(t,
		domain.ActionRequest{Kind: domain.ActionAddToCart, ProductID: 7}.Key(),
		domain.ActionRequest{Kind: domain.ActionBuyProduct, ProductID: 7}.Key())
}
