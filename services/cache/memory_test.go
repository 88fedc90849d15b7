package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mc := NewMemoryCache()
	mc.now = func() time.Time { return now }

	_, err := mc.Get("billetlugen_rate_limited")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, mc.Set("billetlugen_rate_limited", []byte("300"), 5*time.Minute))
	value, err := mc.Get("billetlugen_rate_limited")
	assert.NoError(t, err)
	assert.Equal(t, "300", string(value))

	now = now.Add(5 * time.Minute)
	_, err = mc.Get("billetlugen_rate_limited")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, mc.Set("forever", []byte("x"), 0))
	now = now.Add(24 * time.Hour)
	_, err = mc.Get("forever")
	assert.NoError(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	assert.IsType(t, &MemoryCache{}, New(""))
	assert.IsType(t, &MemcacheService{}, New("localhost:11211"))
}
