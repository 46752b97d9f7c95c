package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisitors_Allow(t *testing.T) {
	v := NewVisitors(1, 2, time.Minute)
	now := time.Now()

	assert.True(t, v.Allow("10.0.0.1", now))
	assert.True(t, v.Allow("10.0.0.1", now))
	assert.False(t, v.Allow("10.0.0.1", now))

	assert.True(t, v.Allow("10.0.0.2", now), "buckets are per ip")
	assert.True(t, v.Allow("10.0.0.1", now.Add(time.Second)), "refills over time")
}

func TestVisitors_EvictsIdle(t *testing.T) {
	v := NewVisitors(1, 1, time.Minute)
	now := time.Now()

	v.Allow("10.0.0.1", now)
	v.Allow("10.0.0.2", now.Add(2*time.Minute))

	assert.Len(t, v.visitors, 1)
}
