package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJoinRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewJoinRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("c1"))
	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	// Other connections have their own window.
	assert.True(t, rl.Allow("c2"))
}

func TestJoinRateLimiterWindowSlides(t *testing.T) {
	rl := NewJoinRateLimiter(1, 20*time.Millisecond)

	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("c1"))
}

func TestJoinRateLimiterForget(t *testing.T) {
	rl := NewJoinRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	rl.Forget("c1")
	assert.True(t, rl.Allow("c1"))
}
