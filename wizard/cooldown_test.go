package wizard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCooldownCountsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var seen []int
	ts := &tickers{}
	cd := NewCooldown(ts.New, func(left int) {
		mu.Lock()
		seen = append(seen, left)
		mu.Unlock()
	})

	assert.Zero(t, cd.Remaining())
	cd.Arm(2)
	assert.Equal(t, 2, cd.Remaining())

	tk := ts.Last()
	tk.c <- time.Now()
	require.Eventually(t, func() bool { return cd.Remaining() == 1 }, time.Second, time.Millisecond)
	tk.c <- time.Now()
	require.Eventually(t, func() bool { return cd.Remaining() == 0 }, time.Second, time.Millisecond)

	cd.Stop()
	mu.Lock()
	assert.Equal(t, []int{1, 0}, seen)
	mu.Unlock()
}

func TestCooldownRearmReplacesCountdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	ts := &tickers{}
	cd := NewCooldown(ts.New, nil)

	cd.Arm(5)
	cd.Arm(3)
	assert.Equal(t, 3, cd.Remaining())
	assert.Equal(t, 2, ts.Count())

	ts.Last().c <- time.Now()
	require.Eventually(t, func() bool { return cd.Remaining() == 2 }, time.Second, time.Millisecond)

	cd.Stop()
	assert.Zero(t, cd.Remaining())
	cd.Stop()
}

func TestCooldownArmZero(t *testing.T) {
	defer goleak.VerifyNone(t)

	ts := &tickers{}
	cd := NewCooldown(ts.New, nil)
	cd.Arm(0)
	assert.Zero(t, cd.Remaining())
	assert.Zero(t, ts.Count())
	cd.Stop()
}
