package wizard

import (
	"sync"
	"time"
)

// Ticker abstracts time.Ticker so the countdown can be driven by hand.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) Chan() <-chan time.Time {
	return t.C
}

// NewTimeTicker returns a Ticker backed by time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Cooldown counts down whole seconds on its own goroutine. Arm restarts the
// count; Stop ends it and waits for the goroutine to exit.
type Cooldown struct {
	mu        sync.Mutex
	remaining int
	stop      chan struct{}
	wg        sync.WaitGroup
	newTicker func(time.Duration) Ticker
	onTick    func(remaining int)
}

// NewCooldown creates a stopped cooldown. onTick runs after every decrement,
// without the cooldown lock held.
func NewCooldown(newTicker func(time.Duration) Ticker, onTick func(remaining int)) *Cooldown {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	return &Cooldown{
		newTicker: newTicker,
		onTick:    onTick,
	}
}

// Arm (re)starts the countdown at seconds.
func (c *Cooldown) Arm(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if seconds <= 0 {
		c.remaining = 0
		return
	}
	c.remaining = seconds
	stop := make(chan struct{})
	c.stop = stop
	t := c.newTicker(time.Second)
	c.wg.Add(1)
	go c.run(t, stop)
}

func (c *Cooldown) run(t Ticker, stop chan struct{}) {
	defer c.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.Chan():
			c.mu.Lock()
			select {
			case <-stop:
				c.mu.Unlock()
				return
			default:
			}
			c.remaining--
			left := c.remaining
			if left <= 0 {
				c.remaining = 0
				left = 0
				c.stop = nil
			}
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(left)
			}
			if left == 0 {
				return
			}
		}
	}
}

// Remaining returns the seconds left, zero when idle.
func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Stop cancels a running countdown and waits for its goroutine.
func (c *Cooldown) Stop() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.remaining = 0
	c.mu.Unlock()
	c.wg.Wait()
}
