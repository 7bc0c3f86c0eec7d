package model

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type Clock struct {
	mu          sync.Mutex
	timeLeft    time.Duration
	lastStarted time.Time // When the clock was last started
	isRunning   bool
	now         func() time.Time
}

func NewClock(initialTime time.Duration) *Clock {
	return &Clock{
		timeLeft: initialTime,
		now:      time.Now,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = c.now()
		c.isRunning = true
		log.Debugf("clock started at %s with %s left", c.lastStarted.Format(time.RFC3339), c.timeLeft)
	}
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		c.timeLeft -= c.now().Sub(c.lastStarted)
		c.isRunning = false
		log.Debugf("clock stopped with %s left", c.timeLeft)
	}
}

func (c *Clock) GetTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return c.timeLeft - c.now().Sub(c.lastStarted)
	}
	return c.timeLeft
}

// Expired reports whether the flag has fallen.
func (c *Clock) Expired() bool {
	return c.GetTimeLeft() <= 0
}

// Deciseconds is the remaining time in the unit the client renders.
func (c *Clock) Deciseconds() int {
	left := c.GetTimeLeft()
	if left < 0 {
		left = 0
	}
	return int(left.Milliseconds() / 100)
}
