package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	m := NewManual(start)

	assert.Equal(t, start, m.Now())
	assert.Equal(t, start.Add(50*time.Millisecond), m.Advance(50*time.Millisecond))
	assert.Equal(t, start.Add(50*time.Millisecond), m.Now())

	m.Set(start)
	assert.Equal(t, start, m.Now())
}

func TestRealIsMonotonicEnough(t *testing.T) {
	var c Clock = Real{}
	a := c.Now()
	b := c.Now()
	assert.False(t, b.Before(a))
}
