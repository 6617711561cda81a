package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMidnightUsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	instant := time.Date(2026, 3, 9, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), Midnight(instant, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Midnight(instant, jakarta))
}

func TestFixedClock(t *testing.T) {
	instant := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var c Clock = Fixed(instant)
	assert.Equal(t, instant, c.Now())
}
