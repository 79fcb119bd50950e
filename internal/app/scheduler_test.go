package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntilNextHour(t *testing.T) {
	at := time.Date(2025, 6, 2, 10, 17, 30, 0, time.UTC)
	assert.Equal(t, 42*time.Minute+30*time.Second, untilNextHour(at))

	onTheHour := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, untilNextHour(onTheHour))

	beforeMidnight := time.Date(2025, 6, 2, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Minute, untilNextHour(beforeMidnight))
}

func TestUntilNextHourHalfHourOffsetZone(t *testing.T) {
	// The tick must target the wall-clock hour in the server's zone,
	// not a UTC-epoch hour boundary shifted by the offset.
	ist := time.FixedZone("IST", 5*3600+30*60)
	at := time.Date(2025, 6, 2, 10, 17, 0, 0, ist)

	d := untilNextHour(at)
	assert.Equal(t, 43*time.Minute, d)
	next := at.Add(d)
	assert.Zero(t, next.Minute())
	assert.Equal(t, 11, next.Hour())
}
