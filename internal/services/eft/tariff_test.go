package eft

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/corebank/internal/common"
)

var testBands = []common.TariffBand{
	{UpTo: "10000", Charge: "2.50"},
	{UpTo: "100000", Charge: "5.00"},
	{UpTo: "200000", Charge: "15.00"},
	{UpTo: "", Charge: "25.00"},
}

func TestChargeForBands(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"1", "2.5"},
		{"10000", "2.5"}, // band boundary is inclusive
		{"10000.01", "5"},
		{"100000", "5"},
		{"150000", "15"},
		{"200000", "15"},
		{"200000.01", "25"}, // open-ended top band
		{"99999999", "25"},
	}
	for _, c := range cases {
		amount, err := decimal.NewFromString(c.amount)
		assert.NoError(t, err)
		got := chargeFor(testBands, amount)
		assert.Equal(t, c.want, got.String(), "amount %s", c.amount)
	}
}

func TestChargeForEmptyTariff(t *testing.T) {
	got := chargeFor(nil, decimal.NewFromInt(500))
	assert.True(t, got.IsZero())
}

func TestNextBatchTime(t *testing.T) {
	day := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
	}
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"mid-window lands on next hour", day(10, 15), day(11, 0)},
		{"exactly on the hour goes to next slot", day(10, 0), day(11, 0)},
		{"before window opens", day(5, 30), day(8, 0)},
		{"last in-window submission", day(18, 45), day(19, 0)},
		{"after window wraps to next day", day(19, 30), time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)},
		{"just before midnight", day(23, 59), time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := nextBatchTime(c.now, 8, 19)
			assert.True(t, got.Equal(c.want), "got %s, want %s", got, c.want)
		})
	}
}

func TestNextBatchTimeHalfHourOffsetZone(t *testing.T) {
	// Bank-branch locales include half-hour UTC offsets; slots must
	// still land on wall-clock hours, not UTC-epoch hour boundaries.
	ist := time.FixedZone("IST", 5*3600+30*60)
	day := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 2, hour, minute, 0, 0, ist)
	}
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"mid-window lands on next wall-clock hour", day(10, 17), day(11, 0)},
		{"past the half hour still lands on the hour", day(10, 45), day(11, 0)},
		{"exactly on the hour goes to next slot", day(10, 0), day(11, 0)},
		{"after window wraps to next day", day(19, 30), time.Date(2025, 6, 3, 8, 0, 0, 0, ist)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := nextBatchTime(c.now, 8, 19)
			assert.True(t, got.Equal(c.want), "got %s, want %s", got, c.want)
			assert.Zero(t, got.Minute())
		})
	}
}

func TestInBatchWindow(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2025, 6, 2, hour, 30, 0, 0, time.UTC)
	}
	assert.False(t, inBatchWindow(at(7), 8, 19))
	assert.True(t, inBatchWindow(at(8), 8, 19))
	assert.True(t, inBatchWindow(at(19), 8, 19))
	assert.False(t, inBatchWindow(at(20), 8, 19))
}

func TestInClockWindow(t *testing.T) {
	// 2025-06-02 is a Monday, 2025-06-07 a Saturday.
	monday := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
	}
	assert.True(t, inClockWindow(monday(9, 0), "09:00", "16:30"))
	assert.True(t, inClockWindow(monday(16, 30), "09:00", "16:30"))
	assert.False(t, inClockWindow(monday(8, 59), "09:00", "16:30"))
	assert.False(t, inClockWindow(monday(16, 31), "09:00", "16:30"))

	saturday := time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)
	assert.False(t, inClockWindow(saturday, "09:00", "16:30"))
	assert.False(t, inClockWindow(sunday, "09:00", "16:30"))
}
