package eft

import (
	"time"

	"github.com/bobmcallan/corebank/internal/common"
	"github.com/shopspring/decimal"
)

// chargeFor resolves the charge for amount from a tariff band table.
// Bands are ordered ascending; an empty UpTo is the open-ended top.
func chargeFor(bands []common.TariffBand, amount decimal.Decimal) decimal.Decimal {
	for _, band := range bands {
		if band.UpTo == "" {
			return mustDecimal(band.Charge)
		}
		upTo, err := decimal.NewFromString(band.UpTo)
		if err != nil {
			continue
		}
		if amount.LessThanOrEqual(upTo) {
			return mustDecimal(band.Charge)
		}
	}
	return decimal.Zero
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// nextBatchTime computes the next top-of-hour batch slot at or after
// now, wrapping to the next day's first slot when the window is past.
// Slots are wall-clock hours in now's location, so half-hour-offset
// zones still batch at minute zero.
func nextBatchTime(now time.Time, startHour, endHour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
	if next.Hour() < startHour {
		return time.Date(next.Year(), next.Month(), next.Day(), startHour, 0, 0, 0, next.Location())
	}
	if next.Hour() > endHour {
		day := next.AddDate(0, 0, 1)
		return time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, day.Location())
	}
	return next
}

// inBatchWindow reports whether a batch may run at t.
func inBatchWindow(t time.Time, startHour, endHour int) bool {
	return t.Hour() >= startHour && t.Hour() <= endHour
}

// inClockWindow reports whether t falls inside an HH:MM window on a
// weekday. Used by the RTGS gate.
func inClockWindow(t time.Time, windowStart, windowEnd string) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	start, err := common.MinutesOfDay(windowStart)
	if err != nil {
		return false
	}
	end, err := common.MinutesOfDay(windowEnd)
	if err != nil {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= start && minutes <= end
}
