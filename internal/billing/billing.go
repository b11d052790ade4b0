// Package billing derives a registration's billing period and price from a plan.
//
// All functions are pure. Day and week boundaries are computed in the location
// carried by the input time, so callers convert to the gym's configured time
// zone before calling.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is the billing template a registration is derived from.
type Plan struct {
	DurationMonths int
	MonthlyPrice   decimal.Decimal
}

// Compute returns the last instant of the day DurationMonths after start's calendar
// day and the total price DurationMonths × MonthlyPrice.
func Compute(start time.Time, plan Plan) (time.Time, decimal.Decimal) {
	return EndDate(start, plan.DurationMonths), Price(plan)
}

// EndDate returns EndOfDay(AddMonths(StartOfDay(start), months)).
func EndDate(start time.Time, months int) time.Time {
	return EndOfDay(AddMonths(StartOfDay(start), months))
}

// Price multiplies the monthly price by the plan duration without rounding.
func Price(plan Plan) decimal.Decimal {
	return plan.MonthlyPrice.Mul(decimal.NewFromInt(int64(plan.DurationMonths)))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999999 of t's day. Microsecond precision matches
// Postgres timestamps, which would round a nanosecond value into the next day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Microsecond), t.Location())
}

// AddMonths adds calendar months, clamping the day to the last day of the target
// month (Jan 31 + 1 month = Feb 28 or 29) instead of overflowing like time.AddDate.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// WeekWindow returns the Monday 00:00 to Sunday EndOfDay window containing t.
func WeekWindow(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	start := StartOfDay(t).AddDate(0, 0, -offset)
	end := EndOfDay(start.AddDate(0, 0, 6))
	return start, end
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
