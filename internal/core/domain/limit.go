package domain

import (
	"time"

	"bank-ledger/pkg/apperror"
)

// Transfer caps per calendar window, in currency units.
const (
	DailyTransferLimit   int64 = 100_000
	WeeklyTransferLimit  int64 = 500_000
	MonthlyTransferLimit int64 = 2_000_000
)

// LimitPeriod names a calendar window.
type LimitPeriod string

const (
	LimitPeriodDaily   LimitPeriod = "DAILY"
	LimitPeriodWeekly  LimitPeriod = "WEEKLY"
	LimitPeriodMonthly LimitPeriod = "MONTHLY"
)

// LimitWindow is a closed interval [Start, End] with a cap on outgoing amounts.
type LimitWindow struct {
	Period LimitPeriod
	Start  time.Time
	End    time.Time
	Cap    int64
}

// Exceeded reports whether spent plus candidate breaks the cap.
func (w LimitWindow) Exceeded(spent, candidate int64) bool {
	return spent+candidate > w.Cap
}

// Err returns the error kind for a breach of this window.
func (w LimitWindow) Err() *apperror.AppError {
	switch w.Period {
	case LimitPeriodDaily:
		return apperror.ErrDailyLimitExceeded()
	case LimitPeriodWeekly:
		return apperror.ErrWeeklyLimitExceeded()
	default:
		return apperror.ErrMonthlyLimitExceeded()
	}
}

// LimitWindows returns the daily, weekly and monthly windows ending at asOf,
// in that order. Boundaries are computed in asOf's location and weeks start
// on Monday.
func LimitWindows(asOf time.Time) []LimitWindow {
	return []LimitWindow{
		{Period: LimitPeriodDaily, Start: StartOfDay(asOf), End: asOf, Cap: DailyTransferLimit},
		{Period: LimitPeriodWeekly, Start: StartOfWeek(asOf), End: asOf, Cap: WeeklyTransferLimit},
		{Period: LimitPeriodMonthly, Start: StartOfMonth(asOf), End: asOf, Cap: MonthlyTransferLimit},
	}
}

// StartOfDay is midnight of t's calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek is midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// StartOfMonth is midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
