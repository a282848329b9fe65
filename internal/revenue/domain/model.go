package domain

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
)

var ErrInvalidWindow = errors.New("invalid_window")

// Window selects the reporting period for a revenue summary.
type Window string

const (
	WindowToday     Window = "today"
	WindowWeekly    Window = "weekly"
	WindowMonthly   Window = "monthly"
	WindowQuarterly Window = "quarterly"
	WindowAll       Window = "all"
)

func (w Window) Valid() bool {
	switch w {
	case WindowToday, WindowWeekly, WindowMonthly, WindowQuarterly, WindowAll:
		return true
	default:
		return false
	}
}

// Start returns the inclusive lower bound of the window relative to now.
// The second return is false for the unbounded window. Today means the
// same UTC calendar day; the rolling windows trail 7, 30 and 90 days.
func (w Window) Start(now time.Time) (time.Time, bool) {
	now = now.UTC()
	switch w {
	case WindowToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	case WindowWeekly:
		return now.AddDate(0, 0, -7), true
	case WindowMonthly:
		return now.AddDate(0, 0, -30), true
	case WindowQuarterly:
		return now.AddDate(0, 0, -90), true
	default:
		return time.Time{}, false
	}
}

// TypeBreakdown rolls revenue up per record type.
type TypeBreakdown struct {
	RecordType  billingdomain.RecordType `json:"record_type"`
	RecordCount int64                    `json:"record_count"`
	TotalBilled int64                    `json:"total_billed"`
	Collected   int64                    `json:"collected"`
	Outstanding int64                    `json:"outstanding"`
}

// Summary is one revenue report over a window. All monetary figures are
// integer cents recomputed from cost components and payments, never read
// from the persisted balance column.
type Summary struct {
	Window           Window          `json:"window"`
	From             *time.Time      `json:"from,omitempty"`
	GeneratedAt      time.Time       `json:"generated_at"`
	RecordCount      int64           `json:"record_count"`
	TotalBilled      int64           `json:"total_billed"`
	TotalCollected   int64           `json:"total_collected"`
	CashCollected    int64           `json:"cash_collected"`
	InsuranceBilled  int64           `json:"insurance_billed"`
	InstallmentTotal int64           `json:"installment_total"`
	Outstanding      int64           `json:"outstanding"`
	LockedCount      int64           `json:"locked_count"`
	ByType           []TypeBreakdown `json:"by_type"`
}

// Service produces revenue summaries.
type Service interface {
	Summarize(ctx context.Context, window Window) (*Summary, error)
}
