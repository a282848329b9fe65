package domain

import (
	"sort"
	"time"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
)

// Aggregate folds a collection of billable records into a summary,
// keeping only records created inside the window. It is a pure function
// over its inputs: the same records always produce the same figures, and
// every balance is rederived from the invariant formula. Callers may
// pre-filter their query for efficiency, but the window is enforced here
// regardless of what they hand in.
func Aggregate(window Window, records []billingdomain.BillableRecord, now time.Time) *Summary {
	summary := &Summary{
		Window:      window,
		GeneratedAt: now.UTC(),
	}
	start, bounded := window.Start(now)
	if bounded {
		summary.From = &start
	}

	perType := make(map[billingdomain.RecordType]*TypeBreakdown)
	for i := range records {
		record := &records[i]
		if bounded && record.CreatedAt.Before(start) {
			continue
		}

		billed := record.TotalCost()
		collected := record.PaidTotal()
		outstanding := record.ComputeBalance()

		summary.RecordCount++
		summary.TotalBilled += billed
		summary.TotalCollected += collected
		summary.CashCollected += record.CashAmount
		summary.InsuranceBilled += record.InsuranceAmount
		summary.InstallmentTotal += record.InstallmentTotal()
		summary.Outstanding += outstanding
		if record.PriceLocked {
			summary.LockedCount++
		}

		breakdown, ok := perType[record.RecordType]
		if !ok {
			breakdown = &TypeBreakdown{RecordType: record.RecordType}
			perType[record.RecordType] = breakdown
		}
		breakdown.RecordCount++
		breakdown.TotalBilled += billed
		breakdown.Collected += collected
		breakdown.Outstanding += outstanding
	}

	summary.ByType = make([]TypeBreakdown, 0, len(perType))
	for _, breakdown := range perType {
		summary.ByType = append(summary.ByType, *breakdown)
	}
	sort.Slice(summary.ByType, func(i, j int) bool {
		return summary.ByType[i].RecordType < summary.ByType[j].RecordType
	})

	return summary
}
