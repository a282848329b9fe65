package domain

// LockGuard arbitrates which patch fields a record accepts. Its only state
// is the record's priceLocked flag; the UNLOCKED→LOCKED transition happens
// exclusively inside the ledger's apply step, never as a caller action, and
// never reverses.
type LockGuard struct {
	locked bool
}

func NewLockGuard(record *BillableRecord) LockGuard {
	return LockGuard{locked: record.PriceLocked}
}

// Allow rejects patches that touch frozen fields on a locked record.
// Installment additions stay permitted after locking; removals do not, so
// the payment trail of a locked record only ever grows.
func (g LockGuard) Allow(patch UpdatePatch) error {
	if !g.locked {
		return nil
	}
	if patch.TouchesFrozenFields() {
		return ErrRecordLocked
	}
	if patch.RemoveInstallmentID != "" {
		return ErrRecordLocked
	}
	return nil
}

// ShouldLock reports whether the merged record must transition to LOCKED:
// an unlocked record that now carries its first payment.
func (g LockGuard) ShouldLock(merged *BillableRecord) bool {
	return !g.locked && merged.HasPayment()
}
