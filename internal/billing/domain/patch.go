package domain

// CostComponent names one cost-bearing column of a billable record.
type CostComponent string

const (
	ComponentService CostComponent = "service"
	ComponentLab     CostComponent = "lab"
	ComponentFrame   CostComponent = "frame"
	ComponentLens    CostComponent = "lens"
)

func (c CostComponent) Valid() bool {
	switch c {
	case ComponentService, ComponentLab, ComponentFrame, ComponentLens:
		return true
	default:
		return false
	}
}

// InstallmentEntry is an installment submitted through a patch. ID may be
// supplied by the client; when empty the ledger generates one.
type InstallmentEntry struct {
	ID         string        `json:"id,omitempty"`
	Amount     int64         `json:"amount"`
	Method     PaymentMethod `json:"method"`
	ReceiptRef string        `json:"receipt_ref,omitempty"`
	Note       string        `json:"note,omitempty"`
}

// UpdatePatch is one merge request against a billable record. Absent fields
// leave the stored value untouched.
type UpdatePatch struct {
	Components          map[CostComponent]int64 `json:"components,omitempty"`
	InsuranceAmount     *int64                  `json:"insurance_amount,omitempty"`
	CashAmount          *int64                  `json:"cash_amount,omitempty"`
	AddInstallment      *InstallmentEntry       `json:"add_installment,omitempty"`
	RemoveInstallmentID string                  `json:"remove_installment_id,omitempty"`
}

// TouchesFrozenFields reports whether the patch writes any field the price
// lock freezes.
func (p UpdatePatch) TouchesFrozenFields() bool {
	return len(p.Components) > 0 || p.InsuranceAmount != nil || p.CashAmount != nil
}

// Empty reports whether the patch carries no change at all.
func (p UpdatePatch) Empty() bool {
	return !p.TouchesFrozenFields() && p.AddInstallment == nil && p.RemoveInstallmentID == ""
}
