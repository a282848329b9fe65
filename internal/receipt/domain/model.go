package domain

import (
	"context"
	"io"

	"github.com/bwmarrin/snowflake"
)

// LineItem is one printable row on a receipt.
type LineItem struct {
	Description string
	Amount      string
}

// PaymentItem is one printable installment row.
type PaymentItem struct {
	PaidAt     string
	Method     string
	ReceiptRef string
	Amount     string
}

// Data carries everything the renderer needs, already formatted. Keeping
// formatting out of the renderer makes the layout deterministic.
type Data struct {
	ClinicName  string
	RecordID    string
	RecordType  string
	PatientID   string
	AttendedBy  string
	IssuedAt    string
	Locked      bool
	Lines       []LineItem
	Payments    []PaymentItem
	TotalBilled string
	TotalPaid   string
	Balance     string
}

// Renderer turns receipt data into a PDF document.
type Renderer interface {
	Render(ctx context.Context, data Data) (io.Reader, error)
}

// Service produces receipts for billable records.
type Service interface {
	ForRecord(ctx context.Context, recordID snowflake.ID) (io.Reader, error)
}
