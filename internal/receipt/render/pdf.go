package render

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	receiptdomain "github.com/careloop/clinicore/internal/receipt/domain"
)

type PDFRenderer struct{}

func NewPDFRenderer() receiptdomain.Renderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(ctx context.Context, data receiptdomain.Data) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(30,
		text.NewCol(8, data.ClinicName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Receipt", props.Text{
			Size:  14,
			Align: align.Right,
		}),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Record: "+data.RecordID, props.Text{Top: 0}),
			text.New("Type: "+data.RecordType, props.Text{Top: 4}),
			text.New("Patient: "+data.PatientID, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Issued: "+data.IssuedAt, props.Text{Top: 0, Align: align.Right}),
			text.New("Attended by: "+data.AttendedBy, props.Text{Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(8, line.Description, props.Text{Size: 9}),
			text.NewCol(4, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if len(data.Payments) > 0 {
		m.AddRow(12,
			text.NewCol(12, "Payments", props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}),
		)
		m.AddRow(10,
			text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Method", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Reference", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, payment := range data.Payments {
			m.AddRow(8,
				text.NewCol(3, payment.PaidAt, props.Text{Size: 9}),
				text.NewCol(3, payment.Method, props.Text{Size: 9}),
				text.NewCol(3, payment.ReceiptRef, props.Text{Size: 9}),
				text.NewCol(3, payment.Amount, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Billed", props.Text{Size: 9}),
		text.NewCol(2, data.TotalBilled, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Paid", props.Text{Size: 9}),
		text.NewCol(2, data.TotalPaid, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Balance", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, data.Balance, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	if data.Locked {
		m.AddRow(10,
			text.NewCol(12, "Prices on this record are locked.", props.Text{Size: 8, Top: 3}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
