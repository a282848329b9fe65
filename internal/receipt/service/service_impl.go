package service

import (
	"context"
	"fmt"
	"io"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	"github.com/careloop/clinicore/internal/clock"
	"github.com/careloop/clinicore/internal/config"
	"github.com/careloop/clinicore/internal/observability/metrics"
	receiptdomain "github.com/careloop/clinicore/internal/receipt/domain"
)

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Clock    clock.Clock
	Billing  billingdomain.Service
	Renderer receiptdomain.Renderer
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	cfg      config.Config
	log      *zap.Logger
	clock    clock.Clock
	billing  billingdomain.Service
	renderer receiptdomain.Renderer
	metrics  *metrics.Metrics
}

func NewService(p Params) receiptdomain.Service {
	return &Service{
		cfg:      p.Config,
		log:      p.Log.Named("receipt.service"),
		clock:    p.Clock,
		billing:  p.Billing,
		renderer: p.Renderer,
		metrics:  p.Metrics,
	}
}

func (s *Service) ForRecord(ctx context.Context, recordID snowflake.ID) (io.Reader, error) {
	record, err := s.billing.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	doc, err := s.renderer.Render(ctx, s.buildData(record))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReceiptRendered(ctx, string(record.RecordType))
	return doc, nil
}

func (s *Service) buildData(record *billingdomain.BillableRecord) receiptdomain.Data {
	data := receiptdomain.Data{
		ClinicName:  s.cfg.AppName,
		RecordID:    record.ID.String(),
		RecordType:  string(record.RecordType),
		PatientID:   record.PatientID,
		AttendedBy:  record.AttendedBy,
		IssuedAt:    s.clock.Now().Format("2006-01-02 15:04"),
		Locked:      record.PriceLocked,
		TotalBilled: formatCents(record.TotalCost()),
		TotalPaid:   formatCents(record.PaidTotal()),
		Balance:     formatCents(record.ComputeBalance()),
	}

	components := []struct {
		label  string
		amount int64
	}{
		{"Service / treatment", record.ServiceAmount},
		{"Laboratory", record.LabAmount},
		{"Frame", record.FrameAmount},
		{"Lens", record.LensAmount},
	}
	for _, component := range components {
		if component.amount == 0 {
			continue
		}
		data.Lines = append(data.Lines, receiptdomain.LineItem{
			Description: component.label,
			Amount:      formatCents(component.amount),
		})
	}
	if record.InsuranceAmount > 0 {
		data.Lines = append(data.Lines, receiptdomain.LineItem{
			Description: "Insurance cover",
			Amount:      "-" + formatCents(record.InsuranceAmount),
		})
	}
	if record.CashAmount > 0 {
		data.Lines = append(data.Lines, receiptdomain.LineItem{
			Description: "Cash paid",
			Amount:      "-" + formatCents(record.CashAmount),
		})
	}

	for _, installment := range record.Installments {
		data.Payments = append(data.Payments, receiptdomain.PaymentItem{
			PaidAt:     installment.PaidAt.Format("2006-01-02"),
			Method:     string(installment.Method),
			ReceiptRef: installment.ReceiptRef,
			Amount:     formatCents(installment.Amount),
		})
	}

	return data
}

func formatCents(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
