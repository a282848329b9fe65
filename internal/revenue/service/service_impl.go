package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	"github.com/careloop/clinicore/internal/clock"
	revenuedomain "github.com/careloop/clinicore/internal/revenue/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) revenuedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("revenue.service"),
		clock: p.Clock,
	}
}

// Summarize loads every record in the window and folds it through the
// pure aggregator. Reading never mutates ledger state.
func (s *Service) Summarize(ctx context.Context, window revenuedomain.Window) (*revenuedomain.Summary, error) {
	if !window.Valid() {
		return nil, revenuedomain.ErrInvalidWindow
	}

	now := s.clock.Now()
	stmt := s.db.WithContext(ctx).
		Model(&billingdomain.BillableRecord{}).
		Preload("Installments")
	if start, ok := window.Start(now); ok {
		stmt = stmt.Where("created_at >= ?", start)
	}

	var records []billingdomain.BillableRecord
	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}

	summary := revenuedomain.Aggregate(window, records, now)
	s.log.Debug("revenue summary generated",
		zap.String("window", string(window)),
		zap.Int64("record_count", summary.RecordCount),
	)
	return summary, nil
}
