package service

import (
	"context"
	"strings"

	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
	"github.com/careloop/clinicore/internal/clock"
	"github.com/careloop/clinicore/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  catalogdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  catalogdomain.Repository
	cache *lineCache
}

func NewService(p Params) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		cache: newLineCache(),
	}
}

func (s *Service) ComputeTotal(ctx context.Context, department catalogdomain.Department, selections []catalogdomain.Selection) (catalogdomain.Quote, error) {
	if !department.Valid() {
		return catalogdomain.Quote{}, catalogdomain.ErrInvalidDepartment
	}

	quote := catalogdomain.Quote{
		Department: department,
		Lines:      make([]catalogdomain.QuoteLine, 0, len(selections)),
	}

	for _, selection := range selections {
		code := strings.TrimSpace(selection.Code)
		if code == "" {
			return catalogdomain.Quote{}, catalogdomain.ErrUnknownCostLine
		}

		line, err := s.resolveLine(ctx, department, code)
		if err != nil {
			return catalogdomain.Quote{}, err
		}
		if line == nil {
			return catalogdomain.Quote{}, catalogdomain.ErrUnknownCostLine
		}

		quantity := selection.Quantity
		if quantity < 1 || !line.AllowQuantity {
			quantity = 1
		}
		multiplier := 1
		if selection.Pair && line.AllowPair {
			multiplier = 2
		}

		label := strings.TrimSpace(selection.Label)
		if label == "" {
			label = line.Name
		}

		amount := line.UnitAmount * int64(quantity) * int64(multiplier)
		quote.Lines = append(quote.Lines, catalogdomain.QuoteLine{
			Code:       line.Code,
			Label:      label,
			Quantity:   quantity,
			Multiplier: multiplier,
			UnitAmount: line.UnitAmount,
			Amount:     amount,
		})
		quote.Total += amount
	}

	return quote, nil
}

func (s *Service) List(ctx context.Context, department catalogdomain.Department) ([]catalogdomain.CostLine, error) {
	if !department.Valid() {
		return nil, catalogdomain.ErrInvalidDepartment
	}
	return s.repo.ListActive(ctx, s.db, department)
}

func (s *Service) Create(ctx context.Context, input catalogdomain.CreateCostLineInput) (*catalogdomain.CostLine, error) {
	if !input.Department.Valid() {
		return nil, catalogdomain.ErrInvalidDepartment
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || input.UnitAmount <= 0 {
		return nil, catalogdomain.ErrInvalidCostLine
	}

	now := s.clock.Now()
	line := catalogdomain.CostLine{
		ID:            s.genID.Generate(),
		Department:    input.Department,
		Code:          slug.Make(name),
		Name:          name,
		UnitAmount:    input.UnitAmount,
		AllowQuantity: input.AllowQuantity,
		AllowPair:     input.AllowPair,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &line); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, catalogdomain.ErrDuplicateCostLine
		}
		return nil, err
	}

	s.cache.invalidate(input.Department, line.Code)
	return &line, nil
}

func (s *Service) resolveLine(ctx context.Context, department catalogdomain.Department, code string) (*catalogdomain.CostLine, error) {
	if line, ok := s.cache.get(department, code); ok {
		return line, nil
	}

	line, err := s.repo.FindByCode(ctx, s.db, department, code)
	if err != nil {
		return nil, err
	}
	if line != nil {
		s.cache.set(department, code, line)
	}
	return line, nil
}
