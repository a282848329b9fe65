package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type CreateCostLineInput struct {
	Department    Department `json:"department"`
	Name          string     `json:"name"`
	UnitAmount    int64      `json:"unit_amount"`
	AllowQuantity bool       `json:"allow_quantity"`
	AllowPair     bool       `json:"allow_pair"`
}

type Service interface {
	// ComputeTotal prices a set of selections against the active catalog.
	// Pure with respect to records: callers feed the result into the
	// payment ledger themselves.
	ComputeTotal(ctx context.Context, department Department, selections []Selection) (Quote, error)
	List(ctx context.Context, department Department) ([]CostLine, error)
	Create(ctx context.Context, input CreateCostLineInput) (*CostLine, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, line *CostLine) error
	FindByCode(ctx context.Context, db *gorm.DB, department Department, code string) (*CostLine, error)
	ListActive(ctx context.Context, db *gorm.DB, department Department) ([]CostLine, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}

var (
	ErrUnknownCostLine   = errors.New("unknown_cost_line")
	ErrInvalidDepartment = errors.New("invalid_department")
	ErrInvalidCostLine   = errors.New("invalid_cost_line")
	ErrDuplicateCostLine = errors.New("duplicate_cost_line")
)
