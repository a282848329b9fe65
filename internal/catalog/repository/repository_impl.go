package repository

import (
	"context"
	"errors"

	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() catalogdomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, line *catalogdomain.CostLine) error {
	return db.WithContext(ctx).Create(line).Error
}

func (r *repository) FindByCode(ctx context.Context, db *gorm.DB, department catalogdomain.Department, code string) (*catalogdomain.CostLine, error) {
	var line catalogdomain.CostLine
	err := db.WithContext(ctx).
		Where("department = ? AND code = ? AND active = ?", department, code, true).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

func (r *repository) ListActive(ctx context.Context, db *gorm.DB, department catalogdomain.Department) ([]catalogdomain.CostLine, error) {
	var lines []catalogdomain.CostLine
	err := db.WithContext(ctx).
		Where("department = ? AND active = ?", department, true).
		Order("code ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&catalogdomain.CostLine{}).Count(&count).Error
	return count, err
}
