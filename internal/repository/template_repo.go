package repository

import (
	"context"

	"github.com/thartark/yogastudoapp-sub000/internal/models"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *models.ClassTemplate) error
	FindByID(ctx context.Context, id uint) (*models.ClassTemplate, error)
	FindAll(ctx context.Context) ([]models.ClassTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, template *models.ClassTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *templateRepository) FindByID(ctx context.Context, id uint) (*models.ClassTemplate, error) {
	var template models.ClassTemplate
	if err := r.db.WithContext(ctx).First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) FindAll(ctx context.Context) ([]models.ClassTemplate, error) {
	var templates []models.ClassTemplate
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
