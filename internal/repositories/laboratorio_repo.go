package repositories

import (
	"context"
	"errors"
	"fmt"

	"farmacia/internal/models"

	"gorm.io/gorm"
)

// LaboratorioRepository defines the interface for laboratorio data access.
type LaboratorioRepository interface {
	GetAll(ctx context.Context) ([]models.Laboratorio, error)
	GetByID(ctx context.Context, id uint) (*models.Laboratorio, error)
	Create(ctx context.Context, laboratorio *models.Laboratorio) error
}

// GORMLaboratorioRepository is a GORM implementation of LaboratorioRepository.
type GORMLaboratorioRepository struct {
	db *gorm.DB
}

// NewGORMLaboratorioRepository creates a new instance of GORMLaboratorioRepository.
func NewGORMLaboratorioRepository(db *gorm.DB) *GORMLaboratorioRepository {
	return &GORMLaboratorioRepository{
		db: db,
	}
}

// GetAll retrieves every laboratorio ordered by name.
func (r *GORMLaboratorioRepository) GetAll(ctx context.Context) ([]models.Laboratorio, error) {
	var labs []models.Laboratorio
	if err := r.db.WithContext(ctx).Order("nome_laboratorio ASC").Find(&labs).Error; err != nil {
		return nil, fmt.Errorf("failed to get all laboratorios: %w", err)
	}
	return labs, nil
}

// GetByID retrieves a single laboratorio by its ID.
func (r *GORMLaboratorioRepository) GetByID(ctx context.Context, id uint) (*models.Laboratorio, error) {
	var lab models.Laboratorio
	if err := r.db.WithContext(ctx).First(&lab, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get laboratorio by ID %d: %w", id, err)
	}
	return &lab, nil
}

// Create inserts a new laboratorio.
func (r *GORMLaboratorioRepository) Create(ctx context.Context, laboratorio *models.Laboratorio) error {
	if err := r.db.WithContext(ctx).Create(laboratorio).Error; err != nil {
		return fmt.Errorf("failed to create laboratorio: %w", translateError(err, ErrDuplicateNome))
	}
	return nil
}
