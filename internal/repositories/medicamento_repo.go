package repositories

import (
	"context"
	"errors"

	"farmacia/internal/filter"
	"farmacia/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID is returned when the storage uniqueness constraint on the
	// primary key rejects an insert.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrDuplicateNome is returned when a laboratory name is already taken.
	ErrDuplicateNome = errors.New("duplicate nome")
	// ErrLaboratorioNotFound is returned when a write references a laboratory
	// that does not exist.
	ErrLaboratorioNotFound = errors.New("referenced laboratorio not found")
)

// MedicamentoRepository defines the interface for medicamento data access.
type MedicamentoRepository interface {
	GetAll(ctx context.Context) ([]models.Medicamento, error)
	GetAllInactive(ctx context.Context) ([]models.Medicamento, error)
	GetByLaboratorioID(ctx context.Context, laboratorioID uint) ([]models.Medicamento, error)
	GetByID(ctx context.Context, id uint) (*models.Medicamento, error)
	GetAllForSelect(ctx context.Context) ([]models.Medicamento, error)
	FindByFilter(ctx context.Context, q filter.Query) ([]models.Medicamento, error)
	Create(ctx context.Context, medicamento *models.Medicamento) error
	// Update writes the non-nil fields of data and returns the affected rows.
	Update(ctx context.Context, id uint, data models.MedicamentoUpdate) (int64, error)
	// UpdateSituacao sets the status only when it differs from the stored one
	// and returns the affected rows.
	UpdateSituacao(ctx context.Context, id uint, situacao models.Situacao) (int64, error)
}
