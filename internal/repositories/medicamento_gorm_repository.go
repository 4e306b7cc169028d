package repositories

import (
	"context"
	"errors"
	"fmt"

	"farmacia/internal/filter"
	"farmacia/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMMedicamentoRepository is a GORM implementation of MedicamentoRepository.
// The *gorm.DB must be opened with TranslateError enabled.
type GORMMedicamentoRepository struct {
	db *gorm.DB
}

// NewGORMMedicamentoRepository creates a new instance of GORMMedicamentoRepository.
func NewGORMMedicamentoRepository(db *gorm.DB) *GORMMedicamentoRepository {
	return &GORMMedicamentoRepository{
		db: db,
	}
}

func (r *GORMMedicamentoRepository) withLaboratorio(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Laboratorio", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "nome_laboratorio")
	})
}

// GetAll retrieves every medicamento, ATIVO ones first.
func (r *GORMMedicamentoRepository) GetAll(ctx context.Context) ([]models.Medicamento, error) {
	var meds []models.Medicamento
	err := r.withLaboratorio(ctx).
		Order("situacao ASC").
		Order("nome ASC").
		Find(&meds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all medicamentos: %w", err)
	}
	return meds, nil
}

// GetAllInactive retrieves the INATIVO medicamentos.
func (r *GORMMedicamentoRepository) GetAllInactive(ctx context.Context) ([]models.Medicamento, error) {
	var meds []models.Medicamento
	err := r.withLaboratorio(ctx).
		Where("situacao = ?", models.SituacaoInativo).
		Order("nome ASC").
		Find(&meds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get inactive medicamentos: %w", err)
	}
	return meds, nil
}

// GetByLaboratorioID retrieves the medicamentos supplied by one laboratory.
func (r *GORMMedicamentoRepository) GetByLaboratorioID(ctx context.Context, laboratorioID uint) ([]models.Medicamento, error) {
	var meds []models.Medicamento
	err := r.withLaboratorio(ctx).
		Where("fk_id_laboratorio = ?", laboratorioID).
		Order("nome ASC").
		Find(&meds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get medicamentos for laboratorio %d: %w", laboratorioID, err)
	}
	return meds, nil
}

// GetByID retrieves a single medicamento by its ID.
func (r *GORMMedicamentoRepository) GetByID(ctx context.Context, id uint) (*models.Medicamento, error) {
	var med models.Medicamento
	if err := r.withLaboratorio(ctx).First(&med, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get medicamento by ID %d: %w", id, err)
	}
	return &med, nil
}

// GetAllForSelect retrieves id, nome and laboratory of every medicamento.
func (r *GORMMedicamentoRepository) GetAllForSelect(ctx context.Context) ([]models.Medicamento, error) {
	var meds []models.Medicamento
	err := r.withLaboratorio(ctx).
		Select("id", "fk_id_laboratorio", "nome").
		Order("nome ASC").
		Find(&meds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get medicamentos for select: %w", err)
	}
	return meds, nil
}

// FindByFilter applies a validated filter.Query.
func (r *GORMMedicamentoRepository) FindByFilter(ctx context.Context, q filter.Query) ([]models.Medicamento, error) {
	tx := r.withLaboratorio(ctx)
	for _, p := range q.Predicates {
		column := columnFor(p.Field)
		switch p.Op {
		case filter.OpContains:
			tx = tx.Where(r.containsExpr(column), p.Value)
		case filter.OpEquals:
			tx = tx.Where(column+" = ?", p.Value)
		}
	}
	tx = tx.Order(clause.OrderByColumn{
		Column: clause.Column{Name: columnFor(q.Sort.Field)},
		Desc:   q.Sort.Direction == filter.Desc,
	})

	var meds []models.Medicamento
	if err := tx.Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("failed to filter medicamentos: %w", err)
	}
	return meds, nil
}

// containsExpr builds a case-sensitive substring predicate. LIKE is avoided
// because its case sensitivity depends on the engine and collation.
func (r *GORMMedicamentoRepository) containsExpr(column string) string {
	if r.db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("strpos(%s, ?) > 0", column)
	}
	return fmt.Sprintf("instr(%s, ?) > 0", column)
}

// Create inserts a new medicamento.
func (r *GORMMedicamentoRepository) Create(ctx context.Context, medicamento *models.Medicamento) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(medicamento).Error; err != nil {
		return fmt.Errorf("failed to create medicamento: %w", translateError(err, ErrDuplicateID))
	}
	return nil
}

// Update applies a partial update.
func (r *GORMMedicamentoRepository) Update(ctx context.Context, id uint, data models.MedicamentoUpdate) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Medicamento{}).
		Where("id = ?", id).
		Updates(data.Columns())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update medicamento %d: %w", id, translateError(res.Error, ErrDuplicateID))
	}
	return res.RowsAffected, nil
}

// UpdateSituacao is a single conditional statement, so a concurrent change to
// the same status results in zero affected rows.
func (r *GORMMedicamentoRepository) UpdateSituacao(ctx context.Context, id uint, situacao models.Situacao) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Medicamento{}).
		Where("id = ? AND situacao <> ?", id, situacao).
		Update("situacao", situacao)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to change situacao of medicamento %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func columnFor(f filter.Field) string {
	switch f {
	case filter.FieldNome:
		return "nome"
	case filter.FieldIndicacaoUso:
		return "indicacao_uso"
	case filter.FieldCategoria:
		return "categoria"
	case filter.FieldTipoUnidade:
		return "tipo_unidade"
	case filter.FieldSituacao:
		return "situacao"
	case filter.FieldID:
		return "id"
	case filter.FieldQuantidadeMinima:
		return "quantidade_minima"
	case filter.FieldCreatedAt:
		return "created_at"
	case filter.FieldUpdatedAt:
		return "updated_at"
	default:
		return "nome"
	}
}

// translateError maps translated GORM constraint errors to repository
// sentinels; duplicate is the sentinel used for unique violations.
func translateError(err, duplicate error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return duplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrLaboratorioNotFound
	default:
		return err
	}
}
