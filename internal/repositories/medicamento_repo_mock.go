package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"farmacia/internal/filter"
	"farmacia/internal/models"
)

// MockMedicamentoRepository is an in-memory implementation of MedicamentoRepository.
// It enforces the same primary-key and laboratory constraints as the database.
type MockMedicamentoRepository struct {
	medicamentos map[uint]models.Medicamento
	laboratorios map[uint]models.Laboratorio
	mu           sync.RWMutex
}

// NewMockMedicamentoRepository creates a new instance of MockMedicamentoRepository.
func NewMockMedicamentoRepository(labs ...models.Laboratorio) *MockMedicamentoRepository {
	r := &MockMedicamentoRepository{
		medicamentos: make(map[uint]models.Medicamento),
		laboratorios: make(map[uint]models.Laboratorio),
	}
	for _, lab := range labs {
		r.laboratorios[lab.ID] = lab
	}
	return r
}

// withLaboratorio returns a copy of m with its laboratory attached.
func (r *MockMedicamentoRepository) withLaboratorio(m models.Medicamento) models.Medicamento {
	if lab, ok := r.laboratorios[m.LaboratorioID]; ok {
		m.Laboratorio = &lab
	}
	return m
}

func (r *MockMedicamentoRepository) collect(keep func(models.Medicamento) bool) []models.Medicamento {
	list := make([]models.Medicamento, 0, len(r.medicamentos))
	for _, m := range r.medicamentos {
		if keep == nil || keep(m) {
			list = append(list, r.withLaboratorio(m))
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Nome < list[j].Nome })
	return list
}

// GetAll returns all medicamentos, ATIVO first.
func (r *MockMedicamentoRepository) GetAll(ctx context.Context) ([]models.Medicamento, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.collect(nil)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Situacao.OrDefault() < list[j].Situacao.OrDefault()
	})
	return list, nil
}

// GetAllInactive returns the INATIVO medicamentos.
func (r *MockMedicamentoRepository) GetAllInactive(ctx context.Context) ([]models.Medicamento, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(m models.Medicamento) bool {
		return m.Situacao == models.SituacaoInativo
	}), nil
}

// GetByLaboratorioID returns the medicamentos of one laboratory.
func (r *MockMedicamentoRepository) GetByLaboratorioID(ctx context.Context, laboratorioID uint) ([]models.Medicamento, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(m models.Medicamento) bool {
		return m.LaboratorioID == laboratorioID
	}), nil
}

// GetByID returns a medicamento by its ID.
func (r *MockMedicamentoRepository) GetByID(ctx context.Context, id uint) (*models.Medicamento, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.medicamentos[id]
	if !ok {
		return nil, ErrNotFound
	}
	m = r.withLaboratorio(m)
	return &m, nil
}

// GetAllForSelect returns every medicamento with its laboratory.
func (r *MockMedicamentoRepository) GetAllForSelect(ctx context.Context) ([]models.Medicamento, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(nil), nil
}

// FindByFilter applies q in memory.
func (r *MockMedicamentoRepository) FindByFilter(ctx context.Context, q filter.Query) ([]models.Medicamento, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.collect(func(m models.Medicamento) bool {
		for _, p := range q.Predicates {
			value := stringValue(m, p.Field)
			switch p.Op {
			case filter.OpContains:
				if !strings.Contains(value, p.Value) {
					return false
				}
			case filter.OpEquals:
				if value != p.Value {
					return false
				}
			}
		}
		return true
	})
	sort.SliceStable(list, func(i, j int) bool {
		if q.Sort.Direction == filter.Desc {
			return less(list[j], list[i], q.Sort.Field)
		}
		return less(list[i], list[j], q.Sort.Field)
	})
	return list, nil
}

// Create adds a new medicamento.
func (r *MockMedicamentoRepository) Create(ctx context.Context, medicamento *models.Medicamento) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.medicamentos[medicamento.ID]; exists {
		return ErrDuplicateID
	}
	if _, ok := r.laboratorios[medicamento.LaboratorioID]; !ok {
		return ErrLaboratorioNotFound
	}
	now := time.Now()
	medicamento.CreatedAt = now
	medicamento.UpdatedAt = now
	medicamento.Situacao = medicamento.Situacao.OrDefault()

	stored := *medicamento
	stored.Laboratorio = nil
	r.medicamentos[medicamento.ID] = stored
	return nil
}

// Update modifies the non-nil fields of an existing medicamento.
func (r *MockMedicamentoRepository) Update(ctx context.Context, id uint, data models.MedicamentoUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.medicamentos[id]
	if !ok {
		return 0, nil
	}
	if data.LaboratorioID != nil {
		if _, ok := r.laboratorios[*data.LaboratorioID]; !ok {
			return 0, ErrLaboratorioNotFound
		}
		m.LaboratorioID = *data.LaboratorioID
	}
	if data.Nome != nil {
		m.Nome = *data.Nome
	}
	if data.IndicacaoUso != nil {
		m.IndicacaoUso = *data.IndicacaoUso
	}
	if data.Categoria != nil {
		m.Categoria = *data.Categoria
	}
	if data.TipoUnidade != nil {
		m.TipoUnidade = *data.TipoUnidade
	}
	if data.QuantidadeMinima != nil {
		m.QuantidadeMinima = *data.QuantidadeMinima
	}
	if data.Img != nil {
		m.Img = *data.Img
	}
	m.UpdatedAt = time.Now()
	r.medicamentos[id] = m
	return 1, nil
}

// UpdateSituacao changes the status when it differs from the stored one.
func (r *MockMedicamentoRepository) UpdateSituacao(ctx context.Context, id uint, situacao models.Situacao) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.medicamentos[id]
	if !ok || m.Situacao.OrDefault() == situacao {
		return 0, nil
	}
	m.Situacao = situacao
	m.UpdatedAt = time.Now()
	r.medicamentos[id] = m
	return 1, nil
}

func stringValue(m models.Medicamento, f filter.Field) string {
	switch f {
	case filter.FieldNome:
		return m.Nome
	case filter.FieldIndicacaoUso:
		return m.IndicacaoUso
	case filter.FieldCategoria:
		return m.Categoria
	case filter.FieldTipoUnidade:
		return m.TipoUnidade
	case filter.FieldSituacao:
		return string(m.Situacao.OrDefault())
	default:
		return ""
	}
}

func less(a, b models.Medicamento, f filter.Field) bool {
	switch f {
	case filter.FieldID:
		return a.ID < b.ID
	case filter.FieldQuantidadeMinima:
		return a.QuantidadeMinima < b.QuantidadeMinima
	case filter.FieldCreatedAt:
		return a.CreatedAt.Before(b.CreatedAt)
	case filter.FieldUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		return stringValue(a, f) < stringValue(b, f)
	}
}
