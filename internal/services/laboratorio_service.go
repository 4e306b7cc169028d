package services

import (
	"context"
	"errors"
	"strings"

	"farmacia/internal/apperrors"
	"farmacia/internal/models"
	"farmacia/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// LaboratorioService handles business logic related to laboratorios.
type LaboratorioService struct {
	repo      repositories.LaboratorioRepository
	publisher EventPublisher
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewLaboratorioService creates a new LaboratorioService.
func NewLaboratorioService(repo repositories.LaboratorioRepository, publisher EventPublisher, log zerolog.Logger) *LaboratorioService {
	return &LaboratorioService{
		repo:      repo,
		publisher: publisher,
		validate:  NewValidator(),
		log:       log.With().Str("component", "laboratorio_service").Logger(),
	}
}

func (s *LaboratorioService) GetAll(ctx context.Context) ([]models.Laboratorio, error) {
	return s.repo.GetAll(ctx)
}

func (s *LaboratorioService) GetByID(ctx context.Context, id uint) (*models.Laboratorio, error) {
	if id == 0 {
		return nil, apperrors.FieldUndefined("Campo ID não identificado", apperrors.Fields{"id": id})
	}
	lab, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("Laboratório não encontrado", apperrors.Fields{"id": id})
	}
	if err != nil {
		return nil, err
	}
	return lab, nil
}

// Create inserts a laboratorio; names are unique.
func (s *LaboratorioService) Create(ctx context.Context, lab *models.Laboratorio) error {
	lab.NomeLaboratorio = strings.TrimSpace(lab.NomeLaboratorio)
	if err := s.validate.Struct(lab); err != nil {
		return translateValidation(err)
	}

	if err := s.repo.Create(ctx, lab); err != nil {
		if errors.Is(err, repositories.ErrDuplicateNome) {
			return apperrors.ExistsData("Existe um laboratório com este nome.", apperrors.CodeNomeExists, apperrors.Fields{
				"nome_laboratorio": lab.NomeLaboratorio,
			})
		}
		return apperrors.CannotCreate("Erro ao cadastrar Laboratório", apperrors.Fields{"nome_laboratorio": lab.NomeLaboratorio}, err)
	}

	s.log.Info().Uint("laboratorio_id", lab.ID).Msg("laboratorio created")
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, EventLaboratorioCreated, lab); err != nil {
			s.log.Warn().Err(err).Str("event", EventLaboratorioCreated).Msg("failed to publish event")
		}
	}
	return nil
}
