package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farmacia/internal/apperrors"
	"farmacia/internal/filter"
	"farmacia/internal/models"
	"farmacia/internal/repositories"
	"farmacia/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// MedicamentoService handles business logic related to medicamentos.
type MedicamentoService struct {
	repo      repositories.MedicamentoRepository
	files     storage.FileStore
	publisher EventPublisher
	cache     SelectCache
	validate  *validator.Validate
	maxUpload int64
	log       zerolog.Logger
}

// NewMedicamentoService creates a new MedicamentoService. publisher and
// cache may be nil.
func NewMedicamentoService(
	repo repositories.MedicamentoRepository,
	files storage.FileStore,
	publisher EventPublisher,
	cache SelectCache,
	maxUpload int64,
	log zerolog.Logger,
) *MedicamentoService {
	return &MedicamentoService{
		repo:      repo,
		files:     files,
		publisher: publisher,
		cache:     cache,
		validate:  NewValidator(),
		maxUpload: maxUpload,
		log:       log.With().Str("component", "medicamento_service").Logger(),
	}
}

// GetAll returns every medicamento, ATIVO first.
func (s *MedicamentoService) GetAll(ctx context.Context) ([]models.Medicamento, error) {
	return s.repo.GetAll(ctx)
}

func (s *MedicamentoService) GetAllInactive(ctx context.Context) ([]models.Medicamento, error) {
	return s.repo.GetAllInactive(ctx)
}

func (s *MedicamentoService) GetByLaboratorioID(ctx context.Context, laboratorioID uint) ([]models.Medicamento, error) {
	if laboratorioID == 0 {
		return nil, apperrors.FieldUndefined("Campo idLab não identificado", apperrors.Fields{"idLab": laboratorioID})
	}
	return s.repo.GetByLaboratorioID(ctx, laboratorioID)
}

// GetByID returns a NotFound error when no medicamento has the id.
func (s *MedicamentoService) GetByID(ctx context.Context, id uint) (*models.Medicamento, error) {
	if id == 0 {
		return nil, apperrors.FieldUndefined("Campo ID não identificado", apperrors.Fields{"id": id})
	}
	med, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("Medicamento não encontrado", apperrors.Fields{"id": id})
	}
	if err != nil {
		return nil, err
	}
	return med, nil
}

// GetAllForSelect returns the id/name pairs used by selection inputs. The
// result is served from the cache when one is configured.
func (s *MedicamentoService) GetAllForSelect(ctx context.Context) ([]models.MedicamentoSelectOption, error) {
	if s.cache != nil {
		options, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("select cache unavailable")
		} else if ok {
			return options, nil
		}
	}

	meds, err := s.repo.GetAllForSelect(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]models.MedicamentoSelectOption, 0, len(meds))
	for _, m := range meds {
		opt := models.MedicamentoSelectOption{
			MedicamentoValue: m.ID,
			MedicamentoLabel: m.Nome,
			LaboratorioValue: m.LaboratorioID,
		}
		if m.Laboratorio != nil {
			opt.LaboratorioLabel = m.Laboratorio.NomeLaboratorio
		}
		options = append(options, opt)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, options); err != nil {
			s.log.Warn().Err(err).Msg("failed to fill select cache")
		}
	}
	return options, nil
}

// GetByFilter requires an orderBy or at least one recognised filter.
func (s *MedicamentoService) GetByFilter(ctx context.Context, params map[string]string) ([]models.Medicamento, error) {
	if !filter.HasCriteria(params) {
		return nil, apperrors.FieldUndefined("Um ou mais campos não identificados", apperrors.Fields{
			"orderBy": params[filter.OrderByParam],
			"filtros": params,
		})
	}
	return s.repo.FindByFilter(ctx, filter.Build(params))
}

// Create stores the uploaded image and inserts the medicamento. Once the image
// is stored, any later failure removes it again.
func (s *MedicamentoService) Create(ctx context.Context, in models.CreateMedicamentoInput, upload *Upload) (_ *models.Medicamento, err error) {
	if upload != nil {
		in.Img = storage.NewFileName(upload.ContentType)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, translateValidation(err)
	}
	if err := s.checkUpload(upload); err != nil {
		return nil, err
	}

	if err := s.files.Save(ctx, in.Img, upload.Content, upload.ContentType); err != nil {
		return nil, apperrors.CannotCreate("Erro ao salvar a imagem do medicamento", apperrors.Fields{"img": upload.Filename}, err)
	}
	defer func() {
		if err != nil {
			s.discardUpload(ctx, in.Img)
		}
	}()

	// Fast path for a readable error; the primary key is what actually
	// guarantees uniqueness.
	if _, err := s.repo.GetByID(ctx, in.ID); err == nil {
		return nil, idExists(in.ID)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.CannotCreate("Erro ao cadastrar Medicamento", apperrors.Fields{"id": in.ID}, err)
	}

	med := in.ToModel()
	if err := s.repo.Create(ctx, med); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateID):
			return nil, idExists(in.ID)
		case errors.Is(err, repositories.ErrLaboratorioNotFound):
			return nil, laboratorioNotFound(in.LaboratorioID)
		default:
			return nil, apperrors.CannotCreate("Erro ao cadastrar Medicamento", apperrors.Fields{"id": in.ID}, err)
		}
	}

	s.log.Info().Uint("medicamento_id", med.ID).Str("img", med.Img).Msg("medicamento created")
	s.afterWrite(ctx, EventMedicamentoCreated, med.ToResponse())
	return med, nil
}

// Update applies a partial update and returns the number of affected rows.
// Zero rows for an existing id means the stored values already matched.
func (s *MedicamentoService) Update(ctx context.Context, id uint, data models.MedicamentoUpdate, upload *Upload) (_ int64, err error) {
	if id == 0 {
		return 0, apperrors.FieldUndefined("Campo ID não identificado", apperrors.Fields{"id": id})
	}
	data.Normalize()
	if upload != nil {
		name := storage.NewFileName(upload.ContentType)
		data.Img = &name
	}
	if data.IsEmpty() {
		return 0, apperrors.FieldUndefined("Nenhum campo para atualizar foi informado", apperrors.Fields{"id": id})
	}
	if err := s.validate.Struct(data); err != nil {
		return 0, translateValidation(err)
	}
	if upload != nil {
		if err := s.checkUpload(upload); err != nil {
			return 0, err
		}
	}

	current, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, apperrors.NotFound("Medicamento não encontrado", apperrors.Fields{"id": id})
	}
	if err != nil {
		return 0, err
	}

	if upload != nil {
		if err := s.files.Save(ctx, *data.Img, upload.Content, upload.ContentType); err != nil {
			return 0, fmt.Errorf("failed to store image for medicamento %d: %w", id, err)
		}
		defer func() {
			if err != nil {
				s.discardUpload(ctx, *data.Img)
			}
		}()
	}

	rows, err := s.repo.Update(ctx, id, data)
	if err != nil {
		if errors.Is(err, repositories.ErrLaboratorioNotFound) {
			var labID uint
			if data.LaboratorioID != nil {
				labID = *data.LaboratorioID
			}
			return 0, laboratorioNotFound(labID)
		}
		return 0, err
	}

	if rows > 0 {
		if upload != nil && current.Img != "" {
			s.discardUpload(ctx, current.Img)
		}
		s.log.Info().Uint("medicamento_id", id).Int64("rows", rows).Msg("medicamento updated")
		s.afterWrite(ctx, EventMedicamentoUpdated, map[string]interface{}{
			"id":      id,
			"changes": data.Columns(),
		})
	}
	return rows, nil
}

// ChangeSituacao moves a medicamento between ATIVO and INATIVO.
func (s *MedicamentoService) ChangeSituacao(ctx context.Context, id uint, raw string) (int64, error) {
	if id == 0 {
		return 0, apperrors.FieldUndefined("Campo ID não identificado", apperrors.Fields{"id": id})
	}
	if strings.TrimSpace(raw) == "" {
		return 0, apperrors.FieldUndefined("É obrigatório preencher o campo 'situacao'.", apperrors.Fields{"situacao": raw})
	}

	med, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, apperrors.NotFound("Medicamento não encontrado", apperrors.Fields{"id": id})
	}
	if err != nil {
		return 0, err
	}

	situacao := models.NormalizeSituacao(raw)
	if !situacao.Valid() {
		return 0, apperrors.Validation("Situação inválida", apperrors.CodeStatusInvalido, apperrors.Fields{
			"situacao":           raw,
			"valores_permitidos": models.SituacoesValidas,
		})
	}

	current := med.Situacao.OrDefault()
	if current == situacao {
		return 0, situacaoInalterada(id, situacao)
	}

	rows, err := s.repo.UpdateSituacao(ctx, id, situacao)
	if err != nil {
		return 0, err
	}
	// The conditional update matched nothing: a concurrent request got there first.
	if rows == 0 {
		return 0, situacaoInalterada(id, situacao)
	}

	s.log.Info().
		Uint("medicamento_id", id).
		Str("de", string(current)).
		Str("para", string(situacao)).
		Msg("situacao changed")
	s.afterWrite(ctx, EventMedicamentoSituacaoAlterada, map[string]interface{}{
		"id":                id,
		"situacao_anterior": current,
		"situacao":          situacao,
	})
	return rows, nil
}

func (s *MedicamentoService) checkUpload(upload *Upload) error {
	if upload == nil {
		return apperrors.FieldUndefined("Um ou mais campos obrigatórios não foram informados", apperrors.Fields{
			"campos": []string{"img"},
		})
	}
	if err := storage.CheckUpload(upload.ContentType, upload.Size, s.maxUpload); err != nil {
		return apperrors.Validation("Imagem inválida", apperrors.CodeUploadInvalido, apperrors.Fields{
			"content_type": upload.ContentType,
			"size":         upload.Size,
			"motivo":       err.Error(),
		})
	}
	content, err := storage.Sniff(upload.Content, upload.ContentType)
	if err != nil {
		return apperrors.Validation("Imagem inválida", apperrors.CodeUploadInvalido, apperrors.Fields{
			"img":          upload.Filename,
			"content_type": upload.ContentType,
			"motivo":       err.Error(),
		})
	}
	upload.Content = content
	return nil
}

// discardUpload is best effort; failures are only logged.
func (s *MedicamentoService) discardUpload(ctx context.Context, name string) {
	if err := s.files.Delete(context.WithoutCancel(ctx), name); err != nil {
		s.log.Warn().Err(err).Str("img", name).Msg("failed to delete uploaded file")
	}
}

// afterWrite publishes the event and drops the cached select list. Neither
// failure affects the request.
func (s *MedicamentoService) afterWrite(ctx context.Context, event string, payload interface{}) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to invalidate select cache")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event, payload); err != nil {
			s.log.Warn().Err(err).Str("event", event).Msg("failed to publish event")
		}
	}
}

func idExists(id uint) error {
	return apperrors.ExistsData("Existe um medicamento com este ID.", apperrors.CodeIDExists, apperrors.Fields{"id": id})
}

func laboratorioNotFound(id uint) error {
	return apperrors.NotFound("Laboratório não encontrado", apperrors.Fields{"fk_id_laboratorio": id})
}

func situacaoInalterada(id uint, situacao models.Situacao) error {
	return apperrors.ExistsData("O medicamento já está nesta situação.", apperrors.CodeSituacaoInalterada, apperrors.Fields{
		"id":       id,
		"situacao": situacao,
	})
}
