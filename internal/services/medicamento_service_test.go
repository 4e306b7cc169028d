package services_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"farmacia/internal/apperrors"
	"farmacia/internal/filter"
	"farmacia/internal/models"
	"farmacia/internal/repositories"
	"farmacia/internal/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Save(ctx context.Context, name string, content io.Reader, contentType string) error {
	args := m.Called(name, contentType)
	return args.Error(0)
}

func (m *MockFileStore) Delete(ctx context.Context, name string) error {
	args := m.Called(name)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}

type MockSelectCache struct {
	mock.Mock
}

func (m *MockSelectCache) Get(ctx context.Context) ([]models.MedicamentoSelectOption, bool, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]models.MedicamentoSelectOption), args.Bool(1), args.Error(2)
}

func (m *MockSelectCache) Set(ctx context.Context, options []models.MedicamentoSelectOption) error {
	args := m.Called(options)
	return args.Error(0)
}

func (m *MockSelectCache) Invalidate(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

// MockMedicamentoRepository is a testify mock of repositories.MedicamentoRepository,
// used where the in-memory repository cannot produce the failure under test.
type MockMedicamentoRepository struct {
	mock.Mock
}

func (m *MockMedicamentoRepository) list(args mock.Arguments) ([]models.Medicamento, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Medicamento), args.Error(1)
}

func (m *MockMedicamentoRepository) GetAll(ctx context.Context) ([]models.Medicamento, error) {
	return m.list(m.Called())
}

func (m *MockMedicamentoRepository) GetAllInactive(ctx context.Context) ([]models.Medicamento, error) {
	return m.list(m.Called())
}

func (m *MockMedicamentoRepository) GetByLaboratorioID(ctx context.Context, laboratorioID uint) ([]models.Medicamento, error) {
	return m.list(m.Called(laboratorioID))
}

func (m *MockMedicamentoRepository) GetByID(ctx context.Context, id uint) (*models.Medicamento, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Medicamento), args.Error(1)
}

func (m *MockMedicamentoRepository) GetAllForSelect(ctx context.Context) ([]models.Medicamento, error) {
	return m.list(m.Called())
}

func (m *MockMedicamentoRepository) FindByFilter(ctx context.Context, q filter.Query) ([]models.Medicamento, error) {
	return m.list(m.Called(q))
}

func (m *MockMedicamentoRepository) Create(ctx context.Context, medicamento *models.Medicamento) error {
	args := m.Called(medicamento)
	return args.Error(0)
}

func (m *MockMedicamentoRepository) Update(ctx context.Context, id uint, data models.MedicamentoUpdate) (int64, error) {
	args := m.Called(id, data)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMedicamentoRepository) UpdateSituacao(ctx context.Context, id uint, situacao models.Situacao) (int64, error) {
	args := m.Called(id, situacao)
	return args.Get(0).(int64), args.Error(1)
}

var laboratorioEMS = models.Laboratorio{ID: 1, NomeLaboratorio: "EMS"}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func uintPtr(v uint) *uint    { return &v }

const pngImage = "\x89PNG\r\n\x1a\nimage"

func pngUpload() *services.Upload {
	return &services.Upload{
		Filename:    "dipirona.png",
		ContentType: "image/png",
		Size:        int64(len(pngImage)),
		Content:     strings.NewReader(pngImage),
	}
}

func validInput(id uint) models.CreateMedicamentoInput {
	return models.CreateMedicamentoInput{
		ID:               id,
		LaboratorioID:    laboratorioEMS.ID,
		Nome:             "Dipirona",
		IndicacaoUso:     "Analgésico",
		Categoria:        "Analgésicos",
		TipoUnidade:      "Comprimido",
		QuantidadeMinima: intPtr(10),
	}
}

type fixture struct {
	repo    *repositories.MockMedicamentoRepository
	files   *MockFileStore
	service *services.MedicamentoService
}

// newFixture wires the service to the in-memory repository with no publisher
// and no cache.
func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := repositories.NewMockMedicamentoRepository(laboratorioEMS)
	files := new(MockFileStore)
	return fixture{
		repo:    repo,
		files:   files,
		service: services.NewMedicamentoService(repo, files, nil, nil, 1024, zerolog.Nop()),
	}
}

func (f fixture) seed(t *testing.T, id uint, situacao models.Situacao) {
	t.Helper()
	require.NoError(t, f.repo.Create(context.Background(), &models.Medicamento{
		ID:            id,
		LaboratorioID: laboratorioEMS.ID,
		Nome:          "Seed",
		IndicacaoUso:  "Seed",
		Categoria:     "Seed",
		Img:           "seed.png",
		Situacao:      situacao,
	}))
}

func TestMedicamentoService_Create(t *testing.T) {
	f := newFixture(t)
	f.files.On("Save", mock.MatchedBy(func(name string) bool { return strings.HasSuffix(name, ".png") }), "image/png").Return(nil).Once()

	med, err := f.service.Create(context.Background(), validInput(1), pngUpload())
	require.NoError(t, err)
	assert.Equal(t, models.SituacaoAtivo, med.Situacao)
	assert.NotEqual(t, "dipirona.png", med.Img, "stored name is generated")
	assert.True(t, strings.HasSuffix(med.Img, ".png"))

	stored, err := f.service.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Dipirona", stored.Nome)
	f.files.AssertExpectations(t)
}

func TestMedicamentoService_Create_ZeroQuantidadeIsValid(t *testing.T) {
	f := newFixture(t)
	f.files.On("Save", mock.Anything, "image/png").Return(nil).Once()

	in := validInput(2)
	in.QuantidadeMinima = intPtr(0)
	med, err := f.service.Create(context.Background(), in, pngUpload())
	require.NoError(t, err)
	assert.Equal(t, 0, med.QuantidadeMinima)
}

func TestMedicamentoService_Create_MissingFields(t *testing.T) {
	f := newFixture(t)

	in := validInput(3)
	in.Nome = ""
	in.QuantidadeMinima = nil
	_, err := f.service.Create(context.Background(), in, pngUpload())

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindFieldUndefined, appErr.Kind)
	assert.ElementsMatch(t, []string{"nome", "quantidade_minima"}, appErr.Fields["campos"])
	f.files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMedicamentoService_Create_MissingImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), validInput(3), nil)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindFieldUndefined, appErr.Kind)
	assert.Equal(t, []string{"img"}, appErr.Fields["campos"])
}

func TestMedicamentoService_Create_RejectsNonImage(t *testing.T) {
	f := newFixture(t)
	upload := pngUpload()
	upload.ContentType = "application/pdf"

	_, err := f.service.Create(context.Background(), validInput(3), upload)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUploadInvalido))
	f.files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMedicamentoService_Create_RejectsSpoofedImage(t *testing.T) {
	f := newFixture(t)
	upload := &services.Upload{
		Filename:    "evil.html",
		ContentType: "image/png",
		Size:        38,
		Content:     strings.NewReader("<html><script>alert(1)</script></html>"),
	}

	_, err := f.service.Create(context.Background(), validInput(3), upload)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUploadInvalido))
	f.files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMedicamentoService_Create_IgnoresClientExtension(t *testing.T) {
	f := newFixture(t)
	f.files.On("Save", mock.Anything, "image/png").Return(nil).Once()
	upload := pngUpload()
	upload.Filename = "evil.html"

	med, err := f.service.Create(context.Background(), validInput(4), upload)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(med.Img, ".png"))
	f.files.AssertExpectations(t)
}

func TestMedicamentoService_Create_DuplicateIDRemovesUpload(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 7, models.SituacaoAtivo)

	var savedName string
	f.files.On("Save", mock.Anything, "image/png").Run(func(args mock.Arguments) {
		savedName = args.String(0)
	}).Return(nil).Once()
	f.files.On("Delete", mock.Anything).Return(nil).Once()

	_, err := f.service.Create(context.Background(), validInput(7), pngUpload())

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindExistsData, appErr.Kind)
	assert.Equal(t, apperrors.CodeIDExists, appErr.Code)
	assert.Equal(t, uint(7), appErr.Fields["id"])
	f.files.AssertCalled(t, "Delete", savedName)
	f.files.AssertExpectations(t)
}

func TestMedicamentoService_Create_ConstraintRaceIsIDExists(t *testing.T) {
	repo := new(MockMedicamentoRepository)
	files := new(MockFileStore)
	service := services.NewMedicamentoService(repo, files, nil, nil, 1024, zerolog.Nop())

	files.On("Save", mock.Anything, "image/png").Return(nil).Once()
	files.On("Delete", mock.Anything).Return(errors.New("disk gone")).Once()
	repo.On("GetByID", uint(9)).Return(nil, repositories.ErrNotFound).Once()
	repo.On("Create", mock.AnythingOfType("*models.Medicamento")).
		Return(errors.New("failed to create medicamento: " + repositories.ErrDuplicateID.Error())).Once()

	// A plain error without the sentinel is an unexpected failure.
	_, err := service.Create(context.Background(), validInput(9), pngUpload())
	assert.True(t, apperrors.IsKind(err, apperrors.KindCannotCreate))

	files.On("Save", mock.Anything, "image/png").Return(nil).Once()
	files.On("Delete", mock.Anything).Return(nil).Once()
	repo.On("GetByID", uint(9)).Return(nil, repositories.ErrNotFound).Once()
	repo.On("Create", mock.AnythingOfType("*models.Medicamento")).Return(repositories.ErrDuplicateID).Once()

	_, err = service.Create(context.Background(), validInput(9), pngUpload())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIDExists))

	files.AssertNumberOfCalls(t, "Delete", 2)
	repo.AssertExpectations(t)
}

func TestMedicamentoService_Create_UnknownLaboratorio(t *testing.T) {
	f := newFixture(t)
	f.files.On("Save", mock.Anything, "image/png").Return(nil).Once()
	f.files.On("Delete", mock.Anything).Return(nil).Once()

	in := validInput(4)
	in.LaboratorioID = 99
	_, err := f.service.Create(context.Background(), in, pngUpload())

	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	f.files.AssertExpectations(t)
}

func TestMedicamentoService_Create_PublishesAndInvalidates(t *testing.T) {
	repo := repositories.NewMockMedicamentoRepository(laboratorioEMS)
	files := new(MockFileStore)
	publisher := new(MockPublisher)
	cache := new(MockSelectCache)
	service := services.NewMedicamentoService(repo, files, publisher, cache, 1024, zerolog.Nop())

	files.On("Save", mock.Anything, "image/png").Return(nil).Once()
	cache.On("Invalidate").Return(nil).Once()
	publisher.On("Publish", services.EventMedicamentoCreated, mock.AnythingOfType("models.MedicamentoResponse")).
		Return(errors.New("broker down")).Once()

	_, err := service.Create(context.Background(), validInput(5), pngUpload())
	assert.NoError(t, err, "publish failures never fail the request")
	publisher.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestMedicamentoService_Update(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 10, models.SituacaoAtivo)

	rows, err := f.service.Update(context.Background(), 10, models.MedicamentoUpdate{
		NomeMedicamento:  strPtr("Dipirona Sódica"),
		QuantidadeMinima: intPtr(0),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	med, err := f.service.GetByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Dipirona Sódica", med.Nome)
	assert.Equal(t, 0, med.QuantidadeMinima)
}

func TestMedicamentoService_Update_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), 404, models.MedicamentoUpdate{Nome: strPtr("X")}, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestMedicamentoService_Update_EmptySet(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 11, models.SituacaoAtivo)

	_, err := f.service.Update(context.Background(), 11, models.MedicamentoUpdate{}, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindFieldUndefined))

	// An empty alias does not count as a field either.
	_, err = f.service.Update(context.Background(), 11, models.MedicamentoUpdate{NomeMedicamento: strPtr("")}, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindFieldUndefined))
}

func TestMedicamentoService_Update_ImageOnly(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 12, models.SituacaoAtivo)
	f.files.On("Save", mock.Anything, "image/png").Return(nil).Once()
	f.files.On("Delete", "seed.png").Return(nil).Once()

	rows, err := f.service.Update(context.Background(), 12, models.MedicamentoUpdate{}, pngUpload())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	med, err := f.service.GetByID(context.Background(), 12)
	require.NoError(t, err)
	assert.NotEqual(t, "seed.png", med.Img)
	f.files.AssertExpectations(t)
}

func TestMedicamentoService_Update_FailureRemovesNewImage(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 13, models.SituacaoAtivo)

	var savedName string
	f.files.On("Save", mock.Anything, "image/png").Run(func(args mock.Arguments) {
		savedName = args.String(0)
	}).Return(nil).Once()
	f.files.On("Delete", mock.Anything).Return(nil).Once()

	_, err := f.service.Update(context.Background(), 13, models.MedicamentoUpdate{LaboratorioID: uintPtr(99)}, pngUpload())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	f.files.AssertCalled(t, "Delete", savedName)
	f.files.AssertNotCalled(t, "Delete", "seed.png")
}

func TestMedicamentoService_Update_InvalidValue(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 14, models.SituacaoAtivo)

	_, err := f.service.Update(context.Background(), 14, models.MedicamentoUpdate{QuantidadeMinima: intPtr(-1)}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCampoInvalido))
}

func TestMedicamentoService_ChangeSituacao(t *testing.T) {
	t.Run("same state is a conflict", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 20, models.SituacaoAtivo)

		_, err := f.service.ChangeSituacao(context.Background(), 20, "ATIVO")
		assert.True(t, apperrors.IsKind(err, apperrors.KindExistsData))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeSituacaoInalterada))
	})

	t.Run("unset status counts as ATIVO", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 21, "")

		_, err := f.service.ChangeSituacao(context.Background(), 21, "ativo")
		assert.True(t, apperrors.HasCode(err, apperrors.CodeSituacaoInalterada))
	})

	t.Run("deactivate", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 22, models.SituacaoAtivo)

		rows, err := f.service.ChangeSituacao(context.Background(), 22, "INATIVO")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		med, err := f.service.GetByID(context.Background(), 22)
		require.NoError(t, err)
		assert.Equal(t, models.SituacaoInativo, med.Situacao)
	})

	t.Run("input is trimmed and upper-cased", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 23, models.SituacaoAtivo)

		rows, err := f.service.ChangeSituacao(context.Background(), 23, "  inativo  ")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("unknown status lists allowed values", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 24, models.SituacaoAtivo)

		_, err := f.service.ChangeSituacao(context.Background(), 24, "pausado")
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.KindValidation, appErr.Kind)
		assert.Equal(t, apperrors.CodeStatusInvalido, appErr.Code)
		assert.Equal(t, models.SituacoesValidas, appErr.Fields["valores_permitidos"])
	})

	t.Run("absent medicamento", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ChangeSituacao(context.Background(), 25, "INATIVO")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("blank status", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ChangeSituacao(context.Background(), 26, "   ")
		assert.True(t, apperrors.IsKind(err, apperrors.KindFieldUndefined))
	})
}

func TestMedicamentoService_ChangeSituacao_LostRace(t *testing.T) {
	repo := new(MockMedicamentoRepository)
	service := services.NewMedicamentoService(repo, new(MockFileStore), nil, nil, 1024, zerolog.Nop())

	repo.On("GetByID", uint(30)).Return(&models.Medicamento{ID: 30, Situacao: models.SituacaoAtivo}, nil).Once()
	repo.On("UpdateSituacao", uint(30), models.SituacaoInativo).Return(int64(0), nil).Once()

	_, err := service.ChangeSituacao(context.Background(), 30, "INATIVO")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSituacaoInalterada))
	repo.AssertExpectations(t)
}

func TestMedicamentoService_GetByID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetByID(context.Background(), 0)
	assert.True(t, apperrors.IsKind(err, apperrors.KindFieldUndefined))

	_, err = f.service.GetByID(context.Background(), 1)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestMedicamentoService_GetByFilter(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 40, models.SituacaoAtivo)

	_, err := f.service.GetByFilter(context.Background(), map[string]string{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindFieldUndefined))

	_, err = f.service.GetByFilter(context.Background(), map[string]string{"preco": "10"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindFieldUndefined), "unknown keys do not satisfy the guard")

	meds, err := f.service.GetByFilter(context.Background(), map[string]string{"nome": "See"})
	require.NoError(t, err)
	assert.Len(t, meds, 1)

	meds, err = f.service.GetByFilter(context.Background(), map[string]string{"nome": "see"})
	require.NoError(t, err)
	assert.Empty(t, meds, "contains is case-sensitive")
}

func TestMedicamentoService_GetAllForSelect(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 50, models.SituacaoAtivo)

	options, err := f.service.GetAllForSelect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.MedicamentoSelectOption{{
		MedicamentoValue: 50,
		MedicamentoLabel: "Seed",
		LaboratorioValue: laboratorioEMS.ID,
		LaboratorioLabel: "EMS",
	}}, options)
}

func TestMedicamentoService_GetAllForSelect_Cache(t *testing.T) {
	repo := new(MockMedicamentoRepository)
	cache := new(MockSelectCache)
	service := services.NewMedicamentoService(repo, new(MockFileStore), nil, cache, 1024, zerolog.Nop())

	cached := []models.MedicamentoSelectOption{{MedicamentoValue: 1, MedicamentoLabel: "Cached"}}
	cache.On("Get").Return(cached, true, nil).Once()

	options, err := service.GetAllForSelect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, options)
	repo.AssertNotCalled(t, "GetAllForSelect")

	// Miss: load from the repository and fill the cache.
	cache.On("Get").Return(nil, false, nil).Once()
	repo.On("GetAllForSelect").Return([]models.Medicamento{
		{ID: 2, Nome: "Fresh", LaboratorioID: 1, Laboratorio: &laboratorioEMS},
	}, nil).Once()
	cache.On("Set", mock.Anything).Return(nil).Once()

	options, err = service.GetAllForSelect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fresh", options[0].MedicamentoLabel)
	assert.Equal(t, "EMS", options[0].LaboratorioLabel)
	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestMedicamentoService_Lists(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 60, models.SituacaoInativo)
	f.seed(t, 61, models.SituacaoAtivo)

	all, err := f.service.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint(61), all[0].ID, "ATIVO first")

	inativos, err := f.service.GetAllInactive(context.Background())
	require.NoError(t, err)
	require.Len(t, inativos, 1)
	assert.Equal(t, uint(60), inativos[0].ID)

	_, err = f.service.GetByLaboratorioID(context.Background(), 0)
	assert.True(t, apperrors.IsKind(err, apperrors.KindFieldUndefined))

	byLab, err := f.service.GetByLaboratorioID(context.Background(), laboratorioEMS.ID)
	require.NoError(t, err)
	assert.Len(t, byLab, 2)
}
