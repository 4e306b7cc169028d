package handlers

import (
	"fmt"
	"strings"

	"farmacia/internal/apperrors"
	"farmacia/internal/models"
	"farmacia/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// UploadField is the multipart field carrying the medicamento image.
const UploadField = "img"

// MedicamentoHandler handles HTTP requests for medicamentos.
type MedicamentoHandler struct {
	service *services.MedicamentoService
	log     zerolog.Logger
}

// NewMedicamentoHandler creates a new MedicamentoHandler.
func NewMedicamentoHandler(service *services.MedicamentoService, log zerolog.Logger) *MedicamentoHandler {
	return &MedicamentoHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the medicamento routes. Static segments are
// registered before /:id.
func (h *MedicamentoHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/medicamentos")
	r.Get("/", h.HandleGetAll)
	r.Get("/inativos", h.HandleGetAllInactive)
	r.Get("/select", h.HandleGetForSelect)
	r.Get("/filtro", h.HandleGetByFilter)
	r.Get("/laboratorio/:idLab", h.HandleGetByLaboratorio)
	r.Get("/:id", h.HandleGetByID)
	r.Post("/", h.HandleCreate)
	r.Put("/:id", h.HandleUpdate)
	r.Patch("/:id/situacao", h.HandleChangeSituacao)
}

func (h *MedicamentoHandler) HandleGetAll(c *fiber.Ctx) error {
	meds, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(models.ToResponses(meds))
}

func (h *MedicamentoHandler) HandleGetAllInactive(c *fiber.Ctx) error {
	meds, err := h.service.GetAllInactive(c.UserContext())
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(models.ToResponses(meds))
}

func (h *MedicamentoHandler) HandleGetForSelect(c *fiber.Ctx) error {
	options, err := h.service.GetAllForSelect(c.UserContext())
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(options)
}

func (h *MedicamentoHandler) HandleGetByFilter(c *fiber.Ctx) error {
	meds, err := h.service.GetByFilter(c.UserContext(), c.Queries())
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(models.ToResponses(meds))
}

func (h *MedicamentoHandler) HandleGetByLaboratorio(c *fiber.Ctx) error {
	idLab, err := paramID(c, "idLab", "Campo idLab não identificado")
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	meds, err := h.service.GetByLaboratorioID(c.UserContext(), idLab)
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(models.ToResponses(meds))
}

func (h *MedicamentoHandler) HandleGetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "Campo ID não identificado")
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	med, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(med.ToResponse())
}

// HandleCreate accepts multipart/form-data with the image in UploadField.
func (h *MedicamentoHandler) HandleCreate(c *fiber.Ctx) error {
	var in models.CreateMedicamentoInput
	if err := c.BodyParser(&in); err != nil {
		return ErrorResponse(c, invalidBody(err), h.log)
	}

	upload, closeUpload, err := uploadFromRequest(c)
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	defer closeUpload()

	med, err := h.service.Create(c.UserContext(), in, upload)
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Medicamento Cadastrado com sucesso!",
		"data":    med.ToResponse(),
	})
}

// HandleUpdate accepts a JSON body or multipart/form-data with an optional
// new image.
func (h *MedicamentoHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "Campo ID não identificado")
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}

	var data models.MedicamentoUpdate
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&data); err != nil {
			return ErrorResponse(c, invalidBody(err), h.log)
		}
	}

	upload, closeUpload, err := uploadFromRequest(c)
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	defer closeUpload()

	rows, err := h.service.Update(c.UserContext(), id, data, upload)
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}

	message := "Informações de medicamento alterado com sucesso!"
	if rows == 0 {
		message = "Nenhuma alteração aplicada: os dados informados já estavam gravados."
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    fiber.Map{"linhas_afetadas": rows},
	})
}

type situacaoRequest struct {
	Situacao string `json:"situacao" form:"situacao"`
}

func (h *MedicamentoHandler) HandleChangeSituacao(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "Campo ID não identificado")
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}

	var req situacaoRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponse(c, invalidBody(err), h.log)
		}
	}

	if _, err := h.service.ChangeSituacao(c.UserContext(), id, req.Situacao); err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Situação de medicamento alterada com sucesso!",
	})
}

// uploadFromRequest returns the image of a multipart request, or nil when the
// request carries none. The returned func closes the opened file.
func uploadFromRequest(c *fiber.Ctx) (*services.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, invalidBody(err)
	}
	files := form.File[UploadField]
	if len(files) == 0 {
		return nil, noop, nil
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperrors.Validation("Imagem inválida", apperrors.CodeUploadInvalido, apperrors.Fields{
			"img":  fh.Filename,
			"erro": fmt.Sprint(err),
		})
	}
	return &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	}, func() { f.Close() }, nil
}
