package handlers

import (
	"farmacia/internal/models"
	"farmacia/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// LaboratorioHandler handles HTTP requests for laboratorios.
type LaboratorioHandler struct {
	service *services.LaboratorioService
	log     zerolog.Logger
}

func NewLaboratorioHandler(service *services.LaboratorioService, log zerolog.Logger) *LaboratorioHandler {
	return &LaboratorioHandler{
		service: service,
		log:     log,
	}
}

func (h *LaboratorioHandler) RegisterRoutes(router fiber.Router) {
	r := router.Group("/laboratorios")
	r.Get("/", h.HandleGetAll)
	r.Get("/:id", h.HandleGetByID)
	r.Post("/", h.HandleCreate)
}

func (h *LaboratorioHandler) HandleGetAll(c *fiber.Ctx) error {
	labs, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(labs)
}

func (h *LaboratorioHandler) HandleGetByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "Campo ID não identificado")
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	lab, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.JSON(lab)
}

type laboratorioRequest struct {
	NomeLaboratorio string `json:"nome_laboratorio" form:"nome_laboratorio"`
}

func (h *LaboratorioHandler) HandleCreate(c *fiber.Ctx) error {
	var req laboratorioRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, invalidBody(err), h.log)
	}

	lab := &models.Laboratorio{NomeLaboratorio: req.NomeLaboratorio}
	if err := h.service.Create(c.UserContext(), lab); err != nil {
		return ErrorResponse(c, err, h.log)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Laboratório cadastrado com sucesso!",
		"data":    lab,
	})
}
