package handlers

import (
	"errors"
	"strconv"

	"farmacia/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const internalErrorMessage = "Erro interno do servidor"

// ErrorResponse writes err as the JSON error body. Only domain errors carry
// their message to the client; anything else is logged and reported as a
// generic 500.
func ErrorResponse(c *fiber.Ctx, err error, log zerolog.Logger) error {
	if appErr, ok := apperrors.As(err); ok {
		status := appErr.HTTPStatus()
		body := fiber.Map{
			"status":  "error",
			"message": appErr.Message,
		}
		if appErr.Code != "" {
			body["code"] = appErr.Code
		}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}

		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg(appErr.Message)
		}
		return c.Status(status).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{
			"status":  "error",
			"message": fe.Message,
		})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": internalErrorMessage,
	})
}

// FiberErrorHandler routes errors returned by handlers and middleware through
// ErrorResponse.
func FiberErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return ErrorResponse(c, err, log)
	}
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name, message string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.FieldUndefined(message, apperrors.Fields{name: raw})
	}
	return uint(id), nil
}

func invalidBody(err error) error {
	return apperrors.Validation("Corpo da requisição inválido", apperrors.CodeCampoInvalido, apperrors.Fields{
		"erro": err.Error(),
	})
}
