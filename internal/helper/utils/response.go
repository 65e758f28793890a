package utils

import (
	"errors"

	"github.com/LusoHub/verification_service/internal/domain"
	"github.com/gofiber/fiber/v2"
)

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{"data": data})
}

// ResponseWorkflowError surfaces a workflow failure as a structured
// {kind, field, message} payload. Non-workflow errors fall back to a plain
// 500 envelope.
func ResponseWorkflowError(ctx *fiber.Ctx, err error) error {
	var we *domain.WorkflowError
	if !errors.As(err, &we) {
		return ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}

	status := fiber.StatusUnprocessableEntity
	switch we.Kind {
	case domain.ErrSessionNotFound:
		status = fiber.StatusNotFound
	case domain.ErrInvalidTransition:
		status = fiber.StatusConflict
	case domain.ErrSubmitInFlight:
		status = fiber.StatusConflict
	case domain.ErrRegistryUnavailable:
		status = fiber.StatusBadGateway
	}

	body := fiber.Map{
		"kind":    we.Kind,
		"message": we.Message,
	}
	if we.Field != "" {
		body["field"] = we.Field
	}
	return ctx.Status(status).JSON(fiber.Map{"error": body})
}
