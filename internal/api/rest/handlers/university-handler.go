package handlers

import (
	"github.com/LusoHub/verification_service/internal/dto"
	"github.com/LusoHub/verification_service/internal/helper/utils"
	"github.com/LusoHub/verification_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UniversityHandler struct {
	svc services.VerificationService
}

func NewUniversityHandler(svc services.VerificationService) *UniversityHandler {
	return &UniversityHandler{svc: svc}
}

func (h *UniversityHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/universities", h.ListUniversities)
	api.Post("/universities", h.AddUniversity)
}

func (h *UniversityHandler) ListUniversities(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	universities, err := h.svc.ListUniversities(limit, offset)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, universities)
}

func (h *UniversityHandler) AddUniversity(ctx *fiber.Ctx) error {
	var requestBody dto.UniversityCreateRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	if err := h.svc.AddUniversity(requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, "university registered")
}
