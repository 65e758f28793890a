package handlers

import (
	"github.com/LusoHub/verification_service/internal/dto"
	"github.com/LusoHub/verification_service/internal/helper/utils"
	"github.com/LusoHub/verification_service/internal/services"
	"github.com/LusoHub/verification_service/internal/verification"
	pkgutils "github.com/LusoHub/verification_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type VerificationHandler struct {
	svc services.VerificationService
}

func NewVerificationHandler(svc services.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	v := api.Group("/verification")

	v.Post("/sessions", h.StartSession)
	v.Get("/sessions/:sessionID", h.GetState)
	v.Post("/sessions/:sessionID/email", h.VerifyEmail)
	v.Post("/sessions/:sessionID/profile", h.SubmitProfile)
	v.Post("/sessions/:sessionID/documents", h.UploadDocument)
	v.Post("/sessions/:sessionID/review", h.ContinueToReview)
	v.Post("/sessions/:sessionID/back", h.StepBack)
	v.Post("/sessions/:sessionID/submit", h.Submit)
}

func (h *VerificationHandler) StartSession(ctx *fiber.Ctx) error {
	var requestBody dto.StartSessionRequest

	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.StudentID == 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "student_id is required")
	}

	state, err := h.svc.StartSession(requestBody.StudentID)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, state)
}

func (h *VerificationHandler) GetState(ctx *fiber.Ctx) error {
	state, err := h.svc.GetState(ctx.Params("sessionID"))
	if err != nil {
		return utils.ResponseWorkflowError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, state)
}

func (h *VerificationHandler) VerifyEmail(ctx *fiber.Ctx) error {
	var requestBody dto.EmailVerifyRequest

	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email is required")
	}

	res, err := h.svc.VerifyEmail(ctx.Params("sessionID"), requestBody.Email)
	if err != nil {
		return utils.ResponseWorkflowError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, res)
}

func (h *VerificationHandler) SubmitProfile(ctx *fiber.Ctx) error {
	var requestBody dto.ProfileRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	state, err := h.svc.SubmitProfile(ctx.Params("sessionID"), requestBody)
	if err != nil {
		return utils.ResponseWorkflowError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, state)
}

// UploadDocument accepts multipart form-data: file=<evidence>, doc_type=<type>.
func (h *VerificationHandler) UploadDocument(ctx *fiber.Ctx) error {
	docType := ctx.FormValue("doc_type")
	if docType == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "doc_type is required")
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "file is required")
	}

	f, err := file.Open()
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "cannot open uploaded file")
	}
	defer f.Close()

	data, err := pkgutils.ReadAllLimit(f, verification.MaxDocumentBytes)
	if err != nil {
		if err == pkgutils.ErrFileTooLarge {
			return utils.ResponseError(ctx, fiber.StatusRequestEntityTooLarge, "file too large (max 5 MiB)")
		}
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "cannot read uploaded file")
	}

	doc, err := h.svc.UploadDocument(ctx.Params("sessionID"), docType, file.Filename, data)
	if err != nil {
		return utils.ResponseWorkflowError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusAccepted, doc)
}

func (h *VerificationHandler) ContinueToReview(ctx *fiber.Ctx) error {
	state, err := h.svc.ContinueToReview(ctx.Params("sessionID"))
	if err != nil {
		return utils.ResponseWorkflowError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, state)
}

func (h *VerificationHandler) StepBack(ctx *fiber.Ctx) error {
	state, err := h.svc.StepBack(ctx.Params("sessionID"))
	if err != nil {
		return utils.ResponseWorkflowError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, state)
}

func (h *VerificationHandler) Submit(ctx *fiber.Ctx) error {
	res, err := h.svc.Submit(ctx.Context(), ctx.Params("sessionID"))
	if err != nil {
		return utils.ResponseWorkflowError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, res)
}
