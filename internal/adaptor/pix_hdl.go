package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"lesson-pix/internal/dto/request"
	"lesson-pix/internal/usecase"
	"lesson-pix/pkg/pix"
	"lesson-pix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PixHandler struct {
	service usecase.PixService
	log     *zap.Logger
}

func NewPixHandler(service usecase.PixService, log *zap.Logger) *PixHandler {
	return &PixHandler{
		service: service,
		log:     log.With(zap.String("handler", "pix")),
	}
}

// GenerateCharge handles POST /api/pix/charges
func (h *PixHandler) GenerateCharge(w http.ResponseWriter, r *http.Request) {
	var req request.GeneratePixChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	charge, created, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "generate pix charge")
		return
	}

	if created {
		utils.ResponseCreated(w, "success", charge)
		return
	}
	utils.ResponseSuccess(w, "success", charge)
}

// GetCharge handles GET /api/pix/charges/{id}
func (h *PixHandler) GetCharge(w http.ResponseWriter, r *http.Request) {
	charge, err := h.service.GetCharge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get pix charge")
		return
	}

	utils.ResponseSuccess(w, "success", charge)
}

// GetStatus handles GET /api/pix/charges/{id}/status
func (h *PixHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get pix charge status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// ConfirmPayment handles POST /api/pix/charges/{id}/confirm (confirm key)
func (h *PixHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	charge, err := h.service.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "confirm pix payment")
		return
	}

	utils.ResponseSuccess(w, "success", charge)
}

// CancelPayment handles POST /api/pix/charges/{id}/cancel
func (h *PixHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	charge, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "cancel pix payment")
		return
	}

	utils.ResponseSuccess(w, "success", charge)
}

// ListLessonCharges handles GET /api/lessons/{lessonId}/pix-charges
func (h *PixHandler) ListLessonCharges(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	charges, err := h.service.ListByLesson(r.Context(), chi.URLParam(r, "lessonId"), req)
	if err != nil {
		h.handleServiceError(w, err, "list lesson pix charges")
		return
	}

	utils.ResponseSuccess(w, "success", charges)
}

// VerifyCode handles POST /api/pix/verify
func (h *PixHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyPixCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.VerifyCode(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "verify pix code")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// handleServiceError maps error kinds to HTTP responses
func (h *PixHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var (
		validationErr *pix.ValidationError
		stateErr      *usecase.StateError
		checksumErr   *pix.ChecksumError
	)

	switch {
	case errors.As(err, &validationErr):
		h.log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("reason", string(validationErr.Reason)))
		utils.ResponseBadRequest(w, err.Error(), map[string]string{"reason": string(validationErr.Reason)})

	case errors.Is(err, usecase.ErrRequestInvalid), errors.Is(err, usecase.ErrInvalidChargeID):
		h.log.Warn("Invalid input for "+operation, zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrChargeNotFound):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &stateErr):
		h.log.Warn(operation+" failed - invalid state",
			zap.Error(err),
			zap.String("reason", string(stateErr.Reason)))
		utils.ResponseConflict(w, err.Error(), map[string]string{
			"reason": string(stateErr.Reason),
			"status": string(stateErr.Status),
		})

	case errors.As(err, &checksumErr):
		h.log.Warn(operation+" failed - checksum mismatch", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error(), map[string]string{
			"reason":   "checksum_mismatch",
			"expected": checksumErr.Expected,
			"actual":   checksumErr.Actual,
		})

	case errors.Is(err, pix.ErrMalformedPayload):
		h.log.Warn(operation+" failed - malformed code", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error(), map[string]string{"reason": "malformed_payload"})

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
