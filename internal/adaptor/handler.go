package adaptor

import (
	"lesson-pix/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Pix *PixHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Pix: NewPixHandler(service.Pix, log),
	}
}
