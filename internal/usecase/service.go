package usecase

import (
	"lesson-pix/internal/data/repository"
	"lesson-pix/pkg/qrcode"
	"lesson-pix/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Pix PixService
}

func NewService(repo *repository.Repository, renderer qrcode.Renderer, config *utils.Config, log *zap.Logger) *Service {
	encoder := NewCodeEncoder(renderer, config.Pix.QRSize, config.Pix.QRTimeout, log)

	return &Service{
		Pix: NewPixService(repo, encoder, config.Pix, log),
	}
}
