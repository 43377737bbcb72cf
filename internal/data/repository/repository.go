package repository

import (
	"lesson-pix/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	PixCharge PixChargeRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		PixCharge: NewPixChargeRepository(db, log),
	}
}

// NewMemoryRepository backs every store with process memory.
func NewMemoryRepository(log *zap.Logger) *Repository {
	return &Repository{
		PixCharge: NewMemoryPixChargeRepository(log),
	}
}
