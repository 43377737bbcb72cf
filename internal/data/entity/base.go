package entity

import (
	"time"

	"github.com/google/uuid"
)

// BaseNoDelete is the common header of rows kept for audit.
type BaseNoDelete struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
