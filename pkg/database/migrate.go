package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS pix_charges (
		id UUID PRIMARY KEY,
		lesson_id VARCHAR(64) NOT NULL,
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		recipient_key VARCHAR(77) NOT NULL,
		recipient_name VARCHAR(100) NOT NULL,
		merchant_city VARCHAR(60) NOT NULL,
		description TEXT,
		transaction_id VARCHAR(25) NOT NULL,
		payload TEXT NOT NULL,
		qr_image_ref TEXT,
		status VARCHAR(16) NOT NULL CHECK (status IN ('pending', 'paid', 'expired', 'cancelled')),
		expires_at TIMESTAMPTZ NOT NULL,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,

	`CREATE INDEX IF NOT EXISTS idx_pix_charges_lesson ON pix_charges (lesson_id, created_at DESC);`,

	`CREATE INDEX IF NOT EXISTS idx_pix_charges_txid ON pix_charges (transaction_id);`,

	// one pending charge per lesson and amount
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_pix_charges_active
		ON pix_charges (lesson_id, amount_cents) WHERE status = 'pending';`,

	`CREATE INDEX IF NOT EXISTS idx_pix_charges_pending_expiry
		ON pix_charges (expires_at) WHERE status = 'pending';`,
}

// RunMigrations applies the idempotent schema statements in order.
func RunMigrations(ctx context.Context, db PgxIface) error {
	for i, query := range migrations {
		if _, err := db.Exec(ctx, query); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
