package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lesson-pix/internal/data/entity"
	"lesson-pix/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrActiveChargeExists is returned by Create when a pending, unexpired
// charge already holds the same (lesson, amount) pair.
var ErrActiveChargeExists = errors.New("active pix charge already exists")

type PixChargeRepository interface {
	// Create expires stale pending charges of the same lesson and amount,
	// then inserts charge.
	Create(ctx context.Context, charge *entity.PixCharge) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PixCharge, error)
	FindByTransactionID(ctx context.Context, txid string) (*entity.PixCharge, error)
	FindActiveByLesson(ctx context.Context, lessonID string, amountCents int64, now time.Time) (*entity.PixCharge, error)
	FindByLessonID(ctx context.Context, lessonID string, limit, offset int) ([]*entity.PixCharge, error)
	CountByLessonID(ctx context.Context, lessonID string) (int64, error)
	// SetQRImageRef records the rendered image of a stored charge.
	SetQRImageRef(ctx context.Context, id uuid.UUID, ref string) error

	// Conditional transitions. Each one applies only while the charge is
	// still pending and reports whether it did.
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ExpireOverdue(ctx context.Context, at time.Time) (int64, error)
}

const pixChargeColumns = `id, lesson_id, amount_cents, recipient_key, recipient_name, merchant_city, description,
		transaction_id, payload, qr_image_ref, status, expires_at, paid_at, created_at, updated_at`

const uniqueViolation = "23505"

type pixChargeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPixChargeRepository(db database.PgxIface, log *zap.Logger) PixChargeRepository {
	return &pixChargeRepository{
		db:  db,
		log: log.With(zap.String("repository", "pix_charge")),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPixCharge(row rowScanner) (*entity.PixCharge, error) {
	var charge entity.PixCharge
	err := row.Scan(
		&charge.ID,
		&charge.LessonID,
		&charge.AmountCents,
		&charge.RecipientKey,
		&charge.RecipientName,
		&charge.MerchantCity,
		&charge.Description,
		&charge.TransactionID,
		&charge.Payload,
		&charge.QRImageRef,
		&charge.Status,
		&charge.ExpiresAt,
		&charge.PaidAt,
		&charge.CreatedAt,
		&charge.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *pixChargeRepository) Create(ctx context.Context, charge *entity.PixCharge) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create pix charge: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE pix_charges
		SET status = 'expired', updated_at = $4
		WHERE lesson_id = $1 AND amount_cents = $2 AND status = 'pending' AND expires_at < $3
	`, charge.LessonID, charge.AmountCents, charge.CreatedAt, charge.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to expire stale pix charges",
			zap.Error(err),
			zap.String("lesson_id", charge.LessonID),
		)
		return fmt.Errorf("expire stale pix charges for lesson %s: %w", charge.LessonID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO pix_charges (`+pixChargeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		charge.ID,
		charge.LessonID,
		charge.AmountCents,
		charge.RecipientKey,
		charge.RecipientName,
		charge.MerchantCity,
		charge.Description,
		charge.TransactionID,
		charge.Payload,
		charge.QRImageRef,
		charge.Status,
		charge.ExpiresAt,
		charge.PaidAt,
		charge.CreatedAt,
		charge.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrActiveChargeExists
		}
		r.log.Error("Failed to create pix charge",
			zap.Error(err),
			zap.String("lesson_id", charge.LessonID),
			zap.String("transaction_id", charge.TransactionID),
		)
		return fmt.Errorf("create pix charge for lesson %s: %w", charge.LessonID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit pix charge for lesson %s: %w", charge.LessonID, err)
	}
	return nil
}

func (r *pixChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PixCharge, error) {
	query := `SELECT ` + pixChargeColumns + ` FROM pix_charges WHERE id = $1`

	charge, err := scanPixCharge(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find pix charge by ID",
			zap.Error(err),
			zap.String("charge_id", id.String()),
		)
		return nil, fmt.Errorf("find pix charge by ID %s: %w", id.String(), err)
	}

	return charge, nil
}

func (r *pixChargeRepository) FindByTransactionID(ctx context.Context, txid string) (*entity.PixCharge, error) {
	query := `
		SELECT ` + pixChargeColumns + `
		FROM pix_charges
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	charge, err := scanPixCharge(r.db.QueryRow(ctx, query, txid))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find pix charge by transaction ID",
			zap.Error(err),
			zap.String("transaction_id", txid),
		)
		return nil, fmt.Errorf("find pix charge by transaction ID %s: %w", txid, err)
	}

	return charge, nil
}

func (r *pixChargeRepository) FindActiveByLesson(ctx context.Context, lessonID string, amountCents int64, now time.Time) (*entity.PixCharge, error) {
	query := `
		SELECT ` + pixChargeColumns + `
		FROM pix_charges
		WHERE lesson_id = $1 AND amount_cents = $2 AND status = 'pending' AND expires_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	charge, err := scanPixCharge(r.db.QueryRow(ctx, query, lessonID, amountCents, now))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active pix charge",
			zap.Error(err),
			zap.String("lesson_id", lessonID),
			zap.Int64("amount_cents", amountCents),
		)
		return nil, fmt.Errorf("find active pix charge for lesson %s: %w", lessonID, err)
	}

	return charge, nil
}

func (r *pixChargeRepository) FindByLessonID(ctx context.Context, lessonID string, limit, offset int) ([]*entity.PixCharge, error) {
	query := `
		SELECT ` + pixChargeColumns + `
		FROM pix_charges
		WHERE lesson_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, lessonID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find pix charges by lesson ID",
			zap.Error(err),
			zap.String("lesson_id", lessonID),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find pix charges by lesson ID %s: %w", lessonID, err)
	}
	defer rows.Close()

	var charges []*entity.PixCharge
	for rows.Next() {
		charge, err := scanPixCharge(rows)
		if err != nil {
			r.log.Error("Failed to scan pix charge row", zap.Error(err))
			return nil, fmt.Errorf("scan pix charge row: %w", err)
		}
		charges = append(charges, charge)
	}

	return charges, rows.Err()
}

func (r *pixChargeRepository) CountByLessonID(ctx context.Context, lessonID string) (int64, error) {
	query := `SELECT COUNT(*) FROM pix_charges WHERE lesson_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, lessonID).Scan(&count); err != nil {
		r.log.Error("Failed to count pix charges by lesson ID",
			zap.Error(err),
			zap.String("lesson_id", lessonID),
		)
		return 0, fmt.Errorf("count pix charges by lesson ID %s: %w", lessonID, err)
	}

	return count, nil
}

func (r *pixChargeRepository) SetQRImageRef(ctx context.Context, id uuid.UUID, ref string) error {
	query := `UPDATE pix_charges SET qr_image_ref = $2 WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, ref); err != nil {
		r.log.Error("Failed to set pix charge image",
			zap.Error(err),
			zap.String("charge_id", id.String()),
		)
		return fmt.Errorf("set image of pix charge %s: %w", id.String(), err)
	}
	return nil
}

func (r *pixChargeRepository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE pix_charges
		SET status = 'paid', paid_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending' AND expires_at >= $2
	`
	return r.transition(ctx, query, id, at, entity.ChargeStatusPaid)
}

func (r *pixChargeRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE pix_charges
		SET status = 'cancelled', updated_at = $2
		WHERE id = $1 AND status = 'pending' AND expires_at >= $2
	`
	return r.transition(ctx, query, id, at, entity.ChargeStatusCancelled)
}

func (r *pixChargeRepository) MarkExpired(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE pix_charges
		SET status = 'expired', updated_at = $2
		WHERE id = $1 AND status = 'pending' AND expires_at < $2
	`
	return r.transition(ctx, query, id, at, entity.ChargeStatusExpired)
}

func (r *pixChargeRepository) ExpireOverdue(ctx context.Context, at time.Time) (int64, error) {
	query := `
		UPDATE pix_charges
		SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at < $1
	`

	result, err := r.db.Exec(ctx, query, at)
	if err != nil {
		r.log.Error("Failed to expire overdue pix charges", zap.Error(err))
		return 0, fmt.Errorf("expire overdue pix charges: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *pixChargeRepository) transition(ctx context.Context, query string, id uuid.UUID, at time.Time, to entity.ChargeStatus) (bool, error) {
	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to update pix charge status",
			zap.Error(err),
			zap.String("charge_id", id.String()),
			zap.String("status", string(to)),
		)
		return false, fmt.Errorf("update pix charge %s status to %s: %w", id.String(), string(to), err)
	}

	return result.RowsAffected() == 1, nil
}
