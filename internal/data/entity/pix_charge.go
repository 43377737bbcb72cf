package entity

import (
	"time"
)

type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "pending"
	ChargeStatusPaid      ChargeStatus = "paid"
	ChargeStatusExpired   ChargeStatus = "expired"
	ChargeStatusCancelled ChargeStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s ChargeStatus) IsTerminal() bool {
	return s != ChargeStatusPending
}

// PixCharge is a generated payment code and its lifecycle state. Rows are
// never deleted.
type PixCharge struct {
	BaseNoDelete
	LessonID      string       `db:"lesson_id"`
	AmountCents   int64        `db:"amount_cents"`
	RecipientKey  string       `db:"recipient_key"`
	RecipientName string       `db:"recipient_name"`
	MerchantCity  string       `db:"merchant_city"`
	Description   *string      `db:"description"`
	TransactionID string       `db:"transaction_id"`
	Payload       string       `db:"payload"`
	QRImageRef    *string      `db:"qr_image_ref"`
	Status        ChargeStatus `db:"status"`
	ExpiresAt     time.Time    `db:"expires_at"`
	PaidAt        *time.Time   `db:"paid_at"`
}

// StatusAt projects the status observed at now: a pending charge past its
// expiry reads as expired.
func (c *PixCharge) StatusAt(now time.Time) ChargeStatus {
	if c.Status == ChargeStatusPending && now.After(c.ExpiresAt) {
		return ChargeStatusExpired
	}
	return c.Status
}
