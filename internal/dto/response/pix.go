package response

import (
	"time"

	"lesson-pix/internal/data/entity"
	"lesson-pix/pkg/pix"
)

type PixChargeResponse struct {
	ID            string              `json:"id"`
	LessonID      string              `json:"lesson_id"`
	AmountCents   int64               `json:"amount_cents"`
	Amount        string              `json:"amount"`
	RecipientKey  string              `json:"recipient_key"`
	RecipientName string              `json:"recipient_name"`
	MerchantCity  string              `json:"merchant_city"`
	Description   *string             `json:"description,omitempty"`
	TransactionID string              `json:"transaction_id"`
	Payload       string              `json:"payload"`
	QRImageRef    *string             `json:"qr_image_ref"`
	Status        entity.ChargeStatus `json:"status"`
	GeneratedAt   time.Time           `json:"generated_at"`
	ExpiresAt     time.Time           `json:"expires_at"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
}

type PixStatusResponse struct {
	ChargeID  string              `json:"charge_id"`
	Status    entity.ChargeStatus `json:"status"`
	ExpiresAt time.Time           `json:"expires_at"`
	PaidAt    *time.Time          `json:"paid_at,omitempty"`
}

type PixVerifyResponse struct {
	Valid         bool                 `json:"valid"`
	AmountCents   *int64               `json:"amount_cents,omitempty"`
	RecipientKey  string               `json:"recipient_key"`
	Description   string               `json:"description,omitempty"`
	MerchantName  string               `json:"merchant_name"`
	MerchantCity  string               `json:"merchant_city"`
	TransactionID string               `json:"transaction_id"`
	ChargeID      *string              `json:"charge_id,omitempty"`
	ChargeStatus  *entity.ChargeStatus `json:"charge_status,omitempty"`
	MatchesCharge bool                 `json:"matches_charge"`
}

// PixChargeToResponse renders charge with the status observed at now.
func PixChargeToResponse(charge *entity.PixCharge, now time.Time) PixChargeResponse {
	return PixChargeResponse{
		ID:            charge.ID.String(),
		LessonID:      charge.LessonID,
		AmountCents:   charge.AmountCents,
		Amount:        pix.FormatAmount(charge.AmountCents),
		RecipientKey:  charge.RecipientKey,
		RecipientName: charge.RecipientName,
		MerchantCity:  charge.MerchantCity,
		Description:   charge.Description,
		TransactionID: charge.TransactionID,
		Payload:       charge.Payload,
		QRImageRef:    charge.QRImageRef,
		Status:        charge.StatusAt(now),
		GeneratedAt:   charge.CreatedAt,
		ExpiresAt:     charge.ExpiresAt,
		PaidAt:        charge.PaidAt,
	}
}

func PixStatusToResponse(charge *entity.PixCharge, now time.Time) PixStatusResponse {
	return PixStatusResponse{
		ChargeID:  charge.ID.String(),
		Status:    charge.StatusAt(now),
		ExpiresAt: charge.ExpiresAt,
		PaidAt:    charge.PaidAt,
	}
}

func DecodedToVerifyResponse(d *pix.Decoded) PixVerifyResponse {
	resp := PixVerifyResponse{
		Valid:         true,
		RecipientKey:  d.RecipientKey,
		Description:   d.Description,
		MerchantName:  d.MerchantName,
		MerchantCity:  d.MerchantCity,
		TransactionID: d.TransactionID,
	}
	if d.HasAmount {
		amount := d.AmountCents
		resp.AmountCents = &amount
	}
	return resp
}
