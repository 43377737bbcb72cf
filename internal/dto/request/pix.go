package request

// GeneratePixChargeRequest asks for a payment code for a lesson. Amount and
// recipient key are checked by the payload builder so their failures carry a
// typed reason.
type GeneratePixChargeRequest struct {
	LessonID         string `json:"lesson_id" validate:"required,max=64"`
	AmountCents      int64  `json:"amount_cents"`
	RecipientKey     string `json:"recipient_key" validate:"max=128"`
	RecipientName    string `json:"recipient_name" validate:"max=128"`
	MerchantCity     string `json:"merchant_city,omitempty" validate:"max=64"`
	Description      string `json:"description,omitempty" validate:"max=256"`
	ExpiresInMinutes int    `json:"expires_in_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
}

type VerifyPixCodeRequest struct {
	Code string `json:"code" validate:"required,max=512"`
}
