package pix

import "fmt"

type ValidationReason string

const (
	MissingKey          ValidationReason = "missing_key"
	InvalidKey          ValidationReason = "invalid_key"
	InvalidAmount       ValidationReason = "invalid_amount"
	InvalidMerchantInfo ValidationReason = "invalid_merchant_info"
)

// ValidationError reports charge input that cannot be encoded. Callers must
// correct the input; nothing is coerced.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pix validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("pix validation failed: %s: %s", e.Reason, e.Detail)
}

// ChecksumError is returned when an inbound code's CRC trailer does not match
// its contents.
type ChecksumError struct {
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("pix checksum mismatch: trailer %s, computed %s", e.Actual, e.Expected)
}
