package pix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Decoded holds the fields recovered from a BR Code.
type Decoded struct {
	PayloadFormat    string
	InitiationMethod string
	GUI              string
	RecipientKey     string
	Description      string
	MerchantCategory string
	Currency         string
	AmountCents      int64
	HasAmount        bool
	Country          string
	MerchantName     string
	MerchantCity     string
	TransactionID    string
	CRC              string
}

// Verify checks that code ends with a "6304" header followed by the
// CRC16 of everything up to and including that header. The trailer is
// compared case-insensitively; Build always emits upper-case hex.
func Verify(code string) error {
	if len(code) < len(crcHeader)+4 {
		return fmt.Errorf("%w: code too short", ErrMalformedPayload)
	}

	body := code[:len(code)-4]
	trailer := code[len(code)-4:]
	if !strings.HasSuffix(body, crcHeader) {
		return fmt.Errorf("%w: missing CRC field", ErrMalformedPayload)
	}

	expected := CRC16([]byte(body))
	if !strings.EqualFold(expected, trailer) {
		return &ChecksumError{Expected: expected, Actual: trailer}
	}
	return nil
}

// Parse verifies code and decodes its fields.
func Parse(code string) (*Decoded, error) {
	if err := Verify(code); err != nil {
		return nil, err
	}

	fields, err := DecodeFields(code)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 || fields[0].Tag != TagPayloadFormat {
		return nil, fmt.Errorf("%w: payload format indicator must come first", ErrMalformedPayload)
	}
	if last := fields[len(fields)-1]; last.Tag != TagCRC {
		return nil, fmt.Errorf("%w: CRC must be the last field", ErrMalformedPayload)
	}

	d := &Decoded{}
	for _, f := range fields {
		switch f.Tag {
		case TagPayloadFormat:
			d.PayloadFormat = f.Value
		case TagInitiationMethod:
			d.InitiationMethod = f.Value
		case TagMerchantAccount:
			if err := d.decodeMerchantAccount(f.Value); err != nil {
				return nil, err
			}
		case TagMerchantCategory:
			d.MerchantCategory = f.Value
		case TagCurrency:
			d.Currency = f.Value
		case TagAmount:
			cents, err := ParseAmount(f.Value)
			if err != nil {
				return nil, err
			}
			d.AmountCents = cents
			d.HasAmount = true
		case TagCountry:
			d.Country = f.Value
		case TagMerchantName:
			d.MerchantName = f.Value
		case TagMerchantCity:
			d.MerchantCity = f.Value
		case TagAdditionalData:
			nested, err := DecodeFields(f.Value)
			if err != nil {
				return nil, fmt.Errorf("additional data: %w", err)
			}
			if txid, ok := Lookup(nested, TagAdditionalTxID); ok {
				d.TransactionID = txid.Value
			}
		case TagCRC:
			d.CRC = f.Value
		}
	}

	if d.PayloadFormat != PayloadFormatVersion {
		return nil, fmt.Errorf("%w: unsupported payload format %q", ErrMalformedPayload, d.PayloadFormat)
	}
	return d, nil
}

// ParseAmount converts a field 54 value such as "120.00" to cents. The
// value must be plain digits with at most two decimals and fit in 13
// characters.
func ParseAmount(s string) (int64, error) {
	if len(s) > maxAmountLength || !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: amount %q", ErrMalformedPayload, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrMalformedPayload, s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: amount %q out of range", ErrMalformedPayload, s)
	}
	return cents.IntPart(), nil
}

func (d *Decoded) decodeMerchantAccount(value string) error {
	nested, err := DecodeFields(value)
	if err != nil {
		return fmt.Errorf("merchant account: %w", err)
	}
	for _, f := range nested {
		switch f.Tag {
		case TagAccountGUI:
			d.GUI = f.Value
		case TagAccountKey:
			d.RecipientKey = f.Value
		case TagAccountInfo:
			d.Description = f.Value
		}
	}
	if !strings.EqualFold(d.GUI, PixGUI) {
		return fmt.Errorf("%w: unknown merchant account GUI %q", ErrMalformedPayload, d.GUI)
	}
	return nil
}
