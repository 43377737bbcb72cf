package pix

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Root and nested tags of a static BR Code.
const (
	TagPayloadFormat     = "00"
	TagInitiationMethod  = "01"
	TagMerchantAccount   = "26"
	TagMerchantCategory  = "52"
	TagCurrency          = "53"
	TagAmount            = "54"
	TagCountry           = "58"
	TagMerchantName      = "59"
	TagMerchantCity      = "60"
	TagAdditionalData    = "62"
	TagCRC               = "63"
	TagAccountGUI        = "00"
	TagAccountKey        = "01"
	TagAccountInfo       = "02"
	TagAdditionalTxID    = "05"
	PayloadFormatVersion = "01"
	InitiationStatic     = "11"
	InitiationDynamic    = "12"
	PixGUI               = "br.gov.bcb.pix"
	MerchantCategoryNone = "0000"
	CurrencyBRL          = "986"
	CountryBR            = "BR"
)

const (
	crcHeader       = TagCRC + "04"
	maxAmountLength = 13
	maxKeyLength    = 77
)

// Charge is the input to Build.
type Charge struct {
	AmountCents   int64
	RecipientKey  string
	RecipientName string
	MerchantCity  string
	Description   string
	TransactionID string

	// StrictMerchantInfo rejects a name or city that sanitizes to nothing
	// instead of falling back to "NA".
	StrictMerchantInfo bool
}

// Build serializes c into an unchecksummed static BR Code. The result ends
// with the "6304" CRC header; AppendCRC completes it.
func Build(c Charge) (string, error) {
	key := SanitizeKey(c.RecipientKey)
	if key == "" {
		return "", &ValidationError{Reason: MissingKey}
	}
	if len(key) > maxKeyLength {
		return "", &ValidationError{Reason: InvalidKey, Detail: fmt.Sprintf("key is %d bytes, max %d", len(key), maxKeyLength)}
	}

	if c.AmountCents <= 0 {
		return "", &ValidationError{Reason: InvalidAmount, Detail: fmt.Sprintf("amount %d cents", c.AmountCents)}
	}
	amount := FormatAmount(c.AmountCents)
	if len(amount) > maxAmountLength {
		return "", &ValidationError{Reason: InvalidAmount, Detail: fmt.Sprintf("amount %s exceeds %d characters", amount, maxAmountLength)}
	}

	name, nameOK := sanitizeMerchantText(c.RecipientName, maxNameLength)
	city, cityOK := sanitizeCity(c.MerchantCity)
	if c.StrictMerchantInfo && !(nameOK && cityOK) {
		return "", &ValidationError{Reason: InvalidMerchantInfo, Detail: "merchant name and city must not be empty"}
	}

	fields := []Field{
		{Tag: TagPayloadFormat, Value: PayloadFormatVersion},
		{Tag: TagInitiationMethod, Value: InitiationStatic},
		{Tag: TagMerchantAccount, Children: merchantAccount(key, c.Description)},
		{Tag: TagMerchantCategory, Value: MerchantCategoryNone},
		{Tag: TagCurrency, Value: CurrencyBRL},
		{Tag: TagAmount, Value: amount},
		{Tag: TagCountry, Value: CountryBR},
		{Tag: TagMerchantName, Value: truncateBytes(name, maxFieldLength)},
		{Tag: TagMerchantCity, Value: truncateBytes(city, maxFieldLength)},
		{Tag: TagAdditionalData, Children: []Field{
			{Tag: TagAdditionalTxID, Value: SanitizeTxID(c.TransactionID)},
		}},
	}

	payload, err := EncodeFields(fields)
	if err != nil {
		return "", fmt.Errorf("encode pix payload: %w", err)
	}

	return payload + crcHeader, nil
}

// AppendCRC completes a payload produced by Build with its checksum.
func AppendCRC(payload string) string {
	return payload + CRC16([]byte(payload))
}

// FormatAmount renders cents as a decimal with exactly two fraction digits.
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func merchantAccount(key, description string) []Field {
	children := []Field{
		{Tag: TagAccountGUI, Value: PixGUI},
		{Tag: TagAccountKey, Value: key},
	}

	description = strings.TrimSpace(stripControl(description))
	if description == "" {
		return children
	}

	// whatever is left of the 99-byte template after GUI and key
	budget := maxFieldLength - (4 + len(PixGUI)) - (4 + len(key)) - 4
	if budget <= 0 {
		return children
	}
	return append(children, Field{Tag: TagAccountInfo, Value: truncateBytes(description, budget)})
}
