package pix

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	maxNameLength = 25
	maxCityLength = 15
	maxTxIDLength = 25

	fallbackMerchantInfo = "NA"
	// NoTxID is the BR Code placeholder for codes without a transaction id.
	NoTxID = "***"
)

// SanitizeKey trims the key and drops control characters.
func SanitizeKey(key string) string {
	return strings.TrimSpace(stripControl(key))
}

// SanitizeName folds diacritics, drops control characters and truncates to
// 25 characters. Empty results become "NA".
func SanitizeName(name string) string {
	s, _ := sanitizeMerchantText(name, maxNameLength)
	return s
}

// SanitizeCity is SanitizeName for the 15-character, uppercased city field.
func SanitizeCity(city string) string {
	s, _ := sanitizeCity(city)
	return s
}

func sanitizeCity(city string) (string, bool) {
	s, ok := sanitizeMerchantText(city, maxCityLength)
	return strings.ToUpper(s), ok
}

// SanitizeTxID keeps only ASCII letters and digits, truncated to 25.
func SanitizeTxID(txid string) string {
	var sb strings.Builder
	for _, r := range txid {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
			if sb.Len() == maxTxIDLength {
				break
			}
		}
	}
	if sb.Len() == 0 {
		return NoTxID
	}
	return sb.String()
}

// sanitizeMerchantText reports false when nothing survived sanitation and
// the fallback was used.
func sanitizeMerchantText(s string, max int) (string, bool) {
	s = strings.TrimSpace(stripControl(foldDiacritics(s)))
	s = truncateRunes(s, max)
	s = strings.TrimSpace(s)
	if s == "" {
		return fallbackMerchantInfo, false
	}
	return s, true
}

// foldDiacritics strips combining marks: "João" -> "Joao".
func foldDiacritics(s string) string {
	var sb strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return norm.NFC.String(sb.String())
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func truncateRunes(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}

// truncateBytes cuts s to at most max bytes without splitting a rune.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max {
			break
		}
		cut = i
	}
	return s[:cut]
}
