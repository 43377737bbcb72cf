package utils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const txidLessonPart = 15

// ==================== UUID ====================

// GenerateUUID returns a random (v4) charge id.
func GenerateUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID accepts only the canonical 36-character form.
func ParseUUID(uuidStr string) (uuid.UUID, error) {
	if len(uuidStr) != 36 {
		return uuid.Nil, fmt.Errorf("invalid UUID length: %d", len(uuidStr))
	}
	return uuid.Parse(uuidStr)
}

// ==================== TXID ====================

// GenerateTxID builds a 25-character alphanumeric transaction id: up to 15
// characters of the lesson id followed by hex digits of the charge id.
//
// Format: <LESSON><CHARGEHEX>, e.g. LESSON123 + 3f2a9c01b7d4e85a6c10
func GenerateTxID(lessonID string, chargeID uuid.UUID) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(lessonID) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
			if sb.Len() == txidLessonPart {
				break
			}
		}
	}

	hex := strings.ToUpper(strings.ReplaceAll(chargeID.String(), "-", ""))
	return sb.String() + hex[:25-sb.Len()]
}
