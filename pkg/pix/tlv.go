package pix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const maxFieldLength = 99

var ErrMalformedPayload = errors.New("malformed pix payload")

// Field is one tag-length-value entry. Value holds the raw value of a leaf
// field; Children, when set, is encoded in place of Value.
type Field struct {
	Tag      string
	Value    string
	Children []Field
}

// Encode renders the field as TT LL VVVV. LL counts UTF-8 bytes.
func (f Field) Encode() (string, error) {
	if len(f.Tag) != 2 || !isDigits(f.Tag) {
		return "", fmt.Errorf("invalid tag %q", f.Tag)
	}

	value := f.Value
	if len(f.Children) > 0 {
		nested, err := EncodeFields(f.Children)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Tag, err)
		}
		value = nested
	}

	if len(value) > maxFieldLength {
		return "", fmt.Errorf("field %s: value is %d bytes, max %d", f.Tag, len(value), maxFieldLength)
	}

	return f.Tag + fmt.Sprintf("%02d", len(value)) + value, nil
}

// EncodeFields concatenates fields in the given order.
func EncodeFields(fields []Field) (string, error) {
	var sb strings.Builder
	for _, f := range fields {
		encoded, err := f.Encode()
		if err != nil {
			return "", err
		}
		sb.WriteString(encoded)
	}
	return sb.String(), nil
}

// DecodeFields splits s into its top-level fields, preserving order.
// Values are left raw; nested templates are decoded by the caller.
func DecodeFields(s string) ([]Field, error) {
	var fields []Field
	for pos := 0; pos < len(s); {
		if pos+4 > len(s) {
			return nil, fmt.Errorf("%w: truncated header at byte %d", ErrMalformedPayload, pos)
		}

		tag := s[pos : pos+2]
		rawLen := s[pos+2 : pos+4]
		if !isDigits(tag) || !isDigits(rawLen) {
			return nil, fmt.Errorf("%w: bad header %q at byte %d", ErrMalformedPayload, s[pos:pos+4], pos)
		}

		n, _ := strconv.Atoi(rawLen)
		start := pos + 4
		if start+n > len(s) {
			return nil, fmt.Errorf("%w: field %s overruns payload", ErrMalformedPayload, tag)
		}

		fields = append(fields, Field{Tag: tag, Value: s[start : start+n]})
		pos = start + n
	}
	return fields, nil
}

// Lookup returns the first field with the given tag.
func Lookup(fields []Field, tag string) (Field, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
