package pix

import (
	"errors"
	"strings"
	"testing"
)

func TestField_Encode(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"leaf", Field{Tag: "00", Value: "01"}, "000201"},
		{"empty value", Field{Tag: "63", Value: ""}, "6300"},
		{"multibyte counts bytes", Field{Tag: "59", Value: "東京"}, "5906東京"},
		{
			"nested",
			Field{Tag: "62", Children: []Field{{Tag: "05", Value: "LESSON123"}}},
			"62130509LESSON123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.Encode()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestField_EncodeRejects(t *testing.T) {
	if _, err := (Field{Tag: "5", Value: "x"}).Encode(); err == nil {
		t.Error("expected error for one-digit tag")
	}
	if _, err := (Field{Tag: "ab", Value: "x"}).Encode(); err == nil {
		t.Error("expected error for non-numeric tag")
	}
	if _, err := (Field{Tag: "59", Value: strings.Repeat("x", 100)}).Encode(); err == nil {
		t.Error("expected error for 100-byte value")
	}
}

func TestDecodeFields(t *testing.T) {
	fields, err := DecodeFields("0002015906東京62130509LESSON123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[1].Value != "東京" {
		t.Errorf("expected multibyte value, got %q", fields[1].Value)
	}

	nested, err := DecodeFields(fields[2].Value)
	if err != nil {
		t.Fatalf("unexpected nested error: %v", err)
	}
	txid, ok := Lookup(nested, "05")
	if !ok || txid.Value != "LESSON123" {
		t.Errorf("expected txid LESSON123, got %+v", txid)
	}
}

func TestDecodeFields_Malformed(t *testing.T) {
	for _, input := range []string{"000", "00AB01", "0005abc", "xx02ab"} {
		t.Run(input, func(t *testing.T) {
			if _, err := DecodeFields(input); !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}
