package pix

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const centralBankExample = "00020126580014br.gov.bcb.pix0136123e4567-e12b-12d1-a456-4266554400005204000053039865802BR" +
	"5913Fulano de Tal6008BRASILIA62070503***63041D3D"

func TestParse_OpenAmountCode(t *testing.T) {
	d, err := Parse(centralBankExample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.HasAmount {
		t.Errorf("expected open-amount code, got %d cents", d.AmountCents)
	}
	if d.RecipientKey != "123e4567-e12b-12d1-a456-426655440000" {
		t.Errorf("unexpected key %q", d.RecipientKey)
	}
	if d.MerchantName != "Fulano de Tal" || d.MerchantCity != "BRASILIA" {
		t.Errorf("unexpected merchant %q / %q", d.MerchantName, d.MerchantCity)
	}
	if d.TransactionID != NoTxID {
		t.Errorf("expected txid %s, got %q", NoTxID, d.TransactionID)
	}
	if d.CRC != "1D3D" {
		t.Errorf("expected CRC 1D3D, got %s", d.CRC)
	}
}

func TestVerify_ChecksumMismatch(t *testing.T) {
	tampered := centralBankExample[:len(centralBankExample)-4] + "1D3E"

	err := Verify(tampered)
	var cerr *ChecksumError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	if cerr.Expected != "1D3D" || cerr.Actual != "1D3E" {
		t.Errorf("unexpected mismatch detail %+v", cerr)
	}
}

func TestVerify_BodyTampered(t *testing.T) {
	code := AppendCRC(mustBuild(t, lessonCharge()))
	tampered := []byte(code)
	tampered[60] ^= 0x01

	var cerr *ChecksumError
	if err := Verify(string(tampered)); !errors.As(err, &cerr) {
		t.Errorf("expected ChecksumError, got %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []string{
		"",
		"6304",
		"000201ABCD",
		AppendCRC("0002026304"),
		AppendCRC("01021100020126040099" + "6304"),
	}

	for _, code := range tests {
		t.Run(code, func(t *testing.T) {
			if _, err := Parse(code); !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"120.00", 12000, false},
		{"5", 500, false},
		{"0.5", 50, false},
		{"9999999999.99", 999999999999, false},
		{"1.005", 0, true},
		{"abc", 0, true},
		{"1e3", 0, true},
		{"-1.00", 0, true},
		{"+1.00", 0, true},
		{".50", 0, true},
		{"12345678901.00", 0, true},
		{"99999999999999999999.00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Errorf("expected ErrMalformedPayload, got %d (%v)", got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("expected %d, got %d (%v)", tt.want, got, err)
			}
		})
	}
}

// withAmountField inserts a raw field 54 into the central bank example and
// recomputes the checksum, so only the amount can make Parse fail.
func withAmountField(value string) string {
	body := strings.TrimSuffix(centralBankExample, "63041D3D")
	i := strings.Index(body, "5802BR")
	field := fmt.Sprintf("54%02d%s", len(value), value)
	return AppendCRC(body[:i] + field + body[i:] + crcHeader)
}

func TestParse_AmountField(t *testing.T) {
	d, err := Parse(withAmountField("150.00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.HasAmount || d.AmountCents != 15000 {
		t.Errorf("expected 15000 cents, got %d (has=%v)", d.AmountCents, d.HasAmount)
	}

	for _, value := range []string{"99999999999999999999.00", "1e3", "10,00"} {
		t.Run(value, func(t *testing.T) {
			if d, err := Parse(withAmountField(value)); !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %+v (%v)", d, err)
			}
		})
	}
}

func TestVerify_LowercaseTrailer(t *testing.T) {
	code := centralBankExample[:len(centralBankExample)-4] + "1d3d"
	if err := Verify(code); err != nil {
		t.Errorf("expected lower-case trailer to verify, got %v", err)
	}
}

func mustBuild(t *testing.T, c Charge) string {
	t.Helper()
	payload, err := Build(c)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return payload
}
