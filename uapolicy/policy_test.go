package uapolicy

import (
	"testing"

	"github.com/pascaldekloe/goe/verify"
)

func TestByURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    *Policy
		wantErr bool
	}{
		{"http://opcfoundation.org/UA/SecurityPolicy#None", None, false},
		{"http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256", Basic256Sha256, false},
		{"http://opcfoundation.org/UA/SecurityPolicy#Unknown", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := ByURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ByURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if err == nil {
				verify.Values(t, "policy", got, tt.want)
			}
		})
	}
}

func TestIsNone(t *testing.T) {
	if !None.IsNone() {
		t.Fatal("None.IsNone() = false, want true")
	}
	if Basic256.IsNone() {
		t.Fatal("Basic256.IsNone() = true, want false")
	}
}

func TestPkcs7PadUnpad(t *testing.T) {
	tests := []struct {
		dataLen, reserve int
	}{
		{0, 20}, {1, 20}, {15, 0}, {16, 0}, {17, 32}, {100, 32},
	}
	for _, tt := range tests {
		pad := Basic256Sha256.pkcs7Pad(tt.dataLen, tt.reserve)
		total := tt.dataLen + len(pad) + tt.reserve
		if total%Basic256Sha256.SymBlockSize != 0 {
			t.Fatalf("pkcs7Pad(%d, %d): total %d is not a block multiple", tt.dataLen, tt.reserve, total)
		}
		data := make([]byte, tt.dataLen)
		padded := append(data, pad...)
		got, err := Basic256Sha256.pkcs7Unpad(padded)
		if err != nil {
			t.Fatalf("pkcs7Unpad failed: %v", err)
		}
		if len(got) != tt.dataLen {
			t.Fatalf("pkcs7Unpad: got length %d, want %d", len(got), tt.dataLen)
		}
	}
}

func TestStripPaddingNonePolicyIsNoop(t *testing.T) {
	b := []byte{1, 2, 3}
	got, err := None.StripPadding(b)
	if err != nil {
		t.Fatalf("StripPadding failed: %v", err)
	}
	verify.Values(t, "stripped", got, b)
}
