package encoding

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("handle revoked")
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name         string
		data         []byte
		declaredType string
		wantType     string
	}{
		{
			name:         "declared image type wins",
			data:         []byte("raw bytes"),
			declaredType: "image/webp",
			wantType:     "image/webp",
		},
		{
			name:         "declared type parameters stripped",
			data:         []byte("raw bytes"),
			declaredType: "image/jpeg; charset=binary",
			wantType:     "image/jpeg",
		},
		{
			name:         "non-image declared type falls back to sniffing",
			data:         pngHeader,
			declaredType: "application/octet-stream",
			wantType:     "image/png",
		},
		{
			name:     "missing declared type sniffs",
			data:     pngHeader,
			wantType: "image/png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, mediaType, err := Encode(bytes.NewReader(tt.data), tt.declaredType)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if mediaType != tt.wantType {
				t.Errorf("Expected media type %s, got %s", tt.wantType, mediaType)
			}
			if strings.HasPrefix(payload, "data:") {
				t.Error("Payload must not carry a data-URI prefix")
			}
			decoded, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				t.Fatalf("Payload is not valid base64: %v", err)
			}
			if !bytes.Equal(decoded, tt.data) {
				t.Error("Payload does not round-trip to the input bytes")
			}
		})
	}
}

func TestEncodeFailures(t *testing.T) {
	if _, _, err := Encode(failingReader{}, "image/png"); !errors.Is(err, ErrEncoding) {
		t.Errorf("Expected ErrEncoding for an unreadable resource, got %v", err)
	}
	if _, _, err := Encode(bytes.NewReader(nil), "image/png"); !errors.Is(err, ErrEncoding) {
		t.Errorf("Expected ErrEncoding for an empty resource, got %v", err)
	}
}

func TestDecodeDataURI(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("image bytes"))

	tests := []struct {
		name        string
		input       string
		wantPayload string
		wantType    string
		wantErr     bool
	}{
		{
			name:        "data URI",
			input:       "data:image/png;base64," + raw,
			wantPayload: raw,
			wantType:    "image/png",
		},
		{
			name:        "bare base64 passes through",
			input:       raw,
			wantPayload: raw,
			wantType:    "",
		},
		{
			name:    "non-base64 data URI rejected",
			input:   "data:image/png,plain",
			wantErr: true,
		},
		{
			name:    "garbage rejected",
			input:   "not base64 at all!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, mediaType, err := DecodeDataURI(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrEncoding) {
					t.Errorf("Expected ErrEncoding, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if payload != tt.wantPayload {
				t.Errorf("Expected payload %q, got %q", tt.wantPayload, payload)
			}
			if mediaType != tt.wantType {
				t.Errorf("Expected media type %q, got %q", tt.wantType, mediaType)
			}
		})
	}
}
