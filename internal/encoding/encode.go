// Package encoding converts uploaded image bytes into the base64 payload the
// generation API expects.
package encoding

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrEncoding marks a resource that could not be read or decoded. The attempt
// is terminal; the caller surfaces the message and waits for a fresh action.
var ErrEncoding = errors.New("image could not be read")

// Encode reads r fully and returns a raw base64 payload (no data-URI prefix)
// plus the media type to send alongside it. declaredType wins when it claims
// to be an image; anything else falls back to content sniffing.
func Encode(r io.Reader, declaredType string) (payload string, mediaType string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty resource", ErrEncoding)
	}

	mediaType = strings.TrimSpace(declaredType)
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = sniff(data)
	}

	return base64.StdEncoding.EncodeToString(data), mediaType, nil
}

// DecodeDataURI splits a data:image/...;base64,... string into its raw
// base64 payload and media type. Plain base64 strings pass through with an
// empty media type so the caller can decide a default.
func DecodeDataURI(s string) (payload string, mediaType string, err error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		if _, err := base64.StdEncoding.DecodeString(s); err != nil {
			return "", "", fmt.Errorf("%w: not base64 data", ErrEncoding)
		}
		return s, "", nil
	}

	rest := strings.TrimPrefix(s, "data:")
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("%w: malformed data URI", ErrEncoding)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", "", fmt.Errorf("%w: data URI is not base64 encoded", ErrEncoding)
	}
	mediaType = strings.TrimSuffix(meta, ";base64")

	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return "", "", fmt.Errorf("%w: invalid base64 in data URI", ErrEncoding)
	}
	return data, mediaType, nil
}

func sniff(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}
