package gemini

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// credentialMarkers are substrings the Gemini API uses when a request fails
// for auth-relevant reasons rather than generation-relevant ones.
var credentialMarkers = []string{
	"api key",
	"api_key_invalid",
	"permission_denied",
	"unauthenticated",
	"quota",
	"resource_exhausted",
}

// classify folds a remote error into the gateway taxonomy: anything that
// looks auth-related becomes ErrCredentialRejected, the rest becomes
// ErrGenerationFailed.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 || apiErr.Code == 429 {
			return fmt.Errorf("%w: %v", ErrCredentialRejected, err)
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrCredentialRejected, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
}
