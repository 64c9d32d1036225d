package httpapi

import (
	"errors"
	"net/http"

	"github.com/book-expert/voice-service/internal/speech"
	"github.com/book-expert/voice-service/internal/voice"
)

// StatusFor maps a service error to its HTTP status code. Timeouts and a
// service that is not ready yet are retryable and become 503; everything not
// caused by the request itself is a 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, speech.ErrEmptyInput), errors.Is(err, voice.ErrEmptyUpload):
		return http.StatusBadRequest
	case errors.Is(err, speech.ErrSynthesisTimeout),
		errors.Is(err, speech.ErrNotReady),
		errors.Is(err, voice.ErrConversionTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
