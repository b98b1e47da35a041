// Package response holds the JSON helpers shared by every handler package.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/rs/zerolog"
)

// JSON writes a JSON response with the given status
func JSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// Error writes an error response, mapping domain error codes to HTTP status.
// Validation failures are the caller's fault, missing resources are 404,
// invariant violations are conflicts, and upstream outages are 502; anything
// unrecognized is a 500 with the detail kept out of the body.
func Error(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	code := domain.CodeOf(err)
	switch code {
	case domain.ErrCodeValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case domain.ErrCodeNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case domain.ErrCodeInsufficientFunds, domain.ErrCodeStateConflict:
		status = http.StatusConflict
		message = err.Error()
	case domain.ErrCodeExternalUnavailable:
		status = http.StatusBadGateway
		message = err.Error()
	default:
		log.Error().Err(err).Msg("Unhandled error in request")
	}

	body := map[string]interface{}{"error": message}
	if code != "" {
		body["code"] = string(code)
	}

	JSON(w, log, status, body)
}
