package handlers

import (
	"encoding/json"
	"net/http"

	"rt-chat-backend/internal/apierror"

	"github.com/rs/zerolog/log"
)

// Envelope is the uniform success response shape.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
}

// errorEnvelope is the uniform failure response shape.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// respond writes a success envelope
func respond(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Envelope{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	})
}

// respondError is the single place errors become HTTP responses. Internal
// causes are logged here and never reach the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierror.From(err)

	if apiErr.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	json.NewEncoder(w).Encode(errorEnvelope{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
	})
}

// decodeJSON decodes a request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.Wrap(http.StatusBadRequest, "invalid request body", err)
	}
	return nil
}
