// Package shared centralizes domain error translation to HTTP responses so
// every handler emits the same JSON error envelope.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError maps a domain error onto the registry's numeric taxonomy and
// writes the JSON envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: string(code), Message: message})
}

// WriteJSON writes a success payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
