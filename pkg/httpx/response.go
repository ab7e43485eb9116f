package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Envelope is the wrapper every successful API response is sent in.
type Envelope struct {
	Success   bool            `json:"success"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// ErrorBody is the shape of API error responses. Message may arrive as a
// single string or as a list of validation messages.
type ErrorBody struct {
	StatusCode int      `json:"statusCode"`
	Message    Messages `json:"message"`
	Error      string   `json:"error,omitempty"`
}

// Messages decodes either a JSON string or an array of strings.
type Messages []string

func (m *Messages) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = nil
		return nil
	}
	if b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*m = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = Messages{s}
	return nil
}

func (m Messages) String() string { return strings.Join(m, "; ") }

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps v in the success envelope.
func WriteData(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	WriteJSON(w, code, Envelope{
		Success:   true,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// WriteError writes an error body for code.
func WriteError(w http.ResponseWriter, code int, msg ...string) {
	WriteJSON(w, code, ErrorBody{
		StatusCode: code,
		Message:    msg,
		Error:      http.StatusText(code),
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// DecodeData decodes body into out, unwrapping the success envelope when the
// body carries one. Bodies without an envelope are decoded as-is.
func DecodeData(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var wrapped struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Success != nil && wrapped.Data != nil {
		body = wrapped.Data
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
