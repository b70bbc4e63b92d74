package respond

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/hongminglow/lapse-be/internal/logger"
)

// Fields are payload entries merged into the envelope next to success and message.
type Fields map[string]any

// Envelope is the standard API response wrapper used across handlers:
// {"success": bool, "message": "...", <fields>}.
type Envelope map[string]any

// JSON writes a success response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, fields Fields) {
	write(w, status, build(true, message, fields))
}

// Error writes a failure response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, build(false, message, nil))
}

func build(success bool, message string, fields Fields) Envelope {
	env := make(Envelope, len(fields)+2)
	for k, v := range fields {
		env[k] = v
	}
	env["success"] = success
	if message != "" {
		env["message"] = message
	}
	return env
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warningf("respond: encode payload failed: %v", err)
	}
}
