package libhttp

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxErrorMessageLength = 2048

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("failed to get successful response: status_code: %d, message: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newHTTPError(statusCode int, status string, body []byte) *HTTPError {
	var message string
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && (eb.Message != "" || eb.Error != "") {
		message = eb.Message
		if message == "" {
			message = eb.Error
		}
	} else {
		message = string(body)
	}

	message = strings.TrimSpace(filterASCII(message))
	if len(message) > maxErrorMessageLength {
		message = message[:maxErrorMessageLength]
	}

	return &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		Message:    message,
		Body:       body,
	}
}

// filterASCII keeps printable ASCII only, server-provided text ends up in logs.
func filterASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	return b.String()
}
