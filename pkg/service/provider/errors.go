package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors for client construction
var (
	ErrConfiguration = goerr.New("invalid memory provider configuration")
	ErrMissingAPIKey = goerr.Wrap(ErrConfiguration, "memory provider API key is required")
	ErrMissingDomain = goerr.Wrap(ErrConfiguration, "memory provider domain name is required")
)

// CodeNetwork is the APIError code for failures where no response was received
const CodeNetwork = 0

const maxErrorMessageLength = 512

// APIError is the normalized shape of every provider failure
type APIError struct {
	Kind    string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == CodeNetwork {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
}

func newNetworkError(err error) *APIError {
	return &APIError{
		Kind:    "network_error",
		Code:    CodeNetwork,
		Message: err.Error(),
	}
}

// newStatusError builds an APIError from a non-2xx response, extracting a
// message from the body on a best-effort basis.
func newStatusError(statusCode int, body []byte) *APIError {
	kind := strings.ToLower(strings.ReplaceAll(http.StatusText(statusCode), " ", "_"))
	if kind == "" {
		kind = "http_error"
	}
	return &APIError{
		Kind:    kind,
		Code:    statusCode,
		Message: extractErrorMessage(body, statusCode),
	}
}

func extractErrorMessage(body []byte, statusCode int) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"message", "error", "detail", "msg"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(statusCode)
	}
	if len(text) > maxErrorMessageLength {
		text = text[:maxErrorMessageLength]
	}
	return text
}

// ErrorCode returns the normalized code carried by err, if any
func ErrorCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}

// IsRetryable reports whether err is worth another attempt. Forbidden and
// not-found point at misconfiguration and are never retried; everything else,
// including errors that carry no code, is treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	code, ok := ErrorCode(err)
	if !ok {
		return true
	}
	switch code {
	case http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return true
	}
}
