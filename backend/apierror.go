package backend

import (
	"encoding/json"
	"sort"

	"github.com/itchub/edu-dashboard/internal/utils"
)

// FallbackErrorMessage is used when an error body carries nothing readable
const FallbackErrorMessage = "Something went wrong. Please try again."

// APIError is a business-logic failure (4xx other than 401, or a 500 the
// caller chose to surface). Message is always human-readable; Fields keeps
// the raw error body for callers that want per-field details.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]any
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds an APIError with an explicit message
func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// ParseAPIError extracts a human-readable message from a Django-style error
// body. Precedence: a "detail" field, else the first entry of
// "non_field_errors", else the first value of the first field-error key
// (keys sorted for determinism), else the generic fallback.
func ParseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: FallbackErrorMessage}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return apiErr
	}
	apiErr.Fields = fields

	if detail, ok := fields["detail"].(string); ok && detail != "" {
		apiErr.Message = detail
		return apiErr
	}

	if rawErrors, ok := fields["non_field_errors"].([]any); ok {
		if messages := utils.ToStringSlice(rawErrors); len(messages) > 0 {
			apiErr.Message = messages[0]
			return apiErr
		}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "non_field_errors" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if message := firstMessage(fields[key]); message != "" {
			apiErr.Message = message
			return apiErr
		}
	}
	return apiErr
}

// firstMessage pulls the first string out of a field-error value, which the
// API serializes either as a bare string or a list of strings
func firstMessage(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		if messages := utils.ToStringSlice(v); len(messages) > 0 {
			return messages[0]
		}
	}
	return ""
}
