// Package dispatch implements the tool dispatch layer:
// it maps the six named MCP tool calls (manage_container,
// query_container, request_transition, get_next_status, get_next_task,
// get_blocked_tasks) to typed operations against the executor, validator,
// and blocking-analyser packages, serializes writes behind the
// per-(entityType, id) lock table, and renders every
// outcome into the uniform response envelope.
package dispatch

// Envelope is the uniform response shape every tool call returns.
type Envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorPayload  `json:"error,omitempty"`
}

// ErrorPayload is the envelope's failure shape.
type ErrorPayload struct {
	Code           string         `json:"code"`
	Details        string         `json:"details"`
	AdditionalData map[string]any `json:"additionalData,omitempty"`
}

// Error codes.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "RESOURCE_NOT_FOUND"
	CodeConflict       = "CONFLICT_ERROR"
	CodeDatabase       = "DATABASE_ERROR"
	CodeOperationFailed = "OPERATION_FAILED"
	CodeInternal       = "INTERNAL_ERROR"
)

func ok(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func fail(code, message, details string) Envelope {
	return Envelope{
		Success: false,
		Message: message,
		Error:   &ErrorPayload{Code: code, Details: details},
	}
}

func failWith(code, message, details string, additional map[string]any) Envelope {
	return Envelope{
		Success: false,
		Message: message,
		Error:   &ErrorPayload{Code: code, Details: details, AdditionalData: additional},
	}
}
