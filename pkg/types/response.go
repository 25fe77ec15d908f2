package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// BackendEnvelope is the wire shape the platform backend answers with.
// Business failures arrive as success=false plus a human-readable message
// that is surfaced to the user verbatim.
type BackendEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
