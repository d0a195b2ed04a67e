// Package types defines the JSON envelopes every HTTP response is wrapped in.
package types

// SuccessEnvelope carries a successful payload under a single data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for transport.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
