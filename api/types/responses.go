package types

// Response envelopes follow the ok/error wire shape clients of the
// original service already speak.

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	OK      bool        `json:"ok"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// OKResponse is the bare success envelope for operations with no payload
type OKResponse struct {
	OK bool `json:"ok"`
}
