// Package models - API response types.
//
// Response Design Principles:
// - /bindings keeps the platform's wire format exactly (name, binding_info)
// - Framework errors (405, recovered panics) use a consistent JSON envelope
// - RFC3339 timestamps
package models

import (
	"time"
)

// ErrorResponse is returned for framework-level failures such as a wrong
// method or a recovered panic. Projection failures are plain text instead.
type ErrorResponse struct {
	Error     string    `json:"error"`                // Error type (always "error")
	Message   string    `json:"message"`              // Human-readable error description
	Code      string    `json:"code,omitempty"`       // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`            // Error occurrence time
	RequestID string    `json:"request_id,omitempty"` // Unique request identifier
}

// VersionResponse reports the build metadata of the running workload.
type VersionResponse struct {
	Version    string `json:"version"`
	SemVer     string `json:"semver,omitempty"`
	Prerelease bool   `json:"prerelease"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
	AppName    string `json:"app_name,omitempty"`
}

// Standard HTTP Error Codes
const (
	ErrorCodeNotFound         = "NOT_FOUND"          // 404: Route doesn't exist
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405: Wrong method on a known route
	ErrorCodeInternalError    = "INTERNAL_ERROR"     // 500: Server-side error
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}
