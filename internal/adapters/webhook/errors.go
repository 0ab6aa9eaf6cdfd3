package webhook

import "errors"

var (
	// ErrNotConfigured is returned when the target webhook URL is empty.
	ErrNotConfigured = errors.New("webhook not configured")
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected webhook status")
	// ErrWorkflowFailed is returned when the workflow answers with success=false.
	ErrWorkflowFailed = errors.New("workflow failed")
)
