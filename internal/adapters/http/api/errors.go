package api

import (
	"errors"
	"net/http"

	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/internal/adapters/usac"
	"github.com/okian/outreach/internal/adapters/webhook"
	service "github.com/okian/outreach/internal/app"
	"github.com/okian/outreach/internal/domain/contact"
	"github.com/okian/outreach/internal/domain/dedupe"
	"github.com/okian/outreach/internal/domain/funding"
	"github.com/okian/outreach/internal/domain/grouping"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("service unavailable")
	ErrUpstream     = errors.New("upstream failure")
)

// Error ties a failure to the handler operation that saw it and, optionally,
// to one of the sentinel kinds above.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap annotates err with the operation name.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with the operation name and an API error kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case isAny(err, ErrBadRequest, dedupe.ErrEmptyKeyInputs, funding.ErrNegativeAmount,
		service.ErrInvalidStatus, service.ErrEmptyNote, service.ErrInvalidRange,
		contact.ErrNoDomain, contact.ErrUnknownRole, usac.ErrInvalidRange,
		grouping.ErrNoName, grouping.ErrTooFewMembers, grouping.ErrPrimaryNotMember, grouping.ErrDuplicateMember):
		return http.StatusBadRequest, "bad_request"
	case isAny(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case isAny(err, repository.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case isAny(err, ErrBackpressure, service.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case isAny(err, service.ErrNotConfigured, webhook.ErrNotConfigured, usac.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not_configured"
	case isAny(err, ErrUnavailable, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case isAny(err, ErrUpstream, webhook.ErrWorkflowFailed, webhook.ErrUnexpectedStatus, usac.ErrUnexpectedStatus):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
