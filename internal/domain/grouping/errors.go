package grouping

import "errors"

var (
	ErrNoName           = errors.New("group name is required")
	ErrTooFewMembers    = errors.New("a group needs at least two filings")
	ErrPrimaryNotMember = errors.New("primary filing must be a group member")
	ErrDuplicateMember  = errors.New("filing listed twice in group")
)
