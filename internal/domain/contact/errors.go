package contact

import "errors"

var (
	// ErrNoDomain means a manual tag has no email domain to attach to.
	ErrNoDomain = errors.New("no consultant email domain")
	// ErrUnknownRole is returned for a contact role other than primary or mail.
	ErrUnknownRole = errors.New("unknown contact role")
)
