package funding

import "errors"

// ErrNegativeAmount is returned by Validate for a negative funding amount.
var ErrNegativeAmount = errors.New("negative funding amount")
