package dedupe

import "errors"

// ErrEmptyKeyInputs is returned by StrictKey when every key component is empty.
var ErrEmptyKeyInputs = errors.New("all dedup key inputs are empty")
