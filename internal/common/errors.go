package common

import "errors"

// ErrMissingCredential indicates a required API key is absent. Fatal for the
// operation that needed it; a run aborts immediately.
var ErrMissingCredential = errors.New("required API credential is missing")
