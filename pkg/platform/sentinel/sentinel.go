package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and extraction backends return
// these (optionally wrapped) so services can translate them into domain errors.
//
// - ErrNotFound: record does not exist in the store
// - ErrUnavailable: backing service temporarily unreachable
// - ErrMalformed: backend answered with a payload we cannot interpret
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrMalformed   = errors.New("malformed response")
)
