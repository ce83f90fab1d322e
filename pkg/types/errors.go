// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error classes for an extraction run. Callers wrap one of these with %w
// and match with errors.Is.
var (
	// ErrConfiguration reports a missing credential or an invalid setting.
	ErrConfiguration = errors.New("configuration error")

	// ErrInput reports a missing, unreadable, or unhandled input file.
	ErrInput = errors.New("input error")

	// ErrExternalService reports a failure returned by the parsing service.
	ErrExternalService = errors.New("external service error")
)
