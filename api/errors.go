package api

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed classification of everything that can go wrong with
// a backend call. Callers switch on the kind instead of inspecting response
// bodies ad hoc.
type ErrorKind int

const (
	// KindClient: the request could not be built or the response not parsed.
	KindClient ErrorKind = iota
	// KindNetwork: no response was received at all.
	KindNetwork
	// KindServer: the endpoint answered with a non-2xx status not covered by
	// a more specific kind.
	KindServer
	// KindUnauthorized: 401; credentials missing, invalid or expired.
	KindUnauthorized
	// KindChangeRequired: the 403 the user service sends when login is
	// refused until the password is changed.
	KindChangeRequired
	// KindNotFound: 404.
	KindNotFound
	// KindValidation: input rejected locally before any network call.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindUnauthorized:
		return "unauthorized"
	case KindChangeRequired:
		return "change-required"
	case KindNotFound:
		return "not-found"
	case KindValidation:
		return "validation"
	default:
		return "client"
	}
}

// Error is the single error type the transport client produces.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response was received
	Message string // best available message for display
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the classification of err, or KindClient for errors that did
// not come from the transport client.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindClient
}

// IsUnauthorized reports whether err is a 401 classification.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsChangeRequired reports whether err is the password-change-required 403.
func IsChangeRequired(err error) bool { return KindOf(err) == KindChangeRequired }

// IsValidation reports whether err was rejected locally before any call.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a 404 classification.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// ValidationError builds a locally-raised validation failure.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
