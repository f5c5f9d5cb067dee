package overdns

import (
	"fmt"
	"strings"
)

// ErrorType is type of Error.
type ErrorType uint8

const (
	// TypeInternalError is a error for overdns internal error.
	TypeInternalError ErrorType = iota + 1

	// TypeMalformedMessage is a error for a broken or unsupported query.
	TypeMalformedMessage

	// TypeStoreUnavailable is a error for an unreachable override store.
	TypeStoreUnavailable

	// TypeUpstreamFailure is a error for a timed out or broken upstream exchange.
	TypeUpstreamFailure

	// TypePersistenceFailure is a error for a failed cache snapshot read or write.
	TypePersistenceFailure
)

// String is converter to human readable string.
func (t ErrorType) String() string {
	switch t {
	case TypeInternalError:
		return "InternalError"
	case TypeMalformedMessage:
		return "MalformedMessage"
	case TypeStoreUnavailable:
		return "StoreUnavailable"
	case TypeUpstreamFailure:
		return "UpstreamFailure"
	case TypePersistenceFailure:
		return "PersistenceFailure"
	default:
		return "UnknownError"
	}
}

// Error is error type of overdns.
type Error struct {
	Type     ErrorType
	Original error
	Message  string
}

// NewError is make new Error by format string.
func NewError(typ ErrorType, original error, format string, args ...interface{}) Error {
	return Error{
		Type:     typ,
		Message:  fmt.Sprintf(format, args...),
		Original: original,
	}
}

// Error is converter to human readable string.
func (e Error) Error() string {
	if e.Original == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Original.Error())
}

// Unwrap is getter of original error.
func (e Error) Unwrap() error {
	return e.Original
}

// ErrorSet is list of errors.
type ErrorSet []error

// Error is getter for description string.
func (e ErrorSet) Error() string {
	xs := make([]string, len(e))
	for i, x := range e {
		xs[i] = x.Error()
	}
	return strings.Join(xs, "\n")
}
