// Package ferrors defines the error kinds the core must distinguish from
// one another, independent of how any particular caller chooses to log or
// surface them.
package ferrors

import "fmt"

// Kind tags a Fisher error with one of the taxonomy entries the core cares
// about. Most callers only need to know whether an error IsKind(X); the
// wrapped message carries the human-readable detail.
type Kind int

const (
	KindUnknown Kind = iota
	KindProviderNotFound
	KindScriptParsingError
	KindInvalidInput
	KindWrongRequestKind
	KindNotBehindProxy
	KindBrokenChannel
	KindPoisonedLock
)

func (k Kind) String() string {
	switch k {
	case KindProviderNotFound:
		return "provider not found"
	case KindScriptParsingError:
		return "script parsing error"
	case KindInvalidInput:
		return "invalid input"
	case KindWrongRequestKind:
		return "wrong request kind"
	case KindNotBehindProxy:
		return "not behind enough proxies"
	case KindBrokenChannel:
		return "broken channel"
	case KindPoisonedLock:
		return "poisoned lock"
	default:
		return "unknown error"
	}
}

// Error wraps a Kind with context and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, k Kind) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok {
			if fe.Kind == k {
				return true
			}
			err = fe.Cause
			continue
		}
		return false
	}
	return false
}

func New(k Kind, message string) *Error {
	return &Error{Kind: k, Message: message}
}

func Wrap(k Kind, message string, cause error) *Error {
	return &Error{Kind: k, Message: message, Cause: cause}
}

// ProviderNotFound reports that a script references an unknown provider name.
func ProviderNotFound(name string) *Error {
	return New(KindProviderNotFound, fmt.Sprintf("unknown provider: %s", name))
}

// ScriptParsingError wraps a provider-construction failure with its source
// location, matching the canonical source's (file, line) pairing.
func ScriptParsingError(file string, line int, cause error) *Error {
	return Wrap(KindScriptParsingError,
		fmt.Sprintf("parsing of script %q failed at line %d", file, line), cause)
}

func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message)
}

func WrongRequestKind() *Error {
	return New(KindWrongRequestKind, "provider received a request shape it does not handle")
}

func NotBehindProxy() *Error {
	return New(KindNotBehindProxy, "request did not traverse the expected number of proxies")
}

func BrokenChannel() *Error {
	return New(KindBrokenChannel, "an internal communication channel is broken")
}

func PoisonedLock() *Error {
	return New(KindPoisonedLock, "an internal lock is poisoned")
}
