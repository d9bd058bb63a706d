package oscar

import (
	"errors"
	"fmt"
)

// ErrTimeout reports that no matching frame or envelope arrived within the
// deadline. It is never retried internally; callers decide whether to try
// again.
var ErrTimeout = errors.New("timed out waiting for server")

// ErrConnectionClosed reports that the peer closed the connection while a
// read was in progress. Fatal for the current attempt.
var ErrConnectionClosed = errors.New("connection closed by server")

// AuthRejectedError is a server-reported credential failure. It is an
// expected outcome, not a bug: the decoded message is surfaced verbatim.
type AuthRejectedError struct {
	Code    uint16
	Message string
}

func (e *AuthRejectedError) Error() string {
	return e.Message
}

// ProtocolViolationError reports a reply missing a field this engine
// requires, e.g. an absent auth key or redirect address. Distinct from
// AuthRejectedError: it indicates an unexpected server variant, not wrong
// credentials.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return e.Reason
}

func protocolViolation(format string, args ...interface{}) error {
	return &ProtocolViolationError{Reason: fmt.Sprintf(format, args...)}
}
