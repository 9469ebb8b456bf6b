package native

import (
	"errors"
	"fmt"

	"github.com/example/pwabridge/internal/protocol"
)

// ErrUnavailable reports that the connector could not be reached or
// disconnected before replying.
var ErrUnavailable = errors.New("native connector unavailable")

// Error is a business error reported by the connector.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "native connector error: " + e.Message
}

// ProtocolMismatchError reports a response whose type differs from the one
// the command expects. Actual is empty when the payload carried no type.
type ProtocolMismatchError struct {
	Command  protocol.CommandName
	Expected protocol.ResponseType
	Actual   protocol.ResponseType
	Err      error
}

func (e *ProtocolMismatchError) Error() string {
	actual := string(e.Actual)
	if actual == "" {
		actual = "<none>"
	}
	msg := fmt.Sprintf("received invalid response type %s for %s (want %s)", actual, e.Command, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolMismatchError) Unwrap() error {
	return e.Err
}
