package lineage

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound means the repository does not know the root object.
	ErrObjectNotFound = errors.New("object not found")

	// ErrGatewayUnreachable means the repository could not be reached after retries.
	ErrGatewayUnreachable = errors.New("gateway unreachable")

	// ErrMalformedResponse means the dependency payload could not be decoded.
	ErrMalformedResponse = errors.New("malformed dependency response")
)

// Error reports a failed lineage operation. The message names the operation
// and the object; the transport cause is only reachable through errors.Is
// and errors.As.
type Error struct {
	Op       string
	ObjectID string
	Kind     error
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ObjectID, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
