package framing

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyResponse = errors.New("framing: server returned an empty response")
	ErrEmptyCommand  = errors.New("framing: command must not be empty")
)

// ConnectionError is a transport fault: refused, unreachable, reset, or a
// failed write. It never wraps a parse or content problem.
type ConnectionError struct {
	Op   string // dial, write, read
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("framing: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
