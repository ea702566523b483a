package helper

import (
	"errors"
	"fmt"

	"github.com/spance/openterface-grab/grabber/definitions"
	"github.com/spance/openterface-grab/grabber/framing"
)

var (
	ErrMissingData    = errors.New("response contains no 'data' field")
	ErrMissingContent = errors.New("response 'data' contains no 'content' field")
)

// MalformedJSONError means the bytes read from the server are not one
// valid JSON document, typically because the read phase ended early.
type MalformedJSONError struct {
	Size int
	Err  error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("invalid JSON response (%d bytes): %v", e.Size, e.Err)
}

func (e *MalformedJSONError) Unwrap() error {
	return e.Err
}

// ServerError is a response whose status is not success.
type ServerError struct {
	Type    definitions.ResponseType
	Status  definitions.ResponseStatus
	Message string
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("server error [%s/%s]: %s", e.Type, e.Status, msg)
}

// DecodeError wraps a base64 failure on data.content.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid base64 in 'data.content': %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Stage names the step of a request that produced err.
func Stage(err error) string {
	var (
		connErr   *framing.ConnectionError
		jsonErr   *MalformedJSONError
		serverErr *ServerError
		decodeErr *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &connErr):
		if connErr.Op == "read" {
			return "read"
		}
		return "connect"
	case errors.Is(err, framing.ErrEmptyResponse):
		return "read"
	case errors.As(err, &jsonErr):
		return "parse"
	case errors.As(err, &serverErr):
		return "server"
	case errors.Is(err, ErrMissingData), errors.Is(err, ErrMissingContent):
		return "extract"
	case errors.As(err, &decodeErr):
		return "decode"
	default:
		return "unknown"
	}
}
