package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNotInRoom        = "not_in_room"
	ErrCodeMalformedMessage = "malformed_message"
	ErrCodeBadRequest       = "bad_request"
)

var (
	ErrNotInRoom        = errors.New("not in a room")
	ErrMalformedMessage = errors.New("malformed message")
	ErrBadRequest       = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
