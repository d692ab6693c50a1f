package shared

import "errors"

var (
	ErrStreamNotFound = errors.New("stream not found")
	ErrBufferClosed   = errors.New("audio buffer closed")
	ErrConnClosed     = errors.New("connection closed")
)
