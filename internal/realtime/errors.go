package realtime

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidFrame    = errors.New("invalid frame format")
	ErrNotInRoom       = errors.New("connection is not in the room")
)
