package queue

import (
	"errors"
	"fmt"
)

var (
	ErrClosed   = errors.New("queue store closed")
	ErrNotFound = errors.New("queue entry not found")
)

// QueueFullError rejects an enqueue without mutating the store.
type QueueFullError struct {
	Pending int
	Max     int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("queue is full (%d/%d pending); try again after the next batch run", e.Pending, e.Max)
}

// ValidationError rejects a malformed request before it reaches the queue.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid request: " + e.Reason }

func IsQueueFull(err error) bool {
	var qf *QueueFullError
	return errors.As(err, &qf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
