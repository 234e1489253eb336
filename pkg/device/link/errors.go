package link

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameTooLong indicates the frame payload exceeds MaxDataLen.
	ErrFrameTooLong = errors.New("frame too long")
	// ErrNotReady indicates the link has not completed the sync handshake.
	ErrNotReady = errors.New("link not ready")
	// ErrNoReply indicates no reply was received for a command.
	// This happens when a reply arrives for a later command, which
	// fails all commands queued before it.
	ErrNoReply = errors.New("no reply")
)

// ReplyError wraps an error code carried in a reply frame.
type ReplyError struct {
	Code byte
}

// Error implements error.
func (e *ReplyError) Error() string {
	return fmt.Sprintf("reply error %d", e.Code)
}
