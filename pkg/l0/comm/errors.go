package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMessageType indicates the code is not in the catalog.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrInvalidCode indicates the code is not registered for the requested role.
	ErrInvalidCode = errors.New("invalid code")
	// ErrWrongRole indicates a frame is used in the opposite direction.
	ErrWrongRole = errors.New("wrong role")
	// ErrLengthMismatch indicates the length disagrees with the catalog.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrDiscriminator indicates raw bytes carry a header or code of
	// another message type.
	ErrDiscriminator = errors.New("discriminator mismatch")
	// ErrChecksum indicates the checksum of received bytes is wrong.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrAlreadySet indicates the payload of a frame has been set.
	ErrAlreadySet = errors.New("already set")
	// ErrNotSet indicates the payload of a frame is not set yet.
	ErrNotSet = errors.New("not set")
	// ErrNoSlot indicates no response of the code has ever arrived.
	ErrNoSlot = errors.New("no slot")
	// ErrEmpty indicates no response of the code is pending.
	ErrEmpty = errors.New("empty")
	// ErrNotReady indicates the link is not open.
	ErrNotReady = errors.New("not ready")
	// ErrShortWrite indicates the transport accepted fewer bytes than the frame.
	ErrShortWrite = errors.New("short write")
	// ErrLinkLost indicates the transport read returned no data without timeout.
	ErrLinkLost = errors.New("link lost")
	// ErrRefused indicates the command is not allowed by configuration.
	ErrRefused = errors.New("refused")
	// ErrReleased indicates the frame storage has been released.
	ErrReleased = errors.New("released")
)

// TransportError wraps errors from the underlying transport.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
