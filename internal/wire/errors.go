// Package wire implements the length-prefixed binary framing shared by the
// reliable and datagram channels, plus the fixed-width records and
// per-message-type codecs carried inside those frames.
package wire

import "errors"

var (
	// ErrMalformedHeader is returned when fewer than HeaderLen bytes are
	// available to decode a frame header.
	ErrMalformedHeader = errors.New("wire: malformed header")
	// ErrLengthMismatch is returned when a frame header's declared length
	// disagrees with the payload bytes actually available.
	ErrLengthMismatch = errors.New("wire: length mismatch")
	// ErrUnknownType is returned when a frame's type byte is not one of the
	// enumerated message types for its channel.
	ErrUnknownType = errors.New("wire: unknown message type")

	// ErrBufferTooSmall is returned by a payload decoder when the supplied
	// slice is shorter than the fixed layout it expects.
	ErrBufferTooSmall = errors.New("wire: buffer too small")
	// ErrInvalidMessage is returned by a payload decoder when a fixed field
	// fails a basic sanity check (e.g. a declared name length that doesn't
	// fit the record).
	ErrInvalidMessage = errors.New("wire: invalid message")
)
