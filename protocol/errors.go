package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooSmall indicates the output buffer cannot hold the
	// encoded frame. Retry with a larger buffer; nothing already written
	// to it is a usable frame.
	ErrBufferTooSmall = errors.New("protocol: output buffer too small")

	// ErrIncompleteData indicates the input buffer ends before the frame
	// being parsed does. The caller should accumulate more transport data
	// and retry.
	ErrIncompleteData = errors.New("protocol: incomplete frame data")

	// ErrInvalidFrame indicates a start or end marker mismatch. The
	// buffer is misaligned; the transport layer should resynchronize on
	// the next start marker.
	ErrInvalidFrame = errors.New("protocol: invalid frame marker")
)

// ChecksumError reports a CRC mismatch on a structurally valid frame.
// The frame should be discarded as transmission corruption.
type ChecksumError struct {
	Expected uint16 // CRC carried by the frame
	Actual   uint16 // CRC computed over the payload
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("protocol: checksum mismatch: expected 0x%04X, actual 0x%04X", e.Expected, e.Actual)
}

// UnknownPacketError reports a well-formed frame carrying a command
// identifier this codec does not recognize. Callers should log and
// discard it; future protocol revisions may add identifiers.
type UnknownPacketError struct {
	ID uint8
}

func (e *UnknownPacketError) Error() string {
	return fmt.Sprintf("protocol: unrecognized or unsupported packet: %d", e.ID)
}
