// Package protocol implements the VESC short-frame communication protocol
package protocol

// Version represents the govesc library version
const Version = "0.1.0"

// Frame constants for the short-frame variant (payloads up to 255 bytes)
const (
	FrameStartShort = 2 // Start marker for short frames
	FrameEnd        = 3 // End marker

	FrameHeaderSize  = 2 // Start marker + length byte
	FrameTrailerSize = 3 // CRC16 + end marker
	FrameOverhead    = FrameHeaderSize + FrameTrailerSize

	PayloadMax = 255 // Length byte limit
	FrameMax   = PayloadMax + FrameOverhead
)

// CommandID identifies a command or reply payload on the wire.
type CommandID uint8

// Command identifiers are fixed protocol constants.
const (
	IDGetValues          CommandID = 4
	IDSetCurrent         CommandID = 6
	IDSetRPM             CommandID = 8
	IDSetHandbrake       CommandID = 10
	IDForwardCan         CommandID = 34
	IDGetValuesSelective CommandID = 50
)
