package protocol

// Command is an outbound instruction to the motor controller. A Command
// value is immutable once constructed; encoding never mutates it.
type Command interface {
	// packPayload writes the command identifier followed by the command
	// fields in wire order.
	packPayload(p *Packer) error
}

// GetValues requests the complete telemetry record.
type GetValues struct{}

// SetCurrent sets the motor current in amperes. Positive values drive
// forward, negative values drive reverse.
type SetCurrent struct {
	Current float32
}

// SetRPM sets the motor speed in revolutions per minute. Positive values
// drive forward, negative values drive reverse.
type SetRPM struct {
	RPM int32
}

// SetHandbrake applies a braking current in amperes to hold the motor
// in place.
type SetHandbrake struct {
	Current float32
}

// ForwardCan forwards a command to another controller on the CAN bus.
// The inner command's identifier and fields become part of this command's
// payload; there is exactly one frame, not a nested one. Nesting depth is
// bounded only by output buffer capacity.
type ForwardCan struct {
	ControllerID uint8
	Command      Command
}

// GetValuesSelective requests only the telemetry field groups named by
// the mask, reducing link overhead compared to GetValues.
type GetValuesSelective struct {
	Mask ValuesMask
}

func (GetValues) packPayload(p *Packer) error {
	return p.PackU8(uint8(IDGetValues))
}

func (c SetCurrent) packPayload(p *Packer) error {
	if err := p.PackU8(uint8(IDSetCurrent)); err != nil {
		return err
	}
	return p.PackF32(c.Current, 1000)
}

func (c SetRPM) packPayload(p *Packer) error {
	if err := p.PackU8(uint8(IDSetRPM)); err != nil {
		return err
	}
	return p.PackI32(c.RPM)
}

func (c SetHandbrake) packPayload(p *Packer) error {
	if err := p.PackU8(uint8(IDSetHandbrake)); err != nil {
		return err
	}
	return p.PackF32(c.Current, 1000)
}

func (c ForwardCan) packPayload(p *Packer) error {
	if err := p.PackU8(uint8(IDForwardCan)); err != nil {
		return err
	}
	if err := p.PackU8(c.ControllerID); err != nil {
		return err
	}
	return c.Command.packPayload(p)
}

func (c GetValuesSelective) packPayload(p *Packer) error {
	if err := p.PackU8(uint8(IDGetValuesSelective)); err != nil {
		return err
	}
	return p.PackU32(uint32(c.Mask))
}

// Encode writes cmd as a complete short frame into buf and returns the
// number of bytes written. The frame is start marker, payload length,
// payload (command id plus fields), big-endian CRC16 over the payload,
// and end marker. Fails with ErrBufferTooSmall if buf cannot hold the
// frame; bytes already written to buf are not a usable frame.
func Encode(cmd Command, buf []byte) (int, error) {
	p := NewPacker(buf)
	if err := p.PackU8(FrameStartShort); err != nil {
		return 0, err
	}
	// Length placeholder, patched once the payload size is known.
	if err := p.PackU8(0); err != nil {
		return 0, err
	}
	if err := cmd.packPayload(p); err != nil {
		return 0, err
	}
	payloadLen := p.Pos() - FrameHeaderSize
	p.Update(1, uint8(payloadLen))
	if err := p.PackU16(CRC16(buf[FrameHeaderSize : FrameHeaderSize+payloadLen])); err != nil {
		return 0, err
	}
	if err := p.PackU8(FrameEnd); err != nil {
		return 0, err
	}
	return p.Pos(), nil
}
