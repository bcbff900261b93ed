package protocol

// CommandReply is an inbound message from the motor controller,
// discriminated by the command identifier that produced it.
type CommandReply interface {
	commandReply()
}

// GetValuesReply carries the complete telemetry record answering a
// GetValues command.
type GetValuesReply struct {
	Values Values
}

// GetValuesSelectiveReply carries a partially populated telemetry record
// answering a GetValuesSelective command. Mask names the fields that were
// actually decoded; all other fields of Values hold their zero default,
// which is indistinguishable from a reported zero without the mask.
type GetValuesSelectiveReply struct {
	Mask   ValuesMask
	Values Values
}

func (GetValuesReply) commandReply()          {}
func (GetValuesSelectiveReply) commandReply() {}

// Decode parses one complete short frame from buf and returns the number
// of bytes consumed together with the typed reply.
//
// The declared payload length is used only to locate the checksum region;
// the bytes consumed are driven by the identified command's field layout.
// The checked range is the trailing payload-length bytes of the consumed
// payload, matching controller firmware behavior for frames whose
// declared length disagrees with the field layout.
func Decode(buf []byte) (int, CommandReply, error) {
	u := NewUnpacker(buf)

	start, err := u.UnpackU8()
	if err != nil {
		return 0, nil, err
	}
	if start != FrameStartShort {
		return 0, nil, ErrInvalidFrame
	}
	payloadLen, err := u.UnpackU8()
	if err != nil {
		return 0, nil, err
	}

	reply, err := unpackReply(u)
	if err != nil {
		return 0, nil, err
	}

	payloadEnd := u.Pos()
	payloadStart := payloadEnd - int(payloadLen)
	if payloadStart < 0 {
		return 0, nil, ErrInvalidFrame
	}
	checksum, err := u.UnpackU16()
	if err != nil {
		return 0, nil, err
	}
	if actual := CRC16(buf[payloadStart:payloadEnd]); actual != checksum {
		return 0, nil, &ChecksumError{Expected: checksum, Actual: actual}
	}

	end, err := u.UnpackU8()
	if err != nil {
		return 0, nil, err
	}
	if end != FrameEnd {
		return 0, nil, ErrInvalidFrame
	}
	return u.Pos(), reply, nil
}

func unpackReply(u *Unpacker) (CommandReply, error) {
	id, err := u.UnpackU8()
	if err != nil {
		return nil, err
	}
	switch CommandID(id) {
	case IDGetValues:
		return unpackGetValues(u)
	case IDGetValuesSelective:
		return unpackGetValuesSelective(u)
	default:
		return nil, &UnknownPacketError{ID: id}
	}
}

// fieldReaders decodes the Values fields in wire order. Each entry is
// gated by one mask bit; a full GetValues reply reads every entry
// unconditionally. The temp_mosfet_all entry reads the three per-MOSFET
// temperatures as a single group.
var fieldReaders = []struct {
	bit  ValuesMask
	read func(u *Unpacker, v *Values) error
}{
	{MaskTempMosfet, func(u *Unpacker, v *Values) (err error) {
		v.TempMosfet, err = u.UnpackF16(10)
		return
	}},
	{MaskTempMotor, func(u *Unpacker, v *Values) (err error) {
		v.TempMotor, err = u.UnpackF16(10)
		return
	}},
	{MaskAvgCurrentMotor, func(u *Unpacker, v *Values) (err error) {
		v.AvgCurrentMotor, err = u.UnpackF32(100)
		return
	}},
	{MaskAvgCurrentInput, func(u *Unpacker, v *Values) (err error) {
		v.AvgCurrentInput, err = u.UnpackF32(100)
		return
	}},
	{MaskAvgCurrentD, func(u *Unpacker, v *Values) (err error) {
		v.AvgCurrentD, err = u.UnpackF32(100)
		return
	}},
	{MaskAvgCurrentQ, func(u *Unpacker, v *Values) (err error) {
		v.AvgCurrentQ, err = u.UnpackF32(100)
		return
	}},
	{MaskDutyCycle, func(u *Unpacker, v *Values) (err error) {
		v.DutyCycle, err = u.UnpackF16(1000)
		return
	}},
	{MaskRPM, func(u *Unpacker, v *Values) (err error) {
		v.RPM, err = u.UnpackF32(1)
		return
	}},
	{MaskVoltageIn, func(u *Unpacker, v *Values) (err error) {
		v.VoltageIn, err = u.UnpackF16(10)
		return
	}},
	{MaskAmpHours, func(u *Unpacker, v *Values) (err error) {
		v.AmpHours, err = u.UnpackF32(10000)
		return
	}},
	{MaskAmpHoursCharged, func(u *Unpacker, v *Values) (err error) {
		v.AmpHoursCharged, err = u.UnpackF32(10000)
		return
	}},
	{MaskWattHours, func(u *Unpacker, v *Values) (err error) {
		v.WattHours, err = u.UnpackF32(10000)
		return
	}},
	{MaskWattHoursCharged, func(u *Unpacker, v *Values) (err error) {
		v.WattHoursCharged, err = u.UnpackF32(10000)
		return
	}},
	{MaskTachometer, func(u *Unpacker, v *Values) (err error) {
		v.Tachometer, err = u.UnpackI32()
		return
	}},
	{MaskTachometerAbs, func(u *Unpacker, v *Values) (err error) {
		v.TachometerAbs, err = u.UnpackI32()
		return
	}},
	{MaskFaultCode, func(u *Unpacker, v *Values) (err error) {
		v.FaultCode, err = u.UnpackU8()
		return
	}},
	{MaskPIDPos, func(u *Unpacker, v *Values) (err error) {
		v.PIDPos, err = u.UnpackF32(1000000)
		return
	}},
	{MaskControllerID, func(u *Unpacker, v *Values) (err error) {
		v.ControllerID, err = u.UnpackU8()
		return
	}},
	{MaskTempMosfetAll, func(u *Unpacker, v *Values) error {
		var err error
		if v.TempMosfet1, err = u.UnpackF16(10); err != nil {
			return err
		}
		if v.TempMosfet2, err = u.UnpackF16(10); err != nil {
			return err
		}
		v.TempMosfet3, err = u.UnpackF16(10)
		return err
	}},
	{MaskAvgVoltageD, func(u *Unpacker, v *Values) (err error) {
		v.AvgVoltageD, err = u.UnpackF32(1000)
		return
	}},
	{MaskAvgVoltageQ, func(u *Unpacker, v *Values) (err error) {
		v.AvgVoltageQ, err = u.UnpackF32(1000)
		return
	}},
	{MaskStatus, func(u *Unpacker, v *Values) (err error) {
		v.Status, err = u.UnpackU8()
		return
	}},
}

func unpackGetValues(u *Unpacker) (CommandReply, error) {
	var values Values
	for _, f := range fieldReaders {
		if err := f.read(u, &values); err != nil {
			return nil, err
		}
	}
	return GetValuesReply{Values: values}, nil
}

func unpackGetValuesSelective(u *Unpacker) (CommandReply, error) {
	bits, err := u.UnpackU32()
	if err != nil {
		return nil, err
	}
	mask := ValuesMask(bits)
	var values Values
	for _, f := range fieldReaders {
		if !mask.Has(f.bit) {
			continue
		}
		if err := f.read(u, &values); err != nil {
			return nil, err
		}
	}
	return GetValuesSelectiveReply{Mask: mask, Values: values}, nil
}
