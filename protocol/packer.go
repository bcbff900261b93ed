package protocol

import "encoding/binary"

// Packer appends typed values to a caller-owned, fixed-capacity buffer in
// big-endian byte order, tracking a single write offset. Floating-point
// values are represented as scaled integers, which is how the VESC wire
// format encodes every fractional field. The buffer is never resized and
// never read back; a failed write leaves the offset untouched.
type Packer struct {
	buf []byte
	pos int
}

// NewPacker creates a Packer writing into buf starting at offset zero.
func NewPacker(buf []byte) *Packer {
	return &Packer{buf: buf}
}

// Pos returns the number of bytes written so far.
func (p *Packer) Pos() int {
	return p.pos
}

// Bytes returns the written portion of the buffer.
func (p *Packer) Bytes() []byte {
	return p.buf[:p.pos]
}

// PackU8 appends an 8-bit unsigned integer.
func (p *Packer) PackU8(v uint8) error {
	b, err := p.grow(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// PackU16 appends a 16-bit unsigned integer in big-endian order.
func (p *Packer) PackU16(v uint16) error {
	b, err := p.grow(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b, v)
	return nil
}

// PackU32 appends a 32-bit unsigned integer in big-endian order.
func (p *Packer) PackU32(v uint32) error {
	b, err := p.grow(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b, v)
	return nil
}

// PackI32 appends a 32-bit signed integer in big-endian order.
func (p *Packer) PackI32(v int32) error {
	return p.PackU32(uint32(v))
}

// PackF32 appends a float as a scaled 32-bit signed integer. The value is
// multiplied by scale and truncated toward zero, not rounded: 57.123 at
// scale 1000 becomes 57123, and 1.9999 at scale 1 becomes 1. Truncation is
// a wire-compatibility requirement of the protocol.
func (p *Packer) PackF32(v float32, scale float32) error {
	return p.PackI32(int32(v * scale))
}

// Update overwrites a previously written byte at an absolute offset.
// Used to patch the frame length byte once the payload size is known.
func (p *Packer) Update(pos int, v byte) {
	if pos < p.pos {
		p.buf[pos] = v
	}
}

// grow reserves n bytes and advances the offset, or fails with
// ErrBufferTooSmall leaving the offset at its pre-call value.
func (p *Packer) grow(n int) ([]byte, error) {
	if p.pos+n > len(p.buf) {
		return nil, ErrBufferTooSmall
	}
	b := p.buf[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

// Unpacker consumes typed values from a caller-owned byte slice in
// big-endian order, tracking a single read offset that never advances past
// the slice end. Scaled-integer fields decode back to floats by dividing
// by their scale factor. A failed read leaves the offset untouched.
type Unpacker struct {
	buf []byte
	pos int
}

// NewUnpacker creates an Unpacker reading buf from offset zero.
func NewUnpacker(buf []byte) *Unpacker {
	return &Unpacker{buf: buf}
}

// Pos returns the number of bytes consumed so far.
func (u *Unpacker) Pos() int {
	return u.pos
}

// UnpackU8 consumes an 8-bit unsigned integer.
func (u *Unpacker) UnpackU8() (uint8, error) {
	b, err := u.consume(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// UnpackU16 consumes a big-endian 16-bit unsigned integer.
func (u *Unpacker) UnpackU16() (uint16, error) {
	b, err := u.consume(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// UnpackU32 consumes a big-endian 32-bit unsigned integer.
func (u *Unpacker) UnpackU32() (uint32, error) {
	b, err := u.consume(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// UnpackI16 consumes a big-endian 16-bit signed integer.
func (u *Unpacker) UnpackI16() (int16, error) {
	v, err := u.UnpackU16()
	return int16(v), err
}

// UnpackI32 consumes a big-endian 32-bit signed integer.
func (u *Unpacker) UnpackI32() (int32, error) {
	v, err := u.UnpackU32()
	return int32(v), err
}

// UnpackF32 consumes a scaled 32-bit signed integer and returns it
// divided by scale.
func (u *Unpacker) UnpackF32(scale float32) (float32, error) {
	v, err := u.UnpackI32()
	return float32(v) / scale, err
}

// UnpackF16 consumes a scaled 16-bit signed integer and returns it
// divided by scale. Used for fields whose wire width is narrower than
// their decoded float width.
func (u *Unpacker) UnpackF16(scale float32) (float32, error) {
	v, err := u.UnpackI16()
	return float32(v) / scale, err
}

// consume reserves n bytes and advances the offset, or fails with
// ErrIncompleteData leaving the offset at its pre-call value.
func (u *Unpacker) consume(n int) ([]byte, error) {
	if u.pos+n > len(u.buf) {
		return nil, ErrIncompleteData
	}
	b := u.buf[u.pos : u.pos+n]
	u.pos += n
	return b, nil
}
