package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func encodeOK(t *testing.T, cmd Command) []byte {
	t.Helper()
	buf := make([]byte, 64)
	n, err := Encode(cmd, buf)
	if err != nil {
		t.Fatalf("Encode(%#v) failed: %v", cmd, err)
	}
	return buf[:n]
}

func TestEncodeGetValues(t *testing.T) {
	frame := encodeOK(t, GetValues{})
	expected := []byte{2, 1, 4, 64, 132, 3}
	if !bytes.Equal(frame, expected) {
		t.Errorf("encoded %v, expected %v", frame, expected)
	}
}

func TestEncodeSetCurrent(t *testing.T) {
	testCases := []struct {
		current  float32
		expected []byte
	}{
		{0.0, []byte{2, 5, 6, 0, 0, 0, 0, 205, 133, 3}},
		{1.0, []byte{2, 5, 6, 0, 0, 3, 232, 228, 240, 3}},
		{57.123, []byte{2, 5, 6, 0, 0, 223, 35, 220, 157, 3}},
		{-1.0, []byte{2, 5, 6, 255, 255, 252, 24, 140, 208, 3}},
		{-57.123, []byte{2, 5, 6, 255, 255, 32, 221, 85, 115, 3}},
	}

	for _, tc := range testCases {
		frame := encodeOK(t, SetCurrent{Current: tc.current})
		if !bytes.Equal(frame, tc.expected) {
			t.Errorf("SetCurrent(%v): encoded %v, expected %v", tc.current, frame, tc.expected)
		}
	}
}

func TestEncodeSetRPM(t *testing.T) {
	testCases := []struct {
		rpm      int32
		expected []byte
	}{
		{0, []byte{2, 5, 8, 0, 0, 0, 0, 2, 45, 3}},
		{1, []byte{2, 5, 8, 0, 0, 0, 1, 18, 12, 3}},
		{1234, []byte{2, 5, 8, 0, 0, 4, 210, 37, 214, 3}},
		{-1, []byte{2, 5, 8, 255, 255, 255, 255, 155, 226, 3}},
		{-1234, []byte{2, 5, 8, 255, 255, 251, 46, 140, 122, 3}},
	}

	for _, tc := range testCases {
		frame := encodeOK(t, SetRPM{RPM: tc.rpm})
		if !bytes.Equal(frame, tc.expected) {
			t.Errorf("SetRPM(%d): encoded %v, expected %v", tc.rpm, frame, tc.expected)
		}
	}
}

func TestEncodeSetHandbrake(t *testing.T) {
	testCases := []struct {
		current  float32
		expected []byte
	}{
		{0.0, []byte{2, 5, 10, 0, 0, 0, 0, 70, 174, 3}},
		{1.0, []byte{2, 5, 10, 0, 0, 3, 232, 111, 219, 3}},
		{5.2, []byte{2, 5, 10, 0, 0, 20, 80, 211, 236, 3}},
		{-1.0, []byte{2, 5, 10, 255, 255, 252, 24, 7, 251, 3}},
		{-5.2, []byte{2, 5, 10, 255, 255, 235, 176, 169, 253, 3}},
	}

	for _, tc := range testCases {
		frame := encodeOK(t, SetHandbrake{Current: tc.current})
		if !bytes.Equal(frame, tc.expected) {
			t.Errorf("SetHandbrake(%v): encoded %v, expected %v", tc.current, frame, tc.expected)
		}
	}
}

func TestEncodeForwardCan(t *testing.T) {
	frame := encodeOK(t, ForwardCan{ControllerID: 1, Command: SetRPM{RPM: 1234}})
	expected := []byte{2, 7, 34, 1, 8, 0, 0, 4, 210, 110, 99, 3}
	if !bytes.Equal(frame, expected) {
		t.Errorf("encoded %v, expected %v", frame, expected)
	}

	frame = encodeOK(t, ForwardCan{ControllerID: 7, Command: SetCurrent{Current: 57.123}})
	expected = []byte{2, 7, 34, 7, 6, 0, 0, 223, 35, 26, 201, 3}
	if !bytes.Equal(frame, expected) {
		t.Errorf("encoded %v, expected %v", frame, expected)
	}
}

func TestEncodeForwardCanNested(t *testing.T) {
	// There is exactly one payload: each ForwardCan level adds its own id
	// and target byte in front of the innermost command.
	frame := encodeOK(t, ForwardCan{
		ControllerID: 2,
		Command:      ForwardCan{ControllerID: 1, Command: GetValues{}},
	})

	payload := frame[FrameHeaderSize : len(frame)-FrameTrailerSize]
	expected := []byte{34, 2, 34, 1, 4}
	if !bytes.Equal(payload, expected) {
		t.Errorf("payload %v, expected %v", payload, expected)
	}
	if int(frame[1]) != len(payload) {
		t.Errorf("length byte %d, expected %d", frame[1], len(payload))
	}
}

func TestEncodeGetValuesSelective(t *testing.T) {
	testCases := []struct {
		mask     ValuesMask
		expected []byte
	}{
		{MaskTempMosfet, []byte{2, 5, 50, 0, 0, 0, 1, 88, 76, 3}},
		{MaskVoltageIn, []byte{2, 5, 50, 0, 0, 1, 0, 123, 92, 3}},
		{MaskTempMosfet | MaskVoltageIn, []byte{2, 5, 50, 0, 0, 1, 1, 107, 125, 3}},
		{MaskRPM | MaskWattHours | MaskControllerID, []byte{2, 5, 50, 0, 2, 8, 128, 62, 44, 3}},
	}

	for _, tc := range testCases {
		frame := encodeOK(t, GetValuesSelective{Mask: tc.mask})
		if !bytes.Equal(frame, tc.expected) {
			t.Errorf("mask 0x%08X: encoded %v, expected %v", uint32(tc.mask), frame, tc.expected)
		}
	}
}

func TestEncodeBufPerfectFit(t *testing.T) {
	buf := make([]byte, 10)

	n, err := Encode(SetRPM{}, buf)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if n != len(buf) {
		t.Errorf("wrote %d bytes, expected %d", n, len(buf))
	}
	expected := []byte{2, 5, 8, 0, 0, 0, 0, 2, 45, 3}
	if !bytes.Equal(buf, expected) {
		t.Errorf("encoded %v, expected %v", buf, expected)
	}
}

func TestEncodeBufferTooSmall(t *testing.T) {
	for n := 0; n < 10; n++ {
		buf := make([]byte, n)
		if _, err := Encode(SetRPM{}, buf); !errors.Is(err, ErrBufferTooSmall) {
			t.Errorf("buffer size %d: got %v, expected ErrBufferTooSmall", n, err)
		}
	}
}
