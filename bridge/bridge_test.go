package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"govesc/protocol"
)

// fakeMotor records the last command applied to it.
type fakeMotor struct {
	rpm       int32
	current   float32
	handbrake float32
	lastMask  protocol.ValuesMask
	values    protocol.Values
}

func (f *fakeMotor) GetValuesSelective(mask protocol.ValuesMask) (protocol.Values, error) {
	f.lastMask = mask
	return f.values, nil
}

func (f *fakeMotor) SetRPM(rpm int32) error          { f.rpm = rpm; return nil }
func (f *fakeMotor) SetCurrent(amps float32) error   { f.current = amps; return nil }
func (f *fakeMotor) SetHandbrake(amps float32) error { f.handbrake = amps; return nil }

func newTestBridge(t *testing.T) (*Bridge, *fakeMotor) {
	t.Helper()
	cfg := &Config{}
	cfg.Poll.Fields = []string{"rpm", "duty_cycle"}
	motor := &fakeMotor{}
	b, err := New(cfg, motor)
	require.NoError(t, err)
	return b, motor
}

func TestHandleSetpoint(t *testing.T) {
	b, motor := newTestBridge(t)

	require.NoError(t, b.handleSetpoint([]byte(`{"command":"set_rpm","value":4500}`)))
	require.Equal(t, int32(4500), motor.rpm)

	require.NoError(t, b.handleSetpoint([]byte(`{"command":"set_current","value":12.5}`)))
	require.Equal(t, float32(12.5), motor.current)

	require.NoError(t, b.handleSetpoint([]byte(`{"command":"set_handbrake","value":3}`)))
	require.Equal(t, float32(3), motor.handbrake)

	motor.current = 99
	require.NoError(t, b.handleSetpoint([]byte(`{"command":"release"}`)))
	require.Zero(t, motor.current)
}

func TestHandleSetpointRejectsBadMessages(t *testing.T) {
	b, _ := newTestBridge(t)

	require.Error(t, b.handleSetpoint([]byte(`{"command":"self_destruct","value":1}`)))
	require.Error(t, b.handleSetpoint([]byte(`not json`)))
}

func TestBridgeMaskFromConfig(t *testing.T) {
	b, motor := newTestBridge(t)

	_, err := b.motor.GetValuesSelective(b.mask)
	require.NoError(t, err)
	require.Equal(t, protocol.MaskRPM|protocol.MaskDutyCycle, motor.lastMask)
}

func TestTelemetryMessageShape(t *testing.T) {
	values := protocol.Values{RPM: 3150, VoltageIn: 36.8}
	payload, err := json.Marshal(TelemetryMessage{Values: values})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	fields, ok := decoded["values"].(map[string]any)
	require.True(t, ok)
	require.InDelta(t, 3150, fields["rpm"], 0.001)
	require.InDelta(t, 36.8, fields["voltage_in"], 0.001)
}
