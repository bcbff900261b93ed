// Package controller provides a typed client for a VESC motor controller
// reachable over a serial-style link.
package controller

import (
	"fmt"
	"io"
	"time"

	"govesc/host/serial"
	"govesc/protocol"
)

// DefaultTimeout bounds how long telemetry requests wait for a reply.
const DefaultTimeout = 500 * time.Millisecond

// Controller represents a connection to a VESC motor controller
type Controller struct {
	// Transport layer
	transport *protocol.Transport

	// Serial port
	port serial.Port

	// Request timeout
	timeout time.Duration

	// Connection state
	connected bool
}

// Connect connects to a controller on a serial device using defaults
func Connect(device string) (*Controller, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to a controller with a custom serial config
func ConnectWithConfig(cfg *serial.Config) (*Controller, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return NewController(port), nil
}

// NewController wraps an already-open port. Useful for tests and for
// links that are not native serial ports (e.g. TCP-attached CAN bridges).
func NewController(port serial.Port) *Controller {
	return &Controller{
		transport: protocol.NewTransport(port),
		port:      port,
		timeout:   DefaultTimeout,
		connected: true,
	}
}

// SetTimeout changes the reply timeout for telemetry requests
func (c *Controller) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Close closes the connection to the controller
func (c *Controller) Close() error {
	c.connected = false
	if c.transport != nil {
		return c.transport.Close()
	}
	return nil
}

// GetValues requests the complete telemetry record
func (c *Controller) GetValues() (protocol.Values, error) {
	reply, err := c.request(protocol.GetValues{})
	if err != nil {
		return protocol.Values{}, err
	}
	r, ok := reply.(protocol.GetValuesReply)
	if !ok {
		return protocol.Values{}, fmt.Errorf("unexpected reply %T to GetValues", reply)
	}
	return r.Values, nil
}

// GetValuesSelective requests only the telemetry field groups named by
// mask. Fields outside the mask are zero in the result.
func (c *Controller) GetValuesSelective(mask protocol.ValuesMask) (protocol.Values, error) {
	reply, err := c.request(protocol.GetValuesSelective{Mask: mask})
	if err != nil {
		return protocol.Values{}, err
	}
	r, ok := reply.(protocol.GetValuesSelectiveReply)
	if !ok {
		return protocol.Values{}, fmt.Errorf("unexpected reply %T to GetValuesSelective", reply)
	}
	return r.Values, nil
}

// SetRPM sets the motor speed setpoint
func (c *Controller) SetRPM(rpm int32) error {
	return c.send(protocol.SetRPM{RPM: rpm})
}

// SetCurrent sets the motor current setpoint in amperes
func (c *Controller) SetCurrent(amps float32) error {
	return c.send(protocol.SetCurrent{Current: amps})
}

// SetHandbrake applies a braking current in amperes
func (c *Controller) SetHandbrake(amps float32) error {
	return c.send(protocol.SetHandbrake{Current: amps})
}

// Release zeroes the current setpoint, letting the motor spin freely
func (c *Controller) Release() error {
	return c.SetCurrent(0)
}

// OnCAN returns a view of a controller on the CAN bus behind this one.
// Commands issued through the view are wrapped in ForwardCan and relayed
// by the directly connected controller.
func (c *Controller) OnCAN(id uint8) *RemoteController {
	return &RemoteController{local: c, canID: id}
}

func (c *Controller) send(cmd protocol.Command) error {
	if !c.connected {
		return io.ErrClosedPipe
	}
	return c.transport.Send(cmd)
}

func (c *Controller) request(cmd protocol.Command) (protocol.CommandReply, error) {
	if !c.connected {
		return nil, io.ErrClosedPipe
	}
	return c.transport.Request(cmd, c.timeout)
}

// RemoteController issues commands to a controller on the CAN bus behind
// the directly connected one.
type RemoteController struct {
	local *Controller
	canID uint8
}

// ID returns the CAN id of the remote controller
func (r *RemoteController) ID() uint8 {
	return r.canID
}

// GetValues requests the complete telemetry record from the remote
// controller
func (r *RemoteController) GetValues() (protocol.Values, error) {
	reply, err := r.local.request(r.wrap(protocol.GetValues{}))
	if err != nil {
		return protocol.Values{}, err
	}
	rep, ok := reply.(protocol.GetValuesReply)
	if !ok {
		return protocol.Values{}, fmt.Errorf("unexpected reply %T to forwarded GetValues", reply)
	}
	return rep.Values, nil
}

// GetValuesSelective requests selected telemetry from the remote
// controller
func (r *RemoteController) GetValuesSelective(mask protocol.ValuesMask) (protocol.Values, error) {
	reply, err := r.local.request(r.wrap(protocol.GetValuesSelective{Mask: mask}))
	if err != nil {
		return protocol.Values{}, err
	}
	rep, ok := reply.(protocol.GetValuesSelectiveReply)
	if !ok {
		return protocol.Values{}, fmt.Errorf("unexpected reply %T to forwarded GetValuesSelective", reply)
	}
	return rep.Values, nil
}

// SetRPM sets the remote motor speed setpoint
func (r *RemoteController) SetRPM(rpm int32) error {
	return r.local.send(r.wrap(protocol.SetRPM{RPM: rpm}))
}

// SetCurrent sets the remote motor current setpoint in amperes
func (r *RemoteController) SetCurrent(amps float32) error {
	return r.local.send(r.wrap(protocol.SetCurrent{Current: amps}))
}

// SetHandbrake applies a braking current on the remote controller
func (r *RemoteController) SetHandbrake(amps float32) error {
	return r.local.send(r.wrap(protocol.SetHandbrake{Current: amps}))
}

func (r *RemoteController) wrap(cmd protocol.Command) protocol.Command {
	return protocol.ForwardCan{ControllerID: r.canID, Command: cmd}
}
