package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (typically 115200 for VESC UART, ignored for USB CDC)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns a default configuration for a VESC link
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200, // Standard VESC UART baud rate
		ReadTimeout: 100,    // 100ms read timeout
	}
}
