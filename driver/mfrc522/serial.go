//go:build !tinygo

package mfrc522

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// DefaultBaudRate is the UART speed after reset, set by
// SerialSpeedReg.
const DefaultBaudRate = 9600

// OpenUART opens a serial device connected to the chip's UART. Use
// NewUART with the result.
func OpenUART(dev string, baud int) (io.ReadWriteCloser, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	c := &serial.Config{
		Name: dev,
		Baud: baud,
		// Every register access is answered by exactly one
		// byte; bound the wait for a missing one.
		ReadTimeout: 100 * time.Millisecond,
	}
	s, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("mfrc522: %w", err)
	}
	return s, nil
}
