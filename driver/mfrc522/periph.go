//go:build !tinygo

package mfrc522

import (
	"fmt"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Port is an open host bus.
type Port interface {
	Bus
	Close() error
}

const (
	// DefaultSPIFrequency is well below the 10 Mbit/s maximum of
	// the chip, for long wires.
	DefaultSPIFrequency = 1 * physic.MegaHertz
	// DefaultI2CAddr is the address with the EA pin low and the
	// ADR pins grounded.
	DefaultI2CAddr = 0x28
)

type spiPort struct {
	spi.Conn
	p spi.PortCloser
}

func (s *spiPort) Close() error {
	return s.p.Close()
}

// OpenSPI opens an SPI port through the periph.io registry. An
// empty name selects the first available port. Use New with the
// result.
func OpenSPI(name string, freq physic.Frequency) (Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mfrc522: %w", err)
	}
	if freq == 0 {
		freq = DefaultSPIFrequency
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("mfrc522: %w", err)
	}
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("mfrc522: %w", multierr.Append(err, p.Close()))
	}
	return &spiPort{Conn: c, p: p}, nil
}

type i2cPort struct {
	*i2c.Dev
	b i2c.BusCloser
}

func (i *i2cPort) Close() error {
	return i.b.Close()
}

// OpenI2C opens an I2C bus through the periph.io registry and
// addresses the chip at addr. An empty name selects the first
// available bus. Use NewI2C with the result.
func OpenI2C(name string, addr uint16) (Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mfrc522: %w", err)
	}
	if addr == 0 {
		addr = DefaultI2CAddr
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("mfrc522: %w", err)
	}
	return &i2cPort{Dev: &i2c.Dev{Addr: addr, Bus: b}, b: b}, nil
}
