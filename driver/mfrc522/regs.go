package mfrc522

import (
	"fmt"
	"io"
)

// Bus is a connection to the chip's register interface. SPI
// connections are full duplex: r is either nil or as long as w.
// I2C connections write w and then read r. Both periph.io spi.Conn
// and i2c.Dev implement Bus.
type Bus interface {
	Tx(w, r []byte) error
}

// framing encodes register accesses for one host interface.
type framing interface {
	readReg(reg Register) (byte, error)
	writeReg(reg Register, val byte) error
}

// spiAddr returns the SPI address byte for reg: the address in
// bits 6-1, the read flag in bit 7 and bit 0 reserved as 0.
func spiAddr(reg Register, read bool) byte {
	addr := byte(reg) << 1 & 0b0111_1110
	if read {
		addr |= spiReadFlag
	}
	return addr
}

// uartAddr returns the UART address byte for reg: the address in
// bits 5-0 and the read flag in bit 7.
func uartAddr(reg Register, read bool) byte {
	addr := byte(reg) & byte(maxRegister)
	if read {
		addr |= uartReadFlag
	}
	return addr
}

type spiFraming struct {
	bus  Bus
	w, r [2]byte
}

func (s *spiFraming) readReg(reg Register) (byte, error) {
	// The value is clocked out while the second byte is sent.
	w, r := s.w[:], s.r[:]
	w[0] = spiAddr(reg, true)
	w[1] = 0x00
	if err := s.bus.Tx(w, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (s *spiFraming) writeReg(reg Register, val byte) error {
	w := s.w[:]
	w[0] = spiAddr(reg, false)
	w[1] = val
	return s.bus.Tx(w, nil)
}

type i2cFraming struct {
	bus Bus
	w   [2]byte
	r   [1]byte
}

func (f *i2cFraming) readReg(reg Register) (byte, error) {
	w, r := f.w[:1], f.r[:]
	w[0] = byte(reg)
	if err := f.bus.Tx(w, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (f *i2cFraming) writeReg(reg Register, val byte) error {
	w := f.w[:]
	w[0] = byte(reg)
	w[1] = val
	return f.bus.Tx(w, nil)
}

type uartFraming struct {
	rw io.ReadWriter
	w  [2]byte
	r  [1]byte
}

func (u *uartFraming) readReg(reg Register) (byte, error) {
	w, r := u.w[:1], u.r[:]
	w[0] = uartAddr(reg, true)
	if _, err := u.rw.Write(w); err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(u.rw, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (u *uartFraming) writeReg(reg Register, val byte) error {
	w, r := u.w[:], u.r[:]
	w[0] = uartAddr(reg, false)
	w[1] = val
	if _, err := u.rw.Write(w); err != nil {
		return err
	}
	// The chip acknowledges a write by echoing the address byte.
	if _, err := io.ReadFull(u.rw, r); err != nil {
		return err
	}
	if r[0] != w[0] {
		return fmt.Errorf("write acknowledged with %#.2x, expected %#.2x", r[0], w[0])
	}
	return nil
}

// ReadReg reads a register.
func (d *Device) ReadReg(reg Register) (byte, error) {
	v, err := d.readReg(reg)
	if err != nil {
		return 0, fmt.Errorf("mfrc522: %w", err)
	}
	return v, nil
}

// WriteReg writes a register.
func (d *Device) WriteReg(reg Register, val byte) error {
	if err := d.writeReg(reg, val); err != nil {
		return fmt.Errorf("mfrc522: %w", err)
	}
	return nil
}

// SetBits sets the bits of mask in a register. The read-modify-write
// is not atomic; callers sharing a device must serialize access.
func (d *Device) SetBits(reg Register, mask byte) error {
	if err := d.setBits(reg, mask); err != nil {
		return fmt.Errorf("mfrc522: %w", err)
	}
	return nil
}

// ClearBits clears the bits of mask in a register. Like SetBits it
// is not atomic.
func (d *Device) ClearBits(reg Register, mask byte) error {
	if err := d.clearBits(reg, mask); err != nil {
		return fmt.Errorf("mfrc522: %w", err)
	}
	return nil
}

func (d *Device) readReg(reg Register) (byte, error) {
	if reg > maxRegister {
		return 0, fmt.Errorf("%w: register %#.2x", ErrInvalidArgument, uint8(reg))
	}
	v, err := d.regs.readReg(reg)
	if err != nil {
		return 0, &BusError{Op: "read", Reg: reg, Err: err}
	}
	return v, nil
}

func (d *Device) writeReg(reg Register, val byte) error {
	if reg > maxRegister {
		return fmt.Errorf("%w: register %#.2x", ErrInvalidArgument, uint8(reg))
	}
	if err := d.regs.writeReg(reg, val); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (d *Device) setBits(reg Register, mask byte) error {
	v, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, v|mask)
}

func (d *Device) clearBits(reg Register, mask byte) error {
	v, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, v&^mask)
}
