//go:build linux && !tinygo

package mfrc522

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// SPIDev is an SPI bus opened through a Linux spidev character
// device such as /dev/spidev0.0.
type SPIDev struct {
	fd    int
	speed uint32
}

// Ioctl requests from linux/spi/spidev.h.
const (
	spiIOCWrMode        = 0x40016b01
	spiIOCWrBitsPerWord = 0x40016b03
	spiIOCWrMaxSpeedHz  = 0x40046b04
	// spiIOCMessage1 is SPI_IOC_MESSAGE(1).
	spiIOCMessage1 = 0x40206b00

	spidevSpeedHz = 1_000_000
)

// spiIOCTransfer mirrors struct spi_ioc_transfer.
type spiIOCTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

// Open opens a spidev device in SPI mode 0 with 8-bit words at
// 1 MHz. Use New with the result.
func Open(path string) (*SPIDev, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("mfrc522: open %s: %w", path, err)
	}
	s := &SPIDev{fd: fd, speed: spidevSpeedHz}
	if err := s.setup(); err != nil {
		err = multierr.Append(err, unix.Close(fd))
		return nil, fmt.Errorf("mfrc522: %s: %w", path, err)
	}
	return s, nil
}

func (s *SPIDev) setup() error {
	mode := uint8(0)
	if err := ioctl(s.fd, spiIOCWrMode, unsafe.Pointer(&mode)); err != nil {
		return fmt.Errorf("SPI_IOC_WR_MODE: %w", err)
	}
	bits := uint8(8)
	if err := ioctl(s.fd, spiIOCWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return fmt.Errorf("SPI_IOC_WR_BITS_PER_WORD: %w", err)
	}
	speed := s.speed
	if err := ioctl(s.fd, spiIOCWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		return fmt.Errorf("SPI_IOC_WR_MAX_SPEED_HZ: %w", err)
	}
	return nil
}

// Tx performs one full-duplex transfer with chip select held for
// its duration.
func (s *SPIDev) Tx(w, r []byte) error {
	if len(w) == 0 {
		return errors.New("spidev: empty transfer")
	}
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("spidev: transfer lengths differ: %d written, %d read", len(w), len(r))
	}
	xfer := spiIOCTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&w[0]))),
		length:      uint32(len(w)),
		speedHz:     s.speed,
		bitsPerWord: 8,
	}
	if r != nil {
		xfer.rxBuf = uint64(uintptr(unsafe.Pointer(&r[0])))
	}
	err := ioctl(s.fd, spiIOCMessage1, unsafe.Pointer(&xfer))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	if err != nil {
		return fmt.Errorf("spidev: SPI_IOC_MESSAGE: %w", err)
	}
	return nil
}

func (s *SPIDev) Close() error {
	return unix.Close(s.fd)
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}
