package mfrc522

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBus matches every *BusError.
	ErrBus = errors.New("bus error")
	// ErrInvalidArgument reports an argument rejected before any
	// bus traffic.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBufferOverflow reports a frame that doesn't fit the FIFO.
	ErrBufferOverflow = errors.New("FIFO overflow")
	// ErrTimeout reports a receive that didn't complete in time.
	ErrTimeout = errors.New("timeout")
	// ErrChip matches every *ChipError.
	ErrChip = errors.New("chip error")
	// ErrTruncated matches every *TruncatedError.
	ErrTruncated = errors.New("response truncated")
)

// BusError is a failed register transfer.
type BusError struct {
	Op  string
	Reg Register
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s register %#.2x: %v", e.Op, uint8(e.Reg), e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

func (e *BusError) Is(target error) bool {
	return target == ErrBus
}

// ErrorFlags is the content of ErrorReg.
type ErrorFlags uint8

const (
	ProtocolErr ErrorFlags = errProtocol
	ParityErr   ErrorFlags = errParity
	CRCErr      ErrorFlags = errCRC
	CollErr     ErrorFlags = errColl
	BufferOvfl  ErrorFlags = errBufferOvf
	TempErr     ErrorFlags = errTemp
	WrErr       ErrorFlags = errWr

	// errorFlagsMask covers every defined ErrorReg bit; bit 5 is
	// reserved.
	errorFlagsMask = ProtocolErr | ParityErr | CRCErr | CollErr | BufferOvfl | TempErr | WrErr
)

func (f ErrorFlags) String() string {
	names := []struct {
		flag ErrorFlags
		name string
	}{
		{ProtocolErr, "protocol"},
		{ParityErr, "parity"},
		{CRCErr, "CRC"},
		{CollErr, "collision"},
		{BufferOvfl, "buffer overflow"},
		{TempErr, "overheating"},
		{WrErr, "FIFO write"},
	}
	var set []string
	for _, n := range names {
		if f&n.flag != 0 {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ", ")
}

// ChipError reports error flags raised by the chip during a
// command.
type ChipError struct {
	Flags ErrorFlags
}

func (e *ChipError) Error() string {
	return fmt.Sprintf("chip error: %v (ErrorReg %#.2x)", e.Flags, uint8(e.Flags))
}

func (e *ChipError) Is(target error) bool {
	return target == ErrChip
}

// TruncatedError reports a response larger than the receive
// buffer. The bytes that fit are still valid.
type TruncatedError struct {
	// Available is the FIFO level at the end of the exchange.
	Available int
	// Read is the number of bytes drained.
	Read int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("response truncated: read %d of %d bytes", e.Read, e.Available)
}

func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}
