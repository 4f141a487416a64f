package mfrc522

import (
	"errors"
	"fmt"
)

// Simulator is an in-memory MFRC522 on an SPI bus. It models the
// register file, the FIFO, interrupt requests and the Transceive
// command; the RF side is delegated to Card.
type Simulator struct {
	// Card answers a transmitted frame. A nil answer means no
	// card responded. A nil Card is an empty field.
	Card func(frame []byte, lastBits int) []byte
	// Errors are raised in ErrorReg along with every answer.
	Errors ErrorFlags
	// Hang stops the simulated chip from ever raising an
	// interrupt after StartSend, as with a wiring fault.
	Hang bool

	regs [maxRegister + 1]byte
	fifo []byte
}

// resetValues are the register values after power-on or SoftReset,
// datasheet section 9.3.
var resetValues = []regValue{
	{CommandReg, commandRcvOff},
	{ComIEnReg, 0x80},
	{ComIrqReg, 0x14},
	{Status1Reg, 0x21},
	{WaterLevelReg, 0x08},
	{ControlReg, 0x10},
	{CollReg, 0x80},
	{ModeReg, 0x3f},
	{TxControlReg, 0x80},
	{TxSelReg, 0x10},
	{RxSelReg, 0x84},
	{RxThresholdReg, 0x84},
	{DemodReg, 0x4d},
	{MfTxReg, 0x62},
	{SerialSpeedReg, 0xeb},
	{CRCResultRegH, 0xff},
	{CRCResultRegL, 0xff},
	{ModWidthReg, 0x26},
	{RFCfgReg, 0x48},
	{GsNReg, 0x88},
	{CWGsPReg, 0x20},
	{ModGsPReg, 0x20},
	{VersionReg, byte(Version2)},
}

func NewSimulator() *Simulator {
	s := new(Simulator)
	s.reset()
	return s
}

func (s *Simulator) reset() {
	s.regs = [maxRegister + 1]byte{}
	for _, rv := range resetValues {
		s.regs[rv.reg] = rv.val
	}
	s.fifo = s.fifo[:0]
}

// Reg returns the content of a register without side effects.
func (s *Simulator) Reg(reg Register) byte {
	return s.regs[reg&maxRegister]
}

// FIFO returns the bytes in the FIFO.
func (s *Simulator) FIFO() []byte {
	return append([]byte(nil), s.fifo...)
}

// Tx implements Bus with SPI framing. Every byte after the first
// clocks out the register addressed by the previous byte for reads,
// or is written to the addressed register for writes.
func (s *Simulator) Tx(w, r []byte) error {
	if len(w) == 0 {
		return errors.New("empty transfer")
	}
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("transfer lengths differ: %d written, %d read", len(w), len(r))
	}
	addr := w[0]
	if addr&0b1 != 0 {
		return fmt.Errorf("reserved address bit set in %#.2x", addr)
	}
	reg := Register(addr>>1) & maxRegister
	if addr&spiReadFlag == 0 {
		for _, v := range w[1:] {
			s.write(reg, v)
		}
		return nil
	}
	if r != nil {
		r[0] = 0
	}
	for i := 1; i < len(w); i++ {
		v := s.read(Register(w[i-1]>>1) & maxRegister)
		if r != nil {
			r[i] = v
		}
	}
	return nil
}

func (s *Simulator) read(reg Register) byte {
	switch reg {
	case FIFODataReg:
		if len(s.fifo) == 0 {
			return 0
		}
		b := s.fifo[0]
		s.fifo = s.fifo[1:]
		return b
	case FIFOLevelReg:
		return byte(len(s.fifo)) & fifoLevelMask
	}
	return s.regs[reg]
}

func (s *Simulator) write(reg Register, v byte) {
	switch reg {
	case CommandReg:
		switch Command(v & commandMask) {
		case CmdSoftReset:
			s.reset()
			return
		case CmdIdle:
			s.regs[ComIrqReg] |= irqIdle
		}
		s.regs[CommandReg] = v
	case ComIrqReg:
		if v&irqSet1 != 0 {
			s.regs[ComIrqReg] |= v & irqAllFlags
		} else {
			s.regs[ComIrqReg] &^= v & irqAllFlags
		}
	case FIFOLevelReg:
		if v&fifoFlushBuffer != 0 {
			s.fifo = s.fifo[:0]
			s.regs[ErrorReg] &^= errBufferOvf
		}
	case FIFODataReg:
		s.push(v)
	case BitFramingReg:
		s.regs[BitFramingReg] = v
		if v&bitFramingStartSend != 0 && Command(s.regs[CommandReg]&commandMask) == CmdTransceive {
			s.transceive(int(v & bitFramingTxLastMask))
		}
	case ErrorReg, Status1Reg, VersionReg:
		// Read-only.
	default:
		s.regs[reg] = v
	}
}

func (s *Simulator) push(b byte) {
	if len(s.fifo) == FIFOSize {
		s.regs[ErrorReg] |= errBufferOvf
		s.regs[ComIrqReg] |= irqErr
		return
	}
	s.fifo = append(s.fifo, b)
}

func (s *Simulator) transceive(lastBits int) {
	frame := s.FIFO()
	s.fifo = s.fifo[:0]
	if s.Hang {
		return
	}
	s.regs[ComIrqReg] |= irqTx
	var answer []byte
	if s.Card != nil {
		answer = s.Card(frame, lastBits)
	}
	if answer == nil {
		if s.regs[TModeReg]&tModeTAuto != 0 {
			s.regs[ComIrqReg] |= irqTimer
		}
		return
	}
	for _, b := range answer {
		s.push(b)
	}
	if s.Errors != 0 {
		s.regs[ErrorReg] |= byte(s.Errors)
		s.regs[ComIrqReg] |= irqErr
	}
	s.regs[ComIrqReg] |= irqRx
}
