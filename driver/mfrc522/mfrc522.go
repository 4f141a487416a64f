// Package mfrc522 implements a driver for the NXP [MFRC522]
// contactless reader chip.
//
// A Device is not safe for concurrent use. Neither is the chip:
// interleaved register accesses, such as a SetBits racing another
// write, corrupt its state. Callers sharing a bus must serialize
// every operation.
//
// [MFRC522]: https://www.nxp.com/docs/en/data-sheet/MFRC522.pdf
package mfrc522

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds the wait for a command to complete.
const DefaultTimeout = 1 * time.Second

type Device struct {
	regs    framing
	timeout time.Duration
	log     *zap.Logger
}

// New returns a device for a chip on an SPI bus. It performs no
// I/O; call Configure before Transceive.
func New(bus Bus) *Device {
	return newDevice(&spiFraming{bus: bus})
}

// NewI2C returns a device for a chip on an I2C bus. The bus must
// already be addressed to the chip.
func NewI2C(bus Bus) *Device {
	return newDevice(&i2cFraming{bus: bus})
}

// NewUART returns a device for a chip on a serial line.
func NewUART(rw io.ReadWriter) *Device {
	return newDevice(&uartFraming{rw: rw})
}

func newDevice(f framing) *Device {
	return &Device{
		regs:    f,
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
	}
}

// SetTimeout sets the maximum wait for command completion. Zero or
// negative values restore DefaultTimeout.
func (d *Device) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d.timeout = timeout
}

// SetLogger sets the logger for debug tracing. A nil logger
// disables logging.
func (d *Device) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	d.log = log
}

type regValue struct {
	reg Register
	val byte
}

// config is the register setup following the soft reset.
var config = []regValue{
	// Start the timer at the end of every transmission. The
	// timer counts the prescaled 13.56 MHz clock.
	{TModeReg, tModeTAuto | timerPrescaler>>8&tModePrescalerHiMsk},
	{TPrescalerReg, timerPrescaler & 0xff},
	{TReloadRegL, timerReload & 0xff},
	{TReloadRegH, timerReload >> 8},
	// 100% ASK regardless of ModGsPReg.
	{TxASKReg, txASKForce100ASK},
	{ModeReg, modeConfig},
}

// Configure resets the chip and sets up the timer, modulation and
// antenna drivers. It stops at the first failed access.
func (d *Device) Configure() error {
	if err := d.configure(); err != nil {
		return fmt.Errorf("mfrc522: configure: %w", err)
	}
	return nil
}

func (d *Device) configure() error {
	if err := d.command(CmdSoftReset); err != nil {
		return err
	}
	if err := d.waitForPowerUp(); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	for _, rv := range config {
		d.log.Debug("mfrc522: configure", zap.Uint8("reg", uint8(rv.reg)), zap.Uint8("val", rv.val))
		if err := d.writeReg(rv.reg, rv.val); err != nil {
			return err
		}
	}
	// Drive the 13.56 MHz carrier on TX1 and TX2.
	return d.setBits(TxControlReg, txControlTx1RFEn|txControlTx2RFEn)
}

// waitForPowerUp waits for the soft reset to complete, which the
// chip signals by clearing PowerDown.
func (d *Device) waitForPowerUp() error {
	start := time.Now()
	for {
		cmd, err := d.readReg(CommandReg)
		if err != nil {
			return err
		}
		if cmd&commandPowerDown == 0 {
			return nil
		}
		if time.Since(start) > d.timeout {
			return fmt.Errorf("%w: chip still powered down after %v", ErrTimeout, d.timeout)
		}
	}
}

func (d *Device) command(cmd Command) error {
	return d.writeReg(CommandReg, byte(cmd))
}

// Idle cancels any running command.
func (d *Device) Idle() error {
	if err := d.command(CmdIdle); err != nil {
		return fmt.Errorf("mfrc522: idle: %w", err)
	}
	return nil
}

// Version reads the chip version.
func (d *Device) Version() (ChipVersion, error) {
	v, err := d.readReg(VersionReg)
	if err != nil {
		return 0, fmt.Errorf("mfrc522: version: %w", err)
	}
	return ChipVersion(v), nil
}

// AntennaOn enables the antenna drivers.
func (d *Device) AntennaOn() error {
	if err := d.setBits(TxControlReg, txControlTx1RFEn|txControlTx2RFEn); err != nil {
		return fmt.Errorf("mfrc522: antenna on: %w", err)
	}
	return nil
}

// AntennaOff disables the antenna drivers, turning off the field.
func (d *Device) AntennaOff() error {
	if err := d.clearBits(TxControlReg, txControlTx1RFEn|txControlTx2RFEn); err != nil {
		return fmt.Errorf("mfrc522: antenna off: %w", err)
	}
	return nil
}

// Transceive transmits tx and receives the answer into rx. The last
// byte of tx is sent with lastBits bits, where 0 means all 8.
// Transceive returns the number of bytes stored in rx.
//
// An answer larger than rx is truncated: Transceive fills rx and
// returns a *TruncatedError alongside the count. A missing answer
// results in ErrTimeout and chip-reported errors in a *ChipError.
func (d *Device) Transceive(tx []byte, lastBits int, rx []byte) (int, error) {
	if lastBits < 0 || lastBits > 7 {
		return 0, fmt.Errorf("mfrc522: transceive: %w: %d bits in last byte", ErrInvalidArgument, lastBits)
	}
	if len(tx) > FIFOSize {
		return 0, fmt.Errorf("mfrc522: transceive: %w: %w: %d byte frame", ErrInvalidArgument, ErrBufferOverflow, len(tx))
	}
	n, err := d.transceive(tx, byte(lastBits), rx)
	if err != nil {
		err = fmt.Errorf("mfrc522: transceive: %w", err)
	}
	return n, err
}

func (d *Device) transceive(tx []byte, lastBits byte, rx []byte) (int, error) {
	// Clear the FIFO read and write pointers and BufferOvfl.
	if err := d.writeReg(FIFOLevelReg, fifoFlushBuffer); err != nil {
		return 0, err
	}
	for _, b := range tx {
		if err := d.writeReg(FIFODataReg, b); err != nil {
			return 0, err
		}
	}
	// With Set1 cleared, the marked bits are cleared. Clear them
	// all so the wait below can't see a stale flag.
	if err := d.writeReg(ComIrqReg, irqAllFlags); err != nil {
		return 0, err
	}
	// The Transceive command alone doesn't transmit; setting
	// StartSend does.
	if err := d.command(CmdTransceive); err != nil {
		return 0, err
	}
	if err := d.writeReg(BitFramingReg, bitFramingStartSend|lastBits&bitFramingTxLastMask); err != nil {
		return 0, err
	}
	if err := d.waitForRx(); err != nil {
		return 0, err
	}
	level, err := d.readReg(FIFOLevelReg)
	if err != nil {
		return 0, err
	}
	avail := int(level & fifoLevelMask)
	n := min(avail, len(rx))
	for i := 0; i < n; i++ {
		b, err := d.readReg(FIFODataReg)
		if err != nil {
			return i, err
		}
		rx[i] = b
	}
	if avail > n {
		return n, &TruncatedError{Available: avail, Read: n}
	}
	return n, nil
}

// waitForRx polls ComIrqReg until the receiver is done, the chip
// reports an error or the timeout expires.
func (d *Device) waitForRx() error {
	start := time.Now()
	for {
		irq, err := d.readReg(ComIrqReg)
		if err != nil {
			return err
		}
		d.log.Debug("mfrc522: poll", zap.Uint8("ComIrqReg", irq))
		if irq&irqErr != 0 {
			flags, err := d.readReg(ErrorReg)
			if err != nil {
				return err
			}
			if f := ErrorFlags(flags) & errorFlagsMask; f != 0 {
				return &ChipError{Flags: f}
			}
		}
		if irq&irqRx != 0 {
			return nil
		}
		if irq&irqTimer != 0 {
			// The timer started at the end of transmission and
			// expired before any answer.
			return fmt.Errorf("%w: no answer before the chip timer expired", ErrTimeout)
		}
		if elapsed := time.Since(start); elapsed > d.timeout {
			return fmt.Errorf("%w: no answer after %v", ErrTimeout, elapsed.Round(time.Millisecond))
		}
	}
}
