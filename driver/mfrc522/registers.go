package mfrc522

import "fmt"

// Register is a 6-bit MFRC522 register address.
type Register uint8

// Register map, datasheet section 9.2.
const (
	// Page 0: command and status.
	CommandReg    Register = 0x01 // Starts and stops command execution
	ComIEnReg     Register = 0x02 // Enable and disable interrupt request control bits
	DivIEnReg     Register = 0x03 // Enable and disable interrupt request control bits
	ComIrqReg     Register = 0x04 // Interrupt request bits
	DivIrqReg     Register = 0x05 // Interrupt request bits
	ErrorReg      Register = 0x06 // Error bits showing the error status of the last command executed
	Status1Reg    Register = 0x07 // Communication status bits
	Status2Reg    Register = 0x08 // Receiver and transmitter status bits
	FIFODataReg   Register = 0x09 // Input and output of 64 byte FIFO buffer
	FIFOLevelReg  Register = 0x0A // Number of bytes stored in the FIFO buffer
	WaterLevelReg Register = 0x0B // Level for FIFO underflow and overflow warning
	ControlReg    Register = 0x0C // Miscellaneous control registers
	BitFramingReg Register = 0x0D // Adjustments for bit-oriented frames
	CollReg       Register = 0x0E // Bit position of the first bit-collision detected on the RF interface

	// Page 1: command.
	ModeReg        Register = 0x11 // Defines general modes for transmitting and receiving
	TxModeReg      Register = 0x12 // Defines transmission data rate and framing
	RxModeReg      Register = 0x13 // Defines reception data rate and framing
	TxControlReg   Register = 0x14 // Controls the logical behavior of the antenna driver pins TX1 and TX2
	TxASKReg       Register = 0x15 // Controls the setting of the transmission modulation
	TxSelReg       Register = 0x16 // Selects the internal sources for the antenna driver
	RxSelReg       Register = 0x17 // Selects internal receiver settings
	RxThresholdReg Register = 0x18 // Selects thresholds for the bit decoder
	DemodReg       Register = 0x19 // Defines demodulator settings
	MfTxReg        Register = 0x1C // Controls some MIFARE communication transmit parameters
	MfRxReg        Register = 0x1D // Controls some MIFARE communication receive parameters
	SerialSpeedReg Register = 0x1F // Selects the speed of the serial UART interface

	// Page 2: configuration.
	CRCResultRegH     Register = 0x21 // MSB value of the CRC calculation
	CRCResultRegL     Register = 0x22 // LSB value of the CRC calculation
	ModWidthReg       Register = 0x24 // Controls the ModWidth setting
	RFCfgReg          Register = 0x26 // Configures the receiver gain
	GsNReg            Register = 0x27 // Conductance of the antenna driver pins TX1 and TX2 for modulation
	CWGsPReg          Register = 0x28 // Conductance of the p-driver output during periods of no modulation
	ModGsPReg         Register = 0x29 // Conductance of the p-driver output during periods of modulation
	TModeReg          Register = 0x2A // Defines settings for the internal timer
	TPrescalerReg     Register = 0x2B // Lower 8 bits of the TPrescaler value
	TReloadRegH       Register = 0x2C // Higher 8 bits of the 16-bit timer reload value
	TReloadRegL       Register = 0x2D // Lower 8 bits of the 16-bit timer reload value
	TCounterValueRegH Register = 0x2E // Higher 8 bits of the timer value
	TCounterValueRegL Register = 0x2F // Lower 8 bits of the timer value

	// Page 3: test registers.
	TestSel1Reg     Register = 0x31 // General test signal configuration
	TestSel2Reg     Register = 0x32 // General test signal configuration
	TestPinEnReg    Register = 0x33 // Enables pin output driver on pins D1 to D7
	TestPinValueReg Register = 0x34 // Defines the values for D1 to D7 when it is used as an I/O bus
	TestBusReg      Register = 0x35 // Shows the status of the internal test bus
	AutoTestReg     Register = 0x36 // Controls the digital self-test
	VersionReg      Register = 0x37 // Shows the software version
	AnalogTestReg   Register = 0x38 // Controls the pins AUX1 and AUX2
	TestDAC1Reg     Register = 0x39 // Defines the test value for TestDAC1
	TestDAC2Reg     Register = 0x3A // Defines the test value for TestDAC2
	TestADCReg      Register = 0x3B // Shows the value of ADC I and Q channels

	// maxRegister is the largest address that fits the 6-bit field.
	maxRegister Register = 0x3F
)

// Command is a chip command written to CommandReg, datasheet section 10.3.
type Command uint8

const (
	CmdIdle             Command = 0x00
	CmdMem              Command = 0x01
	CmdGenerateRandomID Command = 0x02
	CmdCalcCRC          Command = 0x03
	CmdTransmit         Command = 0x04
	CmdNoCmdChange      Command = 0x07
	CmdReceive          Command = 0x08
	CmdTransceive       Command = 0x0C
	CmdMFAuthent        Command = 0x0E
	CmdSoftReset        Command = 0x0F
)

// FIFOSize is the capacity of the chip FIFO in bytes.
const FIFOSize = 64

const (
	// SPI address byte framing, datasheet section 8.1.2.3.
	spiReadFlag = 0x80
	// UART address byte framing, datasheet section 8.1.3.3.
	uartReadFlag = 0x80

	// CommandReg bits.
	commandRcvOff    = 0b1 << 5
	commandPowerDown = 0b1 << 4
	commandMask      = 0b1111

	// ComIrqReg bits.
	irqSet1     = 0b1 << 7
	irqTx       = 0b1 << 6
	irqRx       = 0b1 << 5
	irqIdle     = 0b1 << 4
	irqHiAlert  = 0b1 << 3
	irqLoAlert  = 0b1 << 2
	irqErr      = 0b1 << 1
	irqTimer    = 0b1 << 0
	irqAllFlags = 0b0111_1111

	// ErrorReg bits.
	errWr        = 0b1 << 7
	errTemp      = 0b1 << 6
	errBufferOvf = 0b1 << 4
	errColl      = 0b1 << 3
	errCRC       = 0b1 << 2
	errParity    = 0b1 << 1
	errProtocol  = 0b1 << 0

	// FIFOLevelReg bits.
	fifoFlushBuffer = 0b1 << 7
	fifoLevelMask   = 0b0111_1111

	// BitFramingReg bits.
	bitFramingStartSend  = 0b1 << 7
	bitFramingRxAlignPos = 4
	bitFramingTxLastMask = 0b111

	// TModeReg bits.
	tModeTAuto          = 0b1 << 7
	tModeTAutoRestart   = 0b1 << 4
	tModePrescalerHiMsk = 0b1111

	// TxASKReg bits.
	txASKForce100ASK = 0b1 << 6

	// TxControlReg bits.
	txControlTx1RFEn = 0b1 << 0
	txControlTx2RFEn = 0b1 << 1
)

// Operating configuration written by Configure.
const (
	// timerPrescaler gives a timer frequency of 13.56 MHz/(2*0xd3e+1),
	// about 2 kHz, datasheet section 8.5.
	timerPrescaler = 0xd3e
	// timerReload is 30 ticks; at 2 kHz about 15 ms after the end
	// of transmission.
	timerReload = 0x001e
	// modeConfig makes the transmitter wait for the RF field, sets
	// MFIN active high and the CRC preset to 0x6363.
	modeConfig = 0x3d
)

// ChipVersion is the content of VersionReg.
type ChipVersion uint8

const (
	VersionClone ChipVersion = 0x88
	Version1     ChipVersion = 0x91
	Version2     ChipVersion = 0x92
)

func (v ChipVersion) String() string {
	switch v {
	case VersionClone:
		return "FM17522 clone"
	case Version1:
		return "MFRC522 v1.0"
	case Version2:
		return "MFRC522 v2.0"
	default:
		return fmt.Sprintf("unknown (%#.2x)", uint8(v))
	}
}
