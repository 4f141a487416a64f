// command rc522 polls for a card with an MFRC522 reader and prints
// its answer to request.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
	"rc522.dev/driver/mfrc522"
	"rc522.dev/internal/bustrace"
)

var (
	busType = flag.String("bus", "spidev", "bus: spidev, spi, i2c, uart or sim")
	device  = flag.String("device", "", "device path or periph.io bus name")
	freq    = flag.Int64("freq", 1_000_000, "SPI clock in Hz")
	addr    = flag.Uint("addr", mfrc522.DefaultI2CAddr, "I2C address")
	baud    = flag.Int("baud", mfrc522.DefaultBaudRate, "UART baud rate")
	timeout = flag.Duration("timeout", mfrc522.DefaultTimeout, "receive timeout")
	request = flag.String("cmd", "reqa", "request: reqa or wupa")
	trace   = flag.String("trace", "", "record bus transfers to CBOR file")
	dump    = flag.String("dump", "", "print the CBOR trace file and exit")
	verbose = flag.Bool("v", false, "log register traffic")
)

// ISO/IEC 14443-3 short frames, sent with 7 bits.
const (
	reqIdle = 0x26
	wakeUp  = 0x52
)

func main() {
	flag.Parse()
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "rc522: %v\n", err)
		os.Exit(2)
	}
}

func run(stdout io.Writer) (err error) {
	if *dump != "" {
		ts, err := bustrace.ReadFile(*dump)
		if err != nil {
			return err
		}
		return bustrace.Format(stdout, ts)
	}
	var req byte
	switch *request {
	case "reqa":
		req = reqIdle
	case "wupa":
		req = wakeUp
	default:
		return fmt.Errorf("unknown request %q", *request)
	}
	log, err := newLogger(*verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	c, err := open()
	if err != nil {
		return err
	}
	d := c.dev
	d.SetLogger(log)
	d.SetTimeout(*timeout)
	defer func() {
		// Turn off the field before releasing the bus.
		err = multierr.Combine(err, d.AntennaOff(), c.close())
		if c.rec != nil {
			err = multierr.Append(err, bustrace.WriteFile(*trace, c.rec.Transfers))
		}
	}()

	if err := d.Configure(); err != nil {
		return err
	}
	ver, err := d.Version()
	if err != nil {
		return err
	}
	log.Info("reader initialized", zap.Stringer("version", ver), zap.String("bus", *busType))

	atqa := make([]byte, 16)
	n, err := d.Transceive([]byte{req}, 7, atqa)
	switch {
	case errors.Is(err, mfrc522.ErrTimeout):
		fmt.Fprintln(stdout, "no card")
		return nil
	case errors.Is(err, mfrc522.ErrTruncated):
		log.Warn("answer truncated", zap.Error(err))
	case err != nil:
		return err
	}
	fmt.Fprintf(stdout, "received %d bytes: % x\n", n, atqa[:n])
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

// conn is an open reader.
type conn struct {
	dev   *mfrc522.Device
	rec   *bustrace.Recorder
	close func() error
}

func open() (*conn, error) {
	var (
		bus       mfrc522.Bus
		newDevice = mfrc522.New
		closeBus  = func() error { return nil }
	)
	switch *busType {
	case "spidev":
		path := *device
		if path == "" {
			path = "/dev/spidev0.0"
		}
		s, err := mfrc522.Open(path)
		if err != nil {
			return nil, err
		}
		bus, closeBus = s, s.Close
	case "spi":
		p, err := mfrc522.OpenSPI(*device, physic.Frequency(*freq)*physic.Hertz)
		if err != nil {
			return nil, err
		}
		bus, closeBus = p, p.Close
	case "i2c":
		p, err := mfrc522.OpenI2C(*device, uint16(*addr))
		if err != nil {
			return nil, err
		}
		bus, closeBus, newDevice = p, p.Close, mfrc522.NewI2C
	case "uart":
		if *trace != "" {
			return nil, errors.New("-trace requires an SPI or I2C bus")
		}
		path := *device
		if path == "" {
			path = "/dev/serial0"
		}
		s, err := mfrc522.OpenUART(path, *baud)
		if err != nil {
			return nil, err
		}
		return &conn{dev: mfrc522.NewUART(s), close: s.Close}, nil
	case "sim":
		sim := mfrc522.NewSimulator()
		sim.Card = simulatedCard
		bus = sim
	default:
		return nil, fmt.Errorf("unknown bus %q", *busType)
	}
	c := &conn{close: closeBus}
	if *trace != "" {
		c.rec = bustrace.NewRecorder(bus)
		bus = c.rec
	}
	c.dev = newDevice(bus)
	return c, nil
}

// simulatedCard answers requests like a MIFARE Classic 1K.
func simulatedCard(frame []byte, lastBits int) []byte {
	if len(frame) == 1 && lastBits == 7 && (frame[0] == reqIdle || frame[0] == wakeUp) {
		return []byte{0x04, 0x00}
	}
	return nil
}
