// Package bustrace records register bus transfers for debugging
// and golden tests. Traces are stored as CBOR.
package bustrace

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Bus matches the Tx method of SPI and I2C connections.
type Bus interface {
	Tx(w, r []byte) error
}

// Transfer is one recorded bus transaction.
type Transfer struct {
	W []byte `cbor:"1,keyasint"`
	// R is nil for write-only transfers.
	R   []byte `cbor:"2,keyasint,omitempty"`
	Err string `cbor:"3,keyasint,omitempty"`
}

// Recorder is a Bus that records the transfers of the Bus it wraps.
type Recorder struct {
	bus       Bus
	Transfers []Transfer
}

func NewRecorder(b Bus) *Recorder {
	return &Recorder{bus: b}
}

func (r *Recorder) Tx(w, rd []byte) error {
	err := r.bus.Tx(w, rd)
	t := Transfer{W: append([]byte(nil), w...)}
	if rd != nil {
		t.R = append([]byte{}, rd...)
	}
	if err != nil {
		t.Err = err.Error()
	}
	r.Transfers = append(r.Transfers, t)
	return err
}

// Reset discards the recorded transfers.
func (r *Recorder) Reset() {
	r.Transfers = nil
}

const fileVersion = 1

type file struct {
	Version   int        `cbor:"1,keyasint"`
	Transfers []Transfer `cbor:"2,keyasint"`
}

// Encode writes a trace in CBOR.
func Encode(w io.Writer, ts []Transfer) error {
	return cbor.NewEncoder(w).Encode(file{Version: fileVersion, Transfers: ts})
}

// Decode reads a trace written by Encode.
func Decode(r io.Reader) ([]Transfer, error) {
	var f file
	if err := cbor.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("bustrace: %w", err)
	}
	if f.Version != fileVersion {
		return nil, fmt.Errorf("bustrace: unsupported version %d", f.Version)
	}
	return f.Transfers, nil
}

func WriteFile(path string, ts []Transfer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	bufw := bufio.NewWriter(f)
	if err := Encode(bufw, ts); err != nil {
		return err
	}
	return bufw.Flush()
}

func ReadFile(path string) ([]Transfer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Format writes one line per transfer: the written bytes in hex,
// then "> " and the read bytes if any, then "! " and the error if
// any.
func Format(w io.Writer, ts []Transfer) error {
	bufw := bufio.NewWriter(w)
	for _, t := range ts {
		bufw.WriteString(hex.EncodeToString(t.W))
		if t.R != nil {
			bufw.WriteString(" > ")
			bufw.WriteString(hex.EncodeToString(t.R))
		}
		if t.Err != "" {
			bufw.WriteString(" ! ")
			bufw.WriteString(t.Err)
		}
		bufw.WriteByte('\n')
	}
	return bufw.Flush()
}

// ErrNotRecorded is returned by a Replayer asked for a transfer
// that doesn't match the trace.
var ErrNotRecorded = errors.New("transfer not recorded")

// Replayer is a Bus that plays back a recorded trace, checking that
// the written bytes match.
type Replayer struct {
	ts []Transfer
}

func NewReplayer(ts []Transfer) *Replayer {
	return &Replayer{ts: ts}
}

func (p *Replayer) Tx(w, r []byte) error {
	if len(p.ts) == 0 {
		return fmt.Errorf("bustrace: %w: %x after end of trace", ErrNotRecorded, w)
	}
	t := p.ts[0]
	if string(t.W) != string(w) {
		return fmt.Errorf("bustrace: %w: %x, expected %x", ErrNotRecorded, w, t.W)
	}
	p.ts = p.ts[1:]
	if r != nil {
		copy(r, t.R)
	}
	if t.Err != "" {
		return errors.New(t.Err)
	}
	return nil
}

// Remaining returns the number of transfers not yet replayed.
func (p *Replayer) Remaining() int {
	return len(p.ts)
}
