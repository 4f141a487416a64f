package bustrace

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// echoBus answers every read with the bitwise inverse of the written
// bytes.
type echoBus struct {
	fail error
}

func (b *echoBus) Tx(w, r []byte) error {
	for i := range r {
		r[i] = ^w[i]
	}
	return b.fail
}

func TestRecordReplay(t *testing.T) {
	bus := new(echoBus)
	rec := NewRecorder(bus)
	if err := rec.Tx([]byte{0x22, 0x3d}, nil); err != nil {
		t.Fatal(err)
	}
	r := make([]byte, 2)
	if err := rec.Tx([]byte{0xee, 0x00}, r); err != nil {
		t.Fatal(err)
	}
	bus.fail = errors.New("bus stuck")
	if err := rec.Tx([]byte{0x82, 0x00}, make([]byte, 2)); err == nil {
		t.Fatal("failing transfer succeeded")
	}
	want := []Transfer{
		{W: []byte{0x22, 0x3d}},
		{W: []byte{0xee, 0x00}, R: []byte{0x11, 0xff}},
		{W: []byte{0x82, 0x00}, R: []byte{0x7d, 0xff}, Err: "bus stuck"},
	}
	if d := cmp.Diff(want, rec.Transfers); d != "" {
		t.Fatalf("recorded transfers (-want +got):\n%s", d)
	}
	// Recorded buffers must not alias the caller's.
	r[0] = 0
	if rec.Transfers[1].R[0] != 0x11 {
		t.Error("recorded read aliases the transfer buffer")
	}

	path := filepath.Join(t.TempDir(), "trace.cbor")
	if err := WriteFile(path, rec.Transfers); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("decoded transfers (-want +got):\n%s", d)
	}

	p := NewReplayer(got)
	if err := p.Tx([]byte{0x22, 0x3d}, nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Tx([]byte{0xee, 0x01}, r); !errors.Is(err, ErrNotRecorded) {
		t.Errorf("mismatched transfer: got %v, want %v", err, ErrNotRecorded)
	}
	if err := p.Tx([]byte{0xee, 0x00}, r); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(r, []byte{0x11, 0xff}) {
		t.Errorf("replayed % x, want 11 ff", r)
	}
	if err := p.Tx([]byte{0x82, 0x00}, r); err == nil || err.Error() != "bus stuck" {
		t.Errorf("replayed error %v, want bus stuck", err)
	}
	if n := p.Remaining(); n != 0 {
		t.Errorf("%d transfers remaining", n)
	}
	if err := p.Tx([]byte{0x22, 0x3d}, nil); !errors.Is(err, ErrNotRecorded) {
		t.Errorf("transfer after end: got %v, want %v", err, ErrNotRecorded)
	}

	rec.Reset()
	if len(rec.Transfers) != 0 {
		t.Error("Reset kept transfers")
	}
}

func TestFormat(t *testing.T) {
	ts := []Transfer{
		{W: []byte{0x02, 0x0f}},
		{W: []byte{0x82, 0x00}, R: []byte{0x00, 0x20}},
		{W: []byte{0x84, 0x00}, R: []byte{0x00, 0x00}, Err: "timeout"},
	}
	var buf bytes.Buffer
	if err := Format(&buf, ts); err != nil {
		t.Fatal(err)
	}
	want := "020f\n8200 > 0020\n8400 > 0000 ! timeout\n"
	if got := buf.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestDecodeVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	// The version is the first map value: {1: 1, 2: ...}.
	if len(b) < 3 || b[1] != 0x01 || b[2] != fileVersion {
		t.Fatalf("unexpected encoding % x", b)
	}
	b[2] = fileVersion + 1
	if _, err := Decode(bytes.NewReader(b)); err == nil {
		t.Error("unsupported version decoded")
	}
}
