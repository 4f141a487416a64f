package main

import (
	"bytes"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"rc522.dev/driver/mfrc522"
	"rc522.dev/internal/bustrace"
)

func TestSimulatedRequest(t *testing.T) {
	for _, cmd := range []string{"reqa", "wupa"} {
		t.Run(cmd, func(t *testing.T) {
			out, err := exec(t, "-bus", "sim", "-cmd", cmd)
			if err != nil {
				t.Fatal(err)
			}
			if want := "received 2 bytes: 04 00\n"; out != want {
				t.Errorf("got %q, want %q", out, want)
			}
		})
	}
}

func TestUnknownArguments(t *testing.T) {
	if _, err := exec(t, "-bus", "can"); err == nil {
		t.Error("unknown bus accepted")
	}
	if _, err := exec(t, "-bus", "sim", "-cmd", "select"); err == nil {
		t.Error("unknown request accepted")
	}
}

func TestTraceReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqa.cbor")
	if _, err := exec(t, "-bus", "sim", "-trace", path); err != nil {
		t.Fatal(err)
	}
	ts, err := bustrace.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Replaying the same session against the trace must match
	// every transfer.
	r := bustrace.NewReplayer(ts)
	d := mfrc522.New(r)
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Version(); err != nil {
		t.Fatal(err)
	}
	atqa := make([]byte, 16)
	n, err := d.Transceive([]byte{reqIdle}, 7, atqa)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(atqa[:n], []byte{0x04, 0x00}) {
		t.Errorf("replayed answer % x, want 04 00", atqa[:n])
	}
	if err := d.AntennaOff(); err != nil {
		t.Fatal(err)
	}
	if n := r.Remaining(); n != 0 {
		t.Errorf("%d transfers left in trace", n)
	}
	if err := d.AntennaOff(); !errors.Is(err, bustrace.ErrNotRecorded) {
		t.Errorf("transfer after end of trace: got %v, want %v", err, bustrace.ErrNotRecorded)
	}

	out, err := exec(t, "-dump", path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != len(ts) {
		t.Fatalf("dump has %d lines, want %d", len(lines), len(ts))
	}
	// The first transfer is the soft reset command.
	if lines[0] != "020f" {
		t.Errorf("first line %q, want %q", lines[0], "020f")
	}
}

func TestTraceUART(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uart.cbor")
	if _, err := exec(t, "-bus", "uart", "-trace", path); err == nil {
		t.Error("UART trace accepted")
	}
}

// exec runs the command with args, restoring the flag defaults
// afterwards.
func exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer func() {
		for _, name := range []string{"bus", "device", "cmd", "trace", "dump"} {
			f := flag.Lookup(name)
			f.Value.Set(f.DefValue)
		}
	}()
	for i := 0; i+1 < len(args); i += 2 {
		if err := flag.Set(strings.TrimPrefix(args[i], "-"), args[i+1]); err != nil {
			t.Fatal(err)
		}
	}
	out := new(bytes.Buffer)
	err := run(out)
	return out.String(), err
}
