// Package golden compares test output with golden files.
package golden

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
)

// Compare compares got with the golden file at path, or replaces
// the file with got if update is set. A mismatch is reported with
// the first differing line.
func Compare(path string, update bool, got []byte) error {
	if update {
		return os.WriteFile(path, got, 0o640)
	}
	want, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if bytes.Equal(got, want) {
		return nil
	}
	gotLines, wantLines := lines(got), lines(want)
	for i := 0; i < min(len(gotLines), len(wantLines)); i++ {
		if g, w := gotLines[i], wantLines[i]; g != w {
			return fmt.Errorf("%s:%d: got %q, want %q", path, i+1, g, w)
		}
	}
	return fmt.Errorf("%s: got %d lines, want %d", path, len(gotLines), len(wantLines))
}

func lines(b []byte) []string {
	var res []string
	s := bufio.NewScanner(bytes.NewReader(b))
	for s.Scan() {
		res = append(res, s.Text())
	}
	return res
}
