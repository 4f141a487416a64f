//go:build !linux && !tinygo

package mfrc522

import "errors"

// SPIDev is a Linux spidev device; it is unavailable on this
// platform.
type SPIDev struct{}

func Open(path string) (*SPIDev, error) {
	return nil, errors.New("mfrc522: spidev requires Linux")
}

func (s *SPIDev) Tx(w, r []byte) error {
	return errors.New("mfrc522: spidev requires Linux")
}

func (s *SPIDev) Close() error {
	return nil
}
