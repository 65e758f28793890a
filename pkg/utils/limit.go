package utils

import (
	"errors"
	"io"
)

var ErrFileTooLarge = errors.New("file too large")

// ReadAllLimit reads at most max bytes and fails instead of truncating when
// the reader holds more.
func ReadAllLimit(r io.Reader, max int64) ([]byte, error) {
	lr := io.LimitReader(r, max+1)
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > max {
		return nil, ErrFileTooLarge
	}
	return b, nil
}
