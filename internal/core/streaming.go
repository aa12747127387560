package core

import (
	"errors"
	"io"
)

// ErrCSVTooLarge is returned when a CSV document exceeds the configured size.
var ErrCSVTooLarge = errors.New("csv file too large")

// cappedReader counts bytes read and fails once more than max have been
// read, so oversized uploads stop without being buffered whole.
type cappedReader struct {
	r    io.Reader
	max  int64
	read int64
}

func newCappedReader(r io.Reader, max int64) *cappedReader {
	return &cappedReader{r: r, max: max}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.max > 0 && c.read > c.max {
		return 0, ErrCSVTooLarge
	}
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.max > 0 && c.read > c.max {
		return n, ErrCSVTooLarge
	}
	return n, err
}

// BytesRead reports how many bytes have been consumed so far.
func (c *cappedReader) BytesRead() int64 { return c.read }
