// Package bitio provides MSB-first bit streams over byte-oriented readers
// and writers. The compressed formats produced by this module are defined
// in terms of single bits, so the coder talks to these types rather than
// to io.Reader/io.Writer directly.
package bitio

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// A Writer accumulates bits most-significant first and flushes them to the
// underlying io.Writer one byte at a time.
type Writer struct {
	w       io.Writer
	current byte
	nbits   uint
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBit appends a single bit, which must be 0 or 1.
func (bw *Writer) WriteBit(bit int) error {
	if bit != 0 && bit != 1 {
		return errors.Errorf("bad bit %d", bit)
	}
	bw.current = bw.current<<1 | byte(bit)
	bw.nbits++
	if bw.nbits == 8 {
		if _, err := bw.w.Write([]byte{bw.current}); err != nil {
			return errors.Wrap(err, "")
		}
		bw.current, bw.nbits = 0, 0
	}
	return nil
}

// WriteBits appends the n lowest bits of value, most significant first.
func (bw *Writer) WriteBits(value uint64, n int) error {
	if n < 0 || n > 64 {
		return errors.Errorf("bad bit count %d", n)
	}
	for i := n - 1; i >= 0; i-- {
		if err := bw.WriteBit(int(value>>uint(i)) & 1); err != nil {
			return err
		}
	}
	return nil
}

// Close pads the current byte with zero bits and writes it out.
// It does not close the underlying writer.
func (bw *Writer) Close() error {
	for bw.nbits != 0 {
		if err := bw.WriteBit(0); err != nil {
			return err
		}
	}
	return nil
}

// A Reader yields bits most-significant first from the underlying reader.
// ReadBit returns io.EOF once the byte stream is exhausted.
type Reader struct {
	r       io.ByteReader
	current byte
	nbits   uint
}

func NewReader(r io.Reader) *Reader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

func (br *Reader) ReadBit() (int, error) {
	if br.nbits == 0 {
		b, err := br.r.ReadByte()
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, errors.Wrap(err, "")
		}
		br.current, br.nbits = b, 8
	}
	br.nbits--
	return int(br.current>>br.nbits) & 1, nil
}

// ReadBits reads n bits and returns them as the low bits of a uint64,
// most significant first. io.EOF is returned bare so that callers can
// distinguish a truncated stream from an I/O failure.
func (br *Reader) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, errors.Errorf("bad bit count %d", n)
	}
	var v uint64
	for i := 0; i < n; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(bit)
	}
	return v, nil
}
