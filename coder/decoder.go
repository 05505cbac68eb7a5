package coder

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// A Decoder reads an arithmetic-coded bit stream and reproduces the
// encoder's symbols, provided it is driven with the same sequence of
// frequency tables. It is a single mutable state machine and must not be
// shared between streams or goroutines.
type Decoder struct {
	rangeCoder
	in BitReader

	// The raw code bits buffered so far, always within [low, high].
	code uint64
}

// NewDecoder creates a decoder with the given state size in bits and
// primes code with numStateBits bits from in. Stream exhaustion reads as
// zero bits, so input a few bits shorter than a byte boundary still
// decodes correctly.
func NewDecoder(numStateBits int, in BitReader) (*Decoder, error) {
	c, err := newRangeCoder(numStateBits)
	if err != nil {
		return nil, err
	}
	d := &Decoder{rangeCoder: c, in: in}
	for i := 0; i < numStateBits; i++ {
		bit, err := d.readCodeBit()
		if err != nil {
			return nil, err
		}
		d.code = d.code<<1 | uint64(bit)
	}
	return d, nil
}

// Read decodes one symbol under the given frequency table and updates the
// coder state exactly as the encoder's Write did.
func (d *Decoder) Read(freqs FrequencyTable) (int, error) {
	total := uint64(freqs.Total())
	if total == 0 {
		return 0, errors.Wrap(ErrZeroFrequency, "empty table")
	}
	if total > d.maximumTotal {
		return 0, errors.Wrapf(ErrTotalTooLarge, "total %d > %d", total, d.maximumTotal)
	}
	if d.code < d.low || d.code > d.high {
		panic(fmt.Sprintf("coder: code out of range: code=%#x low=%#x high=%#x", d.code, d.low, d.high))
	}

	// Translate from code range scale to frequency table scale.
	rng := d.high - d.low + 1
	offset := d.code - d.low
	value := ((offset+1)*total - 1) / rng
	if value*rng/total > offset || value >= total {
		panic(fmt.Sprintf("coder: decoded value out of range: value=%d total=%d", value, total))
	}

	// Binary search for the highest symbol such that Low(symbol) <= value.
	start, end := 0, freqs.SymbolLimit()
	for end-start > 1 {
		middle := (start + end) >> 1
		low, err := freqs.Low(middle)
		if err != nil {
			return 0, err
		}
		if uint64(low) > value {
			end = middle
		} else {
			start = middle
		}
	}
	symbol := start

	symLow, err := freqs.Low(symbol)
	if err != nil {
		return 0, err
	}
	symHigh, err := freqs.High(symbol)
	if err != nil {
		return 0, err
	}
	if uint64(symLow) > value || value >= uint64(symHigh) {
		panic(fmt.Sprintf("coder: search failed: symbol=%d value=%d low=%d high=%d", symbol, value, symLow, symHigh))
	}

	if err := d.update(d, freqs, symbol); err != nil {
		return 0, err
	}
	return symbol, nil
}

func (d *Decoder) shift() error {
	bit, err := d.readCodeBit()
	if err != nil {
		return err
	}
	d.code = d.code<<1&d.stateMask | uint64(bit)
	return nil
}

func (d *Decoder) underflow() error {
	bit, err := d.readCodeBit()
	if err != nil {
		return err
	}
	// Mirror the encoder's carry toggle: hold the top bit, shift the rest.
	d.code = d.code&d.halfRange | d.code<<1&(d.stateMask>>1) | uint64(bit)
	return nil
}

// readCodeBit treats end of stream as an infinite number of trailing
// zeros.
func (d *Decoder) readCodeBit() (int, error) {
	bit, err := d.in.ReadBit()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return bit, nil
}
