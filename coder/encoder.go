package coder

import (
	"math"

	"github.com/pkg/errors"
)

// An Encoder turns a sequence of (table, symbol) pairs into an
// arithmetic-coded bit stream. It is a single mutable state machine and
// must not be shared between streams or goroutines.
type Encoder struct {
	rangeCoder
	out BitWriter

	// Number of saved underflow bits. Flushed, complemented, right after
	// the next decided top bit.
	numUnderflow uint64
}

// NewEncoder creates an encoder with the given state size in bits
// writing to out. 32 is the usual choice.
func NewEncoder(numStateBits int, out BitWriter) (*Encoder, error) {
	c, err := newRangeCoder(numStateBits)
	if err != nil {
		return nil, err
	}
	return &Encoder{rangeCoder: c, out: out}, nil
}

// Write encodes one symbol under the given frequency table. The symbol
// must have non-zero frequency and the table's total must not exceed the
// state size's maximum.
func (e *Encoder) Write(freqs FrequencyTable, symbol int) error {
	return e.update(e, freqs, symbol)
}

// Finish terminates the stream with a single 1 bit, which together with
// the coder invariants is enough for the decoder to disambiguate the
// final interval. Must be called exactly once, after the last Write.
func (e *Encoder) Finish() error {
	return e.out.WriteBit(1)
}

func (e *Encoder) shift() error {
	bit := int(e.low >> (e.numStateBits - 1))
	if err := e.out.WriteBit(bit); err != nil {
		return err
	}
	for ; e.numUnderflow > 0; e.numUnderflow-- {
		if err := e.out.WriteBit(bit ^ 1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) underflow() error {
	if e.numUnderflow == math.MaxUint64 {
		return errors.Wrap(ErrOverflow, "underflow counter")
	}
	e.numUnderflow++
	return nil
}
