// Package coder implements an arithmetic (range) coder driven by
// cumulative frequency tables. The encoder and decoder share one
// range-narrowing routine and stay synchronized bit for bit; feeding the
// decoder the same sequence of tables the encoder saw reproduces the
// original symbols exactly.
package coder

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// State size limits for low/high. 62 is the largest width for which
// maximumTotal stays at least 1 with uint64 intermediates.
const (
	MinStateBits = 1
	MaxStateBits = 62
)

// A BitWriter accepts single bits, most significant first. *bitio.Writer
// satisfies it.
type BitWriter interface {
	WriteBit(bit int) error
}

// A BitReader yields single bits, most significant first, returning
// io.EOF once exhausted. *bitio.Reader satisfies it.
type BitReader interface {
	ReadBit() (int, error)
}

// rangeCoder holds the interval state and derived constants shared by the
// encoder and decoder. low conceptually has an infinite number of
// trailing 0s, high an infinite number of trailing 1s.
type rangeCoder struct {
	numStateBits uint
	fullRange    uint64 // 2^numStateBits
	halfRange    uint64 // top bit
	quarterRange uint64 // second highest bit, zero when numStateBits == 1
	minimumRange uint64 // quarterRange + 2
	maximumTotal uint64 // ceiling on any table's total while coding
	stateMask    uint64 // numStateBits ones

	low  uint64
	high uint64
}

func newRangeCoder(numStateBits int) (rangeCoder, error) {
	if numStateBits < MinStateBits || numStateBits > MaxStateBits {
		return rangeCoder{}, errors.Errorf("state size %d out of range [%d, %d]", numStateBits, MinStateBits, MaxStateBits)
	}
	c := rangeCoder{numStateBits: uint(numStateBits)}
	c.fullRange = 1 << c.numStateBits
	c.halfRange = c.fullRange >> 1
	c.quarterRange = c.halfRange >> 1
	c.minimumRange = c.quarterRange + 2
	c.maximumTotal = math.MaxUint64 / c.fullRange
	if c.minimumRange < c.maximumTotal {
		c.maximumTotal = c.minimumRange
	}
	c.stateMask = c.fullRange - 1
	c.low = 0
	c.high = c.stateMask
	return c, nil
}

// bitHooks supplies the coder-specific halves of renormalization: shift
// runs when low and high agree on their top bit, underflow when they
// converge toward the midpoint without agreeing.
type bitHooks interface {
	shift() error
	underflow() error
}

// update narrows [low, high] to the sub-interval of the given symbol and
// renormalizes. Invariants that hold before and after every call:
// low < high, both fit in numStateBits bits, low and high lie in
// different halves of the full range, and minimumRange <= high-low+1 <=
// fullRange. Breaking them is a bug in this package and panics.
func (c *rangeCoder) update(hooks bitHooks, freqs FrequencyTable, symbol int) error {
	if c.low >= c.high || c.low&c.stateMask != c.low || c.high&c.stateMask != c.high {
		panic(fmt.Sprintf("coder: low or high out of range: low=%#x high=%#x", c.low, c.high))
	}
	rng := c.high - c.low + 1
	if rng < c.minimumRange || rng > c.fullRange {
		panic(fmt.Sprintf("coder: range out of range: %#x", rng))
	}

	total := uint64(freqs.Total())
	symLow, err := freqs.Low(symbol)
	if err != nil {
		return err
	}
	symHigh, err := freqs.High(symbol)
	if err != nil {
		return err
	}
	if symLow == symHigh {
		return errors.Wrapf(ErrZeroFrequency, "symbol %d", symbol)
	}
	if total > c.maximumTotal {
		return errors.Wrapf(ErrTotalTooLarge, "total %d > %d", total, c.maximumTotal)
	}

	c.low, c.high = c.low+uint64(symLow)*rng/total, c.low+uint64(symHigh)*rng/total-1

	// Shift out bits while low and high share their top bit.
	for (c.low^c.high)&c.halfRange == 0 {
		if err := hooks.shift(); err != nil {
			return err
		}
		c.low = c.low << 1 & c.stateMask
		c.high = c.high<<1&c.stateMask | 1
	}

	// While low is 01... and high is 10..., delete the second highest bit
	// of both. The carry is undecided, so the top bit of each is held
	// fixed while the rest shifts.
	for c.low & ^c.high & c.quarterRange != 0 {
		if err := hooks.underflow(); err != nil {
			return err
		}
		c.low = c.low << 1 ^ c.halfRange
		c.high = (c.high^c.halfRange)<<1 | c.halfRange | 1
	}
	return nil
}
