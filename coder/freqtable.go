package coder

import (
	"github.com/pkg/errors"
)

// Errors reported by frequency tables and coders. These cover caller
// mistakes and arithmetic overflow; violations of internal coder
// invariants panic instead, since they indicate a bug in this package
// rather than bad input.
var (
	// ErrSymbolRange is returned when a symbol lies outside [0, SymbolLimit).
	ErrSymbolRange = errors.New("symbol out of range")

	// ErrOverflow is returned when a frequency total or the encoder's
	// underflow counter would exceed its integer width.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrZeroFrequency is returned when a symbol with zero frequency is
	// asked to be coded.
	ErrZeroFrequency = errors.New("symbol has zero frequency")

	// ErrTotalTooLarge is returned when a table's total exceeds the
	// maximum the coder's state size permits.
	ErrTotalTooLarge = errors.New("frequency total too large for coder state size")

	// ErrImmutable is returned by mutating calls on immutable tables.
	ErrImmutable = errors.New("table is immutable")
)

// A FrequencyTable maps symbols in [0, SymbolLimit) to non-negative
// frequencies and exposes the cumulative sums the coder divides the code
// range by. For every symbol s, 0 <= Low(s) <= High(s) <= Total(), and
// High(SymbolLimit()-1) == Total().
type FrequencyTable interface {
	// SymbolLimit returns the number of symbols in the table, at least 2.
	SymbolLimit() int

	// Get returns the frequency of the symbol.
	Get(symbol int) (uint32, error)

	// Set sets the frequency of the symbol.
	Set(symbol int, freq uint32) error

	// Increment adds one to the frequency of the symbol.
	Increment(symbol int) error

	// Total returns the sum of all symbol frequencies.
	Total() uint32

	// Low returns the sum of the frequencies of all symbols below the
	// given one.
	Low(symbol int) (uint32, error)

	// High returns the sum of the frequencies of the given symbol and all
	// symbols below it.
	High(symbol int) (uint32, error)
}

// checkedAdd adds two frequencies, reporting ErrOverflow instead of
// wrapping around.
func checkedAdd(x, y uint32) (uint32, error) {
	z := x + y
	if z < x {
		return 0, errors.Wrap(ErrOverflow, "frequency total")
	}
	return z, nil
}

// A FlatTable gives every symbol a frequency of 1. Immutable. It serves
// as an uninformative prior, for example the order -1 table of a PPM
// model.
type FlatTable struct {
	numSymbols int
}

func NewFlatTable(numSymbols int) (*FlatTable, error) {
	if numSymbols < 2 {
		return nil, errors.Errorf("at least 2 symbols needed, got %d", numSymbols)
	}
	return &FlatTable{numSymbols: numSymbols}, nil
}

func (t *FlatTable) SymbolLimit() int {
	return t.numSymbols
}

func (t *FlatTable) Get(symbol int) (uint32, error) {
	if symbol < 0 || symbol >= t.numSymbols {
		return 0, errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	return 1, nil
}

func (t *FlatTable) Set(symbol int, freq uint32) error {
	return errors.Wrap(ErrImmutable, "flat table")
}

func (t *FlatTable) Increment(symbol int) error {
	return errors.Wrap(ErrImmutable, "flat table")
}

func (t *FlatTable) Total() uint32 {
	return uint32(t.numSymbols)
}

func (t *FlatTable) Low(symbol int) (uint32, error) {
	if symbol < 0 || symbol >= t.numSymbols {
		return 0, errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	return uint32(symbol), nil
}

func (t *FlatTable) High(symbol int) (uint32, error) {
	if symbol < 0 || symbol >= t.numSymbols {
		return 0, errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	return uint32(symbol) + 1, nil
}

// A SimpleTable is a mutable frequency table backed by an array of
// frequencies and a lazily rebuilt cumulative prefix-sum cache. The cache
// is invalidated on every mutation, so a rebuild costs O(SymbolLimit) on
// the next cumulative query. Callers needing better asymptotics can put a
// Fenwick-tree table behind the same interface.
type SimpleTable struct {
	frequencies []uint32
	cumulative  []uint32 // nil when invalid
	total       uint32
}

// NewSimpleTable constructs a table with the given initial frequencies.
// The slice is copied, so later mutation by the caller cannot corrupt
// coder state.
func NewSimpleTable(freqs []uint32) (*SimpleTable, error) {
	if len(freqs) < 2 {
		return nil, errors.Errorf("at least 2 symbols needed, got %d", len(freqs))
	}
	t := &SimpleTable{frequencies: append([]uint32(nil), freqs...)}
	for _, f := range t.frequencies {
		total, err := checkedAdd(t.total, f)
		if err != nil {
			return nil, err
		}
		t.total = total
	}
	return t, nil
}

// NewSimpleTableFrom copies the current frequencies of another table,
// typically a FlatTable used as the starting point of an adaptive coder.
func NewSimpleTableFrom(ft FrequencyTable) (*SimpleTable, error) {
	freqs := make([]uint32, ft.SymbolLimit())
	for i := range freqs {
		f, err := ft.Get(i)
		if err != nil {
			return nil, err
		}
		freqs[i] = f
	}
	return NewSimpleTable(freqs)
}

func (t *SimpleTable) SymbolLimit() int {
	return len(t.frequencies)
}

func (t *SimpleTable) Get(symbol int) (uint32, error) {
	if symbol < 0 || symbol >= len(t.frequencies) {
		return 0, errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	return t.frequencies[symbol], nil
}

func (t *SimpleTable) Set(symbol int, freq uint32) error {
	if symbol < 0 || symbol >= len(t.frequencies) {
		return errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	total, err := checkedAdd(t.total-t.frequencies[symbol], freq)
	if err != nil {
		return err
	}
	t.total = total
	t.frequencies[symbol] = freq
	t.cumulative = nil
	return nil
}

func (t *SimpleTable) Increment(symbol int) error {
	if symbol < 0 || symbol >= len(t.frequencies) {
		return errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	if _, err := checkedAdd(t.frequencies[symbol], 1); err != nil {
		return err
	}
	total, err := checkedAdd(t.total, 1)
	if err != nil {
		return err
	}
	t.total = total
	t.frequencies[symbol]++
	t.cumulative = nil
	return nil
}

func (t *SimpleTable) Total() uint32 {
	return t.total
}

func (t *SimpleTable) Low(symbol int) (uint32, error) {
	if symbol < 0 || symbol >= len(t.frequencies) {
		return 0, errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	if t.cumulative == nil {
		t.initCumulative()
	}
	return t.cumulative[symbol], nil
}

func (t *SimpleTable) High(symbol int) (uint32, error) {
	if symbol < 0 || symbol >= len(t.frequencies) {
		return 0, errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	if t.cumulative == nil {
		t.initCumulative()
	}
	return t.cumulative[symbol+1], nil
}

func (t *SimpleTable) initCumulative() {
	cum := make([]uint32, len(t.frequencies)+1)
	var sum uint32
	for i, f := range t.frequencies {
		// Cannot wrap: every mutation overflow-checked the running total.
		sum += f
		cum[i+1] = sum
	}
	if sum != t.total {
		panic("coder: cumulative sum disagrees with running total")
	}
	t.cumulative = cum
}
