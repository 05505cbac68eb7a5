package coder

import (
	"fmt"

	"github.com/pkg/errors"
)

// A CheckedTable wraps another FrequencyTable and validates every call:
// out-of-range symbols are reported as errors before delegating, and any
// breach of the cumulative ordering invariant by the wrapped table panics,
// since that is a defect in the table, not in the caller. Intended for
// tests and debugging of new table implementations.
type CheckedTable struct {
	ft FrequencyTable
}

func NewCheckedTable(ft FrequencyTable) *CheckedTable {
	return &CheckedTable{ft: ft}
}

func (c *CheckedTable) SymbolLimit() int {
	n := c.ft.SymbolLimit()
	if n < 2 {
		panic(fmt.Sprintf("coder: checked table: symbol limit %d out of range", n))
	}
	return n
}

func (c *CheckedTable) Get(symbol int) (uint32, error) {
	if err := c.checkSymbol(symbol); err != nil {
		return 0, err
	}
	return c.ft.Get(symbol)
}

func (c *CheckedTable) Set(symbol int, freq uint32) error {
	if err := c.checkSymbol(symbol); err != nil {
		return err
	}
	return c.ft.Set(symbol, freq)
}

func (c *CheckedTable) Increment(symbol int) error {
	if err := c.checkSymbol(symbol); err != nil {
		return err
	}
	return c.ft.Increment(symbol)
}

func (c *CheckedTable) Total() uint32 {
	return c.ft.Total()
}

func (c *CheckedTable) Low(symbol int) (uint32, error) {
	if err := c.checkSymbol(symbol); err != nil {
		return 0, err
	}
	low, err := c.ft.Low(symbol)
	if err != nil {
		return 0, err
	}
	c.verifyCumulative(symbol, low)
	return low, nil
}

func (c *CheckedTable) High(symbol int) (uint32, error) {
	if err := c.checkSymbol(symbol); err != nil {
		return 0, err
	}
	low, err := c.ft.Low(symbol)
	if err != nil {
		return 0, err
	}
	c.verifyCumulative(symbol, low)
	return c.ft.High(symbol)
}

func (c *CheckedTable) checkSymbol(symbol int) error {
	if symbol < 0 || symbol >= c.ft.SymbolLimit() {
		return errors.Wrapf(ErrSymbolRange, "symbol %d", symbol)
	}
	return nil
}

// verifyCumulative panics unless Low(symbol) <= High(symbol) <= Total(),
// and, for the last symbol, High == Total.
func (c *CheckedTable) verifyCumulative(symbol int, low uint32) {
	high, err := c.ft.High(symbol)
	if err != nil {
		panic(fmt.Sprintf("coder: checked table: High(%d) failed after Low succeeded: %v", symbol, err))
	}
	total := c.ft.Total()
	if low > high || high > total {
		panic(fmt.Sprintf("coder: checked table: cumulative invariant broken at symbol %d: low=%d high=%d total=%d",
			symbol, low, high, total))
	}
	if symbol == c.ft.SymbolLimit()-1 && high != total {
		panic(fmt.Sprintf("coder: checked table: High(last)=%d != Total()=%d", high, total))
	}
}
