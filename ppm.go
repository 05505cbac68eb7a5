package arith

import (
	"github.com/pkg/errors"

	"github.com/refcodec/arith/coder"
)

// symbolEncoder and symbolDecoder are the coder operations the model
// drives. *coder.Encoder and *coder.Decoder satisfy them; tests substitute
// recorders.
type symbolEncoder interface {
	Write(freqs coder.FrequencyTable, symbol int) error
}

type symbolDecoder interface {
	Read(freqs coder.FrequencyTable) (int, error)
}

// A Context is one node of the PPM trie: a frequency table over the full
// alphabet, and lazily created child contexts indexed by the next older
// history symbol. Contexts at the maximum order have no children slice.
type Context struct {
	Freqs    *coder.SimpleTable
	children []*Context
}

// newContext seeds the fresh table with one count on the escape symbol so
// the context can always be escaped out of.
func newContext(symbolLimit, escapeSymbol int, hasChildren bool) *Context {
	freqs, err := coder.NewSimpleTable(make([]uint32, symbolLimit))
	if err != nil {
		panic(err) // symbolLimit was validated at model construction
	}
	if err := freqs.Increment(escapeSymbol); err != nil {
		panic(err)
	}
	ctx := &Context{Freqs: freqs}
	if hasChildren {
		ctx.children = make([]*Context, symbolLimit)
	}
	return ctx
}

// A PPM is a prediction-by-partial-matching model: an order-bounded trie
// of per-context frequency tables plus a flat order -1 fallback. Coding a
// symbol tries the longest available context first and emits the reserved
// escape symbol to drop to shorter ones; the order -1 table cannot escape,
// which guarantees termination.
//
// The trie grows monotonically and is never pruned, up to
// symbolLimit^(modelOrder+1) nodes in the worst case. Encoder and decoder
// sides must drive their models identically, symbol for symbol; any
// divergence silently corrupts all subsequent output.
type PPM struct {
	// ModelOrder bounds the context length, at least -1. Order -1 models
	// code everything against the flat table.
	ModelOrder int

	symbolLimit  int
	escapeSymbol int

	// Root is the order-0 context, nil when ModelOrder is -1.
	Root *Context

	// OrderMinus1 is the flat fallback table, owned by this model rather
	// than shared process-wide.
	OrderMinus1 coder.FrequencyTable
}

// NewPPM constructs a model over symbols in [0, symbolLimit), one of
// which is reserved as the escape symbol.
func NewPPM(order, symbolLimit, escapeSymbol int) (*PPM, error) {
	if order < -1 {
		return nil, errors.Errorf("model order %d out of range", order)
	}
	if symbolLimit < 2 {
		return nil, errors.Errorf("at least 2 symbols needed, got %d", symbolLimit)
	}
	if escapeSymbol < 0 || escapeSymbol >= symbolLimit {
		return nil, errors.Errorf("escape symbol %d out of range [0, %d)", escapeSymbol, symbolLimit)
	}
	m := &PPM{
		ModelOrder:   order,
		symbolLimit:  symbolLimit,
		escapeSymbol: escapeSymbol,
	}
	if order >= 0 {
		m.Root = newContext(symbolLimit, escapeSymbol, order >= 1)
	}
	flat, err := coder.NewFlatTable(symbolLimit)
	if err != nil {
		return nil, err
	}
	m.OrderMinus1 = flat
	return m, nil
}

// EncodeSymbol codes one symbol against the history, which lists the most
// recent symbols newest first and is owned by the caller. Orders are
// tried from len(history) down to 0, escaping at each context that lacks
// the symbol, then the flat table codes it unconditionally. Coding the
// escape symbol itself (for example as end of stream) escapes all the way
// down.
func (m *PPM) EncodeSymbol(enc symbolEncoder, history []int, symbol int) error {
	if err := m.checkArgs(history, symbol); err != nil {
		return err
	}
outer:
	for order := len(history); order >= 0 && m.Root != nil; order-- {
		ctx := m.Root
		for i := 0; i < order; i++ {
			if ctx.children == nil {
				panic("arith: context below model order has no children")
			}
			ctx = ctx.children[history[i]]
			if ctx == nil {
				continue outer
			}
		}
		if symbol != m.escapeSymbol {
			f, err := ctx.Freqs.Get(symbol)
			if err != nil {
				return err
			}
			if f > 0 {
				return enc.Write(ctx.Freqs, symbol)
			}
		}
		// Not predictable at this order, escape to the next lower one.
		if err := enc.Write(ctx.Freqs, m.escapeSymbol); err != nil {
			return err
		}
	}
	return enc.Write(m.OrderMinus1, symbol)
}

// DecodeSymbol mirrors EncodeSymbol step for step: each escape read from a
// context drops to the next lower order, and a read from the flat table
// yields the symbol itself (which may be the escape symbol, marking end of
// stream in the byte pipelines).
func (m *PPM) DecodeSymbol(dec symbolDecoder, history []int) (int, error) {
	if err := m.checkArgs(history, m.escapeSymbol); err != nil {
		return 0, err
	}
outer:
	for order := len(history); order >= 0 && m.Root != nil; order-- {
		ctx := m.Root
		for i := 0; i < order; i++ {
			if ctx.children == nil {
				panic("arith: context below model order has no children")
			}
			ctx = ctx.children[history[i]]
			if ctx == nil {
				continue outer
			}
		}
		symbol, err := dec.Read(ctx.Freqs)
		if err != nil {
			return 0, err
		}
		if symbol != m.escapeSymbol {
			return symbol, nil
		}
	}
	return dec.Read(m.OrderMinus1)
}

// IncrementContexts updates the counts of the symbol in the contexts of
// every order from 0 to len(history), creating missing contexts along the
// way. Both coding sides must call this identically after each symbol so
// their models evolve in lockstep.
func (m *PPM) IncrementContexts(history []int, symbol int) error {
	if m.ModelOrder == -1 {
		return nil
	}
	if err := m.checkArgs(history, symbol); err != nil {
		return err
	}

	ctx := m.Root
	if err := ctx.Freqs.Increment(symbol); err != nil {
		return err
	}
	for i, sym := range history {
		if ctx.children == nil {
			panic("arith: context below model order has no children")
		}
		if ctx.children[sym] == nil {
			ctx.children[sym] = newContext(m.symbolLimit, m.escapeSymbol, i+1 < m.ModelOrder)
		}
		ctx = ctx.children[sym]
		if err := ctx.Freqs.Increment(symbol); err != nil {
			return err
		}
	}
	return nil
}

func (m *PPM) checkArgs(history []int, symbol int) error {
	if m.ModelOrder >= 0 && len(history) > m.ModelOrder {
		return errors.Errorf("history length %d exceeds model order %d", len(history), m.ModelOrder)
	}
	if symbol < 0 || symbol >= m.symbolLimit {
		return errors.Wrapf(coder.ErrSymbolRange, "symbol %d", symbol)
	}
	for _, sym := range history {
		if sym < 0 || sym >= m.symbolLimit {
			return errors.Wrapf(coder.ErrSymbolRange, "history symbol %d", sym)
		}
	}
	return nil
}
