package arith

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/refcodec/arith/coder"
)

func TestNewPPMValidation(t *testing.T) {
	_, err := NewPPM(-2, 257, 256)
	require.Error(t, err)
	_, err = NewPPM(2, 1, 0)
	require.Error(t, err)
	_, err = NewPPM(2, 257, 257)
	require.Error(t, err)
	_, err = NewPPM(2, 257, -1)
	require.Error(t, err)

	m, err := NewPPM(-1, 257, 256)
	require.NoError(t, err)
	require.Nil(t, m.Root)

	m, err = NewPPM(0, 257, 256)
	require.NoError(t, err)
	require.NotNil(t, m.Root)
	require.Nil(t, m.Root.children)

	m, err = NewPPM(2, 257, 256)
	require.NoError(t, err)
	require.NotNil(t, m.Root.children)
}

func TestContextSeededWithEscape(t *testing.T) {
	m, err := NewPPM(1, 5, 4)
	require.NoError(t, err)

	// A fresh context escapes with certainty: only the escape symbol has
	// spent weight.
	require.Equal(t, uint32(1), m.Root.Freqs.Total())
	f, err := m.Root.Freqs.Get(4)
	require.NoError(t, err)
	require.Equal(t, uint32(1), f)
}

func TestHistoryValidation(t *testing.T) {
	m, err := NewPPM(1, 5, 4)
	require.NoError(t, err)

	require.Error(t, m.IncrementContexts([]int{0, 1}, 2))
	require.Error(t, m.EncodeSymbol(&recordingEncoder{}, []int{0, 1}, 2))
	_, err = m.DecodeSymbol(&fixedDecoder{}, []int{0, 1})
	require.Error(t, err)

	err = m.IncrementContexts(nil, 5)
	require.ErrorIs(t, err, coder.ErrSymbolRange)
	err = m.IncrementContexts([]int{9}, 0)
	require.ErrorIs(t, err, coder.ErrSymbolRange)
}

func TestIncrementContextsGrowsTree(t *testing.T) {
	m, err := NewPPM(2, 5, 4)
	require.NoError(t, err)

	require.NoError(t, m.IncrementContexts(nil, 0))
	require.NoError(t, m.IncrementContexts([]int{0}, 1))
	require.NoError(t, m.IncrementContexts([]int{1, 0}, 2))

	child0 := m.Root.children[0]
	require.NotNil(t, child0)
	f, err := child0.Freqs.Get(1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), f)

	child1 := m.Root.children[1]
	require.NotNil(t, child1)
	grandchild := child1.children[0]
	require.NotNil(t, grandchild)
	// Contexts at the maximum order are leaves.
	require.Nil(t, grandchild.children)
	f, err = grandchild.Freqs.Get(2)
	require.NoError(t, err)
	require.Equal(t, uint32(1), f)
}

type symbolWrite struct {
	freqs  coder.FrequencyTable
	symbol int
}

// recordingEncoder captures EncodeSymbol's coding steps without coding.
type recordingEncoder struct {
	writes []symbolWrite
}

func (r *recordingEncoder) Write(freqs coder.FrequencyTable, symbol int) error {
	r.writes = append(r.writes, symbolWrite{freqs: freqs, symbol: symbol})
	return nil
}

// fixedDecoder yields a fixed sequence of symbols.
type fixedDecoder struct {
	symbols []int
}

func (d *fixedDecoder) Read(freqs coder.FrequencyTable) (int, error) {
	sym := d.symbols[0]
	d.symbols = d.symbols[1:]
	return sym, nil
}

// TestEscapeChain verifies that encoding a symbol missing from the
// available contexts emits exactly one escape per visited order before
// reaching the table that has it.
func TestEscapeChain(t *testing.T) {
	m, err := NewPPM(2, 5, 4)
	require.NoError(t, err)
	require.NoError(t, m.IncrementContexts(nil, 0))
	require.NoError(t, m.IncrementContexts([]int{0}, 1))
	child0 := m.Root.children[0]

	// Symbol 2 is unknown everywhere: order 1 escapes, order 0 escapes,
	// order -1 codes it.
	rec := &recordingEncoder{}
	require.NoError(t, m.EncodeSymbol(rec, []int{0}, 2))
	require.Len(t, rec.writes, 3)
	require.Same(t, child0.Freqs, rec.writes[0].freqs)
	require.Equal(t, 4, rec.writes[0].symbol)
	require.Same(t, m.Root.Freqs, rec.writes[1].freqs)
	require.Equal(t, 4, rec.writes[1].symbol)
	require.Equal(t, m.OrderMinus1, rec.writes[2].freqs)
	require.Equal(t, 2, rec.writes[2].symbol)

	// Symbol 1 is present at order 1: coded in one step, no escapes.
	rec = &recordingEncoder{}
	require.NoError(t, m.EncodeSymbol(rec, []int{0}, 1))
	require.Len(t, rec.writes, 1)
	require.Same(t, child0.Freqs, rec.writes[0].freqs)
	require.Equal(t, 1, rec.writes[0].symbol)

	// A missing context chain is skipped without coding anything: with
	// history [1 0] neither order 2 nor order 1 context exists, so symbol
	// 0 is coded straight at the root.
	rec = &recordingEncoder{}
	require.NoError(t, m.EncodeSymbol(rec, []int{1, 0}, 0))
	require.Len(t, rec.writes, 1)
	require.Same(t, m.Root.Freqs, rec.writes[0].freqs)
	require.Equal(t, 0, rec.writes[0].symbol)

	// The decoder walks the same chain: two escapes then the flat table.
	dec := &fixedDecoder{symbols: []int{4, 4, 2}}
	sym, err := m.DecodeSymbol(dec, []int{0})
	require.NoError(t, err)
	require.Equal(t, 2, sym)
	require.Empty(t, dec.symbols)
}

// TestOrderMinus1Model checks that a model of order -1 codes everything
// against the flat table and ignores increments.
func TestOrderMinus1Model(t *testing.T) {
	m, err := NewPPM(-1, 5, 4)
	require.NoError(t, err)
	require.NoError(t, m.IncrementContexts(nil, 3))

	rec := &recordingEncoder{}
	require.NoError(t, m.EncodeSymbol(rec, nil, 3))
	require.Len(t, rec.writes, 1)
	require.Equal(t, m.OrderMinus1, rec.writes[0].freqs)
	require.Equal(t, 3, rec.writes[0].symbol)
}

func TestPushHistory(t *testing.T) {
	var h []int
	h = pushHistory(h, 7, 3)
	require.Equal(t, []int{7}, h)
	h = pushHistory(h, 8, 3)
	h = pushHistory(h, 9, 3)
	require.Equal(t, []int{9, 8, 7}, h)
	h = pushHistory(h, 1, 3)
	require.Equal(t, []int{1, 9, 8}, h)

	require.Empty(t, pushHistory(nil, 7, 0))
	require.Empty(t, pushHistory(nil, 7, -1))
}
