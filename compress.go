// Package arith provides lossless compression built on arithmetic coding
// over an alphabet of the 256 byte values plus an end-of-stream symbol.
// Three modes are available: static (a two-pass coder with a transmitted
// frequency header), adaptive (both sides grow an identical frequency
// table as they go), and PPM (an adaptive variable-order context model
// with escape-based order blending).
//
// Below is an example of compressing and restoring a file with the
// bundled tool:
//
//	arith compress -mode ppm -o out.arith input.txt
//	arith decompress -mode ppm -o restored.txt out.arith
//	diff input.txt restored.txt
package arith

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/refcodec/arith/bitio"
	"github.com/refcodec/arith/coder"
)

const (
	// numStateBits is the coder state width used by every pipeline.
	numStateBits = 32

	// The alphabet: byte values 0..255, plus one synthetic symbol that
	// marks end of stream and, in PPM mode, doubles as the escape symbol.
	symbolLimit = 257
	eofSymbol   = 256
)

// DefaultPPMOrder is the context order used when callers do not choose
// one. Memory grows exponentially in the order, so keep it small.
const DefaultPPMOrder = 3

// CompressStatic compresses src using a fixed frequency table computed
// from the whole input, which is buffered in memory for the counting
// pass. The output starts with 256 big-endian 32-bit frequency counts
// (the EOF symbol's count is fixed at 1 and omitted), followed by the
// coded bit stream.
func CompressStatic(dst io.Writer, src io.Reader) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return errors.Wrap(err, "")
	}
	freqs, err := coder.NewSimpleTable(make([]uint32, symbolLimit))
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, b := range data {
		if err := freqs.Increment(int(b)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := freqs.Increment(eofSymbol); err != nil {
		return errors.Wrap(err, "")
	}

	out := bitio.NewWriter(dst)
	for i := 0; i < symbolLimit-1; i++ {
		f, err := freqs.Get(i)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := out.WriteBits(uint64(f), 32); err != nil {
			return errors.Wrap(err, "")
		}
	}

	enc, err := coder.NewEncoder(numStateBits, out)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, b := range data {
		if err := enc.Write(freqs, int(b)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := enc.Write(freqs, eofSymbol); err != nil {
		return errors.Wrap(err, "")
	}
	if err := enc.Finish(); err != nil {
		return errors.Wrap(err, "")
	}
	return errors.Wrap(out.Close(), "")
}

// DecompressStatic reverses CompressStatic.
func DecompressStatic(dst io.Writer, src io.Reader) error {
	in := bitio.NewReader(src)
	counts := make([]uint32, symbolLimit)
	for i := 0; i < symbolLimit-1; i++ {
		v, err := in.ReadBits(32)
		if err == io.EOF {
			return errors.New("truncated frequency header")
		}
		if err != nil {
			return errors.Wrap(err, "")
		}
		counts[i] = uint32(v)
	}
	counts[eofSymbol] = 1
	freqs, err := coder.NewSimpleTable(counts)
	if err != nil {
		return errors.Wrap(err, "")
	}

	dec, err := coder.NewDecoder(numStateBits, in)
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := bufio.NewWriter(dst)
	for {
		symbol, err := dec.Read(freqs)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if symbol == eofSymbol {
			break
		}
		if err := w.WriteByte(byte(symbol)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return errors.Wrap(w.Flush(), "")
}

// CompressAdaptive compresses src with no header: the coder starts from a
// flat table and increments the coded symbol's count after each step, and
// the decompressor replays the identical updates.
func CompressAdaptive(dst io.Writer, src io.Reader) error {
	out := bitio.NewWriter(dst)
	enc, err := coder.NewEncoder(numStateBits, out)
	if err != nil {
		return errors.Wrap(err, "")
	}
	freqs, err := adaptiveTable()
	if err != nil {
		return errors.Wrap(err, "")
	}

	br := bufio.NewReader(src)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := enc.Write(freqs, int(b)); err != nil {
			return errors.Wrap(err, "")
		}
		if err := freqs.Increment(int(b)); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := enc.Write(freqs, eofSymbol); err != nil {
		return errors.Wrap(err, "")
	}
	if err := enc.Finish(); err != nil {
		return errors.Wrap(err, "")
	}
	return errors.Wrap(out.Close(), "")
}

// DecompressAdaptive reverses CompressAdaptive.
func DecompressAdaptive(dst io.Writer, src io.Reader) error {
	dec, err := coder.NewDecoder(numStateBits, bitio.NewReader(src))
	if err != nil {
		return errors.Wrap(err, "")
	}
	freqs, err := adaptiveTable()
	if err != nil {
		return errors.Wrap(err, "")
	}

	w := bufio.NewWriter(dst)
	for {
		symbol, err := dec.Read(freqs)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if symbol == eofSymbol {
			break
		}
		if err := w.WriteByte(byte(symbol)); err != nil {
			return errors.Wrap(err, "")
		}
		if err := freqs.Increment(symbol); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return errors.Wrap(w.Flush(), "")
}

// adaptiveTable is the starting table both adaptive sides agree on: a
// mutable copy of the flat prior.
func adaptiveTable() (*coder.SimpleTable, error) {
	flat, err := coder.NewFlatTable(symbolLimit)
	if err != nil {
		return nil, err
	}
	return coder.NewSimpleTableFrom(flat)
}

// CompressPPM compresses src with a PPM model of the given order. There
// is no header; both sides grow identical context trees.
func CompressPPM(dst io.Writer, src io.Reader, order int) error {
	out := bitio.NewWriter(dst)
	enc, err := coder.NewEncoder(numStateBits, out)
	if err != nil {
		return errors.Wrap(err, "")
	}
	model, err := NewPPM(order, symbolLimit, eofSymbol)
	if err != nil {
		return errors.Wrap(err, "")
	}

	var history []int
	br := bufio.NewReader(src)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "")
		}
		symbol := int(b)
		if err := model.EncodeSymbol(enc, history, symbol); err != nil {
			return errors.Wrap(err, "")
		}
		if err := model.IncrementContexts(history, symbol); err != nil {
			return errors.Wrap(err, "")
		}
		history = pushHistory(history, symbol, model.ModelOrder)
	}
	if err := model.EncodeSymbol(enc, history, eofSymbol); err != nil {
		return errors.Wrap(err, "")
	}
	if err := enc.Finish(); err != nil {
		return errors.Wrap(err, "")
	}
	return errors.Wrap(out.Close(), "")
}

// DecompressPPM reverses CompressPPM. The order must match the one used
// to compress.
func DecompressPPM(dst io.Writer, src io.Reader, order int) error {
	dec, err := coder.NewDecoder(numStateBits, bitio.NewReader(src))
	if err != nil {
		return errors.Wrap(err, "")
	}
	model, err := NewPPM(order, symbolLimit, eofSymbol)
	if err != nil {
		return errors.Wrap(err, "")
	}

	var history []int
	w := bufio.NewWriter(dst)
	for {
		symbol, err := model.DecodeSymbol(dec, history)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if symbol == eofSymbol {
			break
		}
		if err := w.WriteByte(byte(symbol)); err != nil {
			return errors.Wrap(err, "")
		}
		if err := model.IncrementContexts(history, symbol); err != nil {
			return errors.Wrap(err, "")
		}
		history = pushHistory(history, symbol, model.ModelOrder)
	}
	return errors.Wrap(w.Flush(), "")
}

// pushHistory prepends the newest symbol, dropping the oldest once the
// history is order symbols long.
func pushHistory(history []int, symbol, order int) []int {
	if order < 1 {
		return history
	}
	if len(history) < order {
		history = append(history, 0)
	}
	copy(history[1:], history)
	history[0] = symbol
	return history
}
