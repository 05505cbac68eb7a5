package bitio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterMSBFirst(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	for _, bit := range []int{1, 0, 1, 1, 0, 0, 1, 0} {
		require.NoError(t, w.WriteBit(bit))
	}
	require.NoError(t, w.Close())
	require.Equal(t, []byte{0xb2}, buf.Bytes())
}

func TestWriterPadsOnClose(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	require.NoError(t, w.WriteBit(1))
	require.NoError(t, w.WriteBit(1))
	require.NoError(t, w.WriteBit(1))
	require.NoError(t, w.Close())
	require.Equal(t, []byte{0xe0}, buf.Bytes())

	// Closing at a byte boundary writes nothing further.
	require.NoError(t, w.Close())
	require.Equal(t, []byte{0xe0}, buf.Bytes())
}

func TestWriterRejectsBadBit(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	require.Error(t, w.WriteBit(2))
	require.Error(t, w.WriteBit(-1))
}

func TestWriteBits(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	require.NoError(t, w.WriteBits(0x1a5, 9))
	require.NoError(t, w.Close())
	require.Equal(t, []byte{0xd2, 0x80}, buf.Bytes())
}

func TestReader(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xb2}))
	got := []int{}
	for i := 0; i < 8; i++ {
		bit, err := r.ReadBit()
		require.NoError(t, err)
		got = append(got, bit)
	}
	require.Equal(t, []int{1, 0, 1, 1, 0, 0, 1, 0}, got)

	_, err := r.ReadBit()
	require.Equal(t, io.EOF, err)
}

func TestReadBits(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xd2, 0x80}))
	v, err := r.ReadBits(9)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1a5), v)

	// Exhaustion mid-read surfaces as io.EOF.
	_, err = r.ReadBits(8)
	require.Equal(t, io.EOF, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	bits := []int{0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}
	for _, bit := range bits {
		require.NoError(t, w.WriteBit(bit))
	}
	require.NoError(t, w.Close())

	r := NewReader(buf)
	for i, want := range bits {
		bit, err := r.ReadBit()
		require.NoError(t, err)
		require.Equal(t, want, bit, "bit %d", i)
	}
}
