package protocol

import (
	"errors"
	"io"
	"math"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		bytes int // expected encoded length
	}{
		{"zero", 0, 1},
		{"max_1byte", 127, 1},
		{"min_2byte", 128, 2},
		{"max_2byte", 16383, 2},
		{"medium", 1000000, 3},
		{"max_uint32", math.MaxUint32, 5},
		{"max_uint64", math.MaxUint64, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEncoder()
			e.WriteUvarint(tc.value)

			if e.Len() != tc.bytes {
				t.Errorf("WriteUvarint(%d) wrote %d bytes, want %d", tc.value, e.Len(), tc.bytes)
			}

			d := NewDecoder(e.Bytes())
			got, err := d.ReadUvarint()
			if err != nil {
				t.Fatalf("ReadUvarint: %v", err)
			}
			if got != tc.value {
				t.Errorf("ReadUvarint = %d, want %d", got, tc.value)
			}
			if !d.EOF() {
				t.Errorf("decoder should be at EOF, %d bytes remain", d.Remaining())
			}
		})
	}
}

func TestSvarintRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 100, -100, 1000000, -1000000, math.MaxInt64, math.MinInt64}

	for _, v := range values {
		e := NewEncoder()
		e.WriteSvarint(v)

		d := NewDecoder(e.Bytes())
		got, err := d.ReadSvarint()
		if err != nil {
			t.Fatalf("ReadSvarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("ReadSvarint = %d, want %d", got, v)
		}
	}
}

func TestSvarintZigZagLayout(t *testing.T) {
	// Small magnitudes must stay in one byte regardless of sign.
	for _, v := range []int64{-63, -1, 0, 1, 63} {
		e := NewEncoder()
		e.WriteSvarint(v)
		if e.Len() != 1 {
			t.Errorf("WriteSvarint(%d) wrote %d bytes, want 1", v, e.Len())
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	strings := []string{"", "a", "hello world", "héllo wörld 日本"}

	for _, s := range strings {
		e := NewEncoder()
		e.WriteString(s)

		d := NewDecoder(e.Bytes())
		got, err := d.ReadString()
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("ReadString = %q, want %q", got, s)
		}
	}
}

func TestReadStringTruncated(t *testing.T) {
	e := NewEncoder()
	e.WriteString("hello")

	d := NewDecoder(e.Bytes()[:3])
	if _, err := d.ReadString(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadStringHugeLengthPrefix(t *testing.T) {
	// A length prefix claiming more than the buffer holds must fail on the
	// bounds check, not allocate.
	e := NewEncoder()
	e.WriteUvarint(1 << 40)

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadString(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestVarintOverflow(t *testing.T) {
	// Eleven continuation bytes exceed what a uint64 can hold.
	data := make([]byte, 11)
	for i := range data {
		data[i] = 0xFF
	}

	d := NewDecoder(data)
	if _, err := d.ReadUvarint(); !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("expected ErrVarintOverflow, got %v", err)
	}
}

func TestCollectionCountLimit(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxCollectionCount + 1)
	e.WriteBytes(make([]byte, 64))

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadCollectionCount(); !errors.Is(err, ErrCollectionTooLarge) {
		t.Errorf("expected ErrCollectionTooLarge, got %v", err)
	}
}

func TestCollectionCountVersusRemaining(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1000)
	// Only a handful of bytes follow; 1000 items cannot fit.
	e.WriteBytes([]byte{1, 2, 3})

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadCollectionCount(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestLenBytesRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0xFF, 0x80, 0x7F}

	e := NewEncoder()
	e.WriteLenBytes(payload)

	d := NewDecoder(e.Bytes())
	got, err := d.ReadLenBytes()
	if err != nil {
		t.Fatalf("ReadLenBytes: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("expected %d bytes, got %d", len(payload), len(got))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Errorf("byte %d: expected %x, got %x", i, payload[i], got[i])
		}
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	values := []float64{0, 0.3, -1.5, math.Pi, math.MaxFloat64}

	for _, v := range values {
		e := NewEncoder()
		e.WriteFloat64(v)

		d := NewDecoder(e.Bytes())
		got, err := d.ReadFloat64()
		if err != nil {
			t.Fatalf("ReadFloat64(%g): %v", v, err)
		}
		if got != v {
			t.Errorf("ReadFloat64 = %g, want %g", got, v)
		}
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder()
	e.WriteString("hello")
	e.Reset()

	if e.Len() != 0 {
		t.Errorf("expected empty encoder after Reset, got %d bytes", e.Len())
	}

	e.WriteBool(true)
	if e.Len() != 1 {
		t.Errorf("expected 1 byte after write, got %d", e.Len())
	}
}
