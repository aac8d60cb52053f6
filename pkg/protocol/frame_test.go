package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	f := NewFrameWithFlags(FramePatches, FlagBarrier, []byte{0x01, 0x02, 0x03})

	decoded, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}

	if decoded.Type != FramePatches {
		t.Errorf("expected type Patches, got %s", decoded.Type)
	}
	if !decoded.Flags.Has(FlagBarrier) {
		t.Error("expected barrier flag to survive the round trip")
	}
	if !bytes.Equal(decoded.Payload, f.Payload) {
		t.Errorf("expected payload %v, got %v", f.Payload, decoded.Payload)
	}
}

func TestFrameEmptyPayload(t *testing.T) {
	f := NewFrame(FrameControl, nil)

	decoded, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if len(decoded.Payload) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(decoded.Payload))
	}
}

func TestDecodeFrameTruncated(t *testing.T) {
	f := NewFrame(FrameEvent, []byte("payload"))
	encoded := f.Encode()

	for _, cut := range []int{0, 3, FrameHeaderSize, len(encoded) - 1} {
		if _, err := DecodeFrame(encoded[:cut]); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("cut at %d: expected ErrUnexpectedEOF, got %v", cut, err)
		}
	}
}

func TestDecodeFrameOversizedLength(t *testing.T) {
	header := []byte{byte(FrameEvent), 0, 0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := DecodeFrame(header); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer

	f := NewFrame(FrameAck, []byte{0x2A})
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	decoded, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if decoded.Type != FrameAck || !bytes.Equal(decoded.Payload, f.Payload) {
		t.Errorf("expected ack frame with payload %v back, got %s %v", f.Payload, decoded.Type, decoded.Payload)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	f := NewFrame(FramePatches, make([]byte, MaxFramePayload+1))
	if err := WriteFrame(io.Discard, f); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := []struct {
		ft   FrameType
		want string
	}{
		{FrameHello, "Hello"},
		{FrameEvent, "Event"},
		{FramePatches, "Patches"},
		{FrameControl, "Control"},
		{FrameAck, "Ack"},
		{FrameError, "Error"},
		{FrameType(0x7F), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.ft.String(); got != tc.want {
			t.Errorf("FrameType(%d).String() = %s, want %s", tc.ft, got, tc.want)
		}
	}
}
