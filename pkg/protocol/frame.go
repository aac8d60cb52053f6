package protocol

import (
	"errors"
	"io"
)

const (
	// FrameHeaderSize is the size of the frame header in bytes: one type
	// byte, one flags byte, and a big-endian uint32 payload length.
	FrameHeaderSize = 6

	// MaxFramePayload caps how large a single frame payload may be.
	// Mount patches carry whole rendered subtrees, so this matches the
	// decoder's allocation ceiling rather than a uint16 length field.
	MaxFramePayload = MaxAllocation
)

// FrameType identifies the kind of frame.
type FrameType uint8

const (
	FrameHello   FrameType = 0x00 // Connection setup and resume
	FrameEvent   FrameType = 0x01 // Client -> server events
	FramePatches FrameType = 0x02 // Server -> client patches
	FrameControl FrameType = 0x03 // Ping/pong, close
	FrameAck     FrameType = 0x04 // Patch acknowledgment
	FrameError   FrameType = 0x05 // Error report
)

// String returns the frame type name.
func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameEvent:
		return "Event"
	case FramePatches:
		return "Patches"
	case FrameControl:
		return "Control"
	case FrameAck:
		return "Ack"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags carry optional per-frame hints.
type FrameFlags uint8

const (
	// FlagBarrier marks a patches frame flushed by a forced reflow. The
	// client must apply it, perform the layout read, and ack before any
	// later frame's patches take effect.
	FlagBarrier FrameFlags = 0x01

	// FlagResumed marks the first patches frame after a session resume.
	FlagResumed FrameFlags = 0x02
)

// Has reports whether flag is set.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is one wire message: a six byte header followed by the payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// NewFrameWithFlags creates a frame with the given flags.
func NewFrameWithFlags(ft FrameType, flags FrameFlags, payload []byte) *Frame {
	return &Frame{Type: ft, Flags: flags, Payload: payload}
}

// Encode returns the frame as bytes, header included.
func (f *Frame) Encode() []byte {
	length := len(f.Payload)
	buf := make([]byte, FrameHeaderSize+length)
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	buf[2] = byte(length >> 24)
	buf[3] = byte(length >> 16)
	buf[4] = byte(length >> 8)
	buf[5] = byte(length)
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame decodes a frame from data. The payload is copied, so data may
// be reused by the caller.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}

	ft := FrameType(data[0])
	flags := FrameFlags(data[1])
	length := int(data[2])<<24 | int(data[3])<<16 | int(data[4])<<8 | int(data[5])

	if length > MaxFramePayload {
		return nil, ErrFrameTooLarge
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])

	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// ReadFrame reads one complete frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	ft := FrameType(header[0])
	flags := FrameFlags(header[1])
	length := int(header[2])<<24 | int(header[3])<<16 | int(header[4])<<8 | int(header[5])

	if length > MaxFramePayload {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}

	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
