package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// FLAP wire format: [marker 0x2A][1 byte channel][2 bytes sequence][2 bytes length][payload]

const (
	// FrameMarker is the fixed first byte of every FLAP frame.
	FrameMarker = 0x2A

	// FrameHeaderLen is the fixed FLAP header size.
	FrameHeaderLen = 6
)

// Channel identifies the FLAP channel a frame travels on. Unrecognized
// wire values are preserved as-is rather than coerced to a known constant.
type Channel uint8

const (
	ChannelSignon    Channel = 0x01
	ChannelData      Channel = 0x02
	ChannelError     Channel = 0x03
	ChannelClose     Channel = 0x04
	ChannelKeepalive Channel = 0x05
)

// String returns a human-readable channel name for logs.
func (c Channel) String() string {
	switch c {
	case ChannelSignon:
		return "signon"
	case ChannelData:
		return "data"
	case ChannelError:
		return "error"
	case ChannelClose:
		return "close"
	case ChannelKeepalive:
		return "keepalive"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(c))
	}
}

// Frame is a single FLAP frame.
type Frame struct {
	Channel  Channel
	Sequence uint16
	Payload  []byte
}

// ErrIncompleteFrame reports that a buffer holds the beginning of a valid
// frame but fewer bytes than its header declares. Callers should read more
// bytes and retry.
var ErrIncompleteFrame = errors.New("incomplete frame: need more bytes")

// MalformedFrameError reports bytes that cannot be a FLAP frame at all,
// as opposed to a frame that has merely not fully arrived yet.
type MalformedFrameError struct {
	Reason string
}

func (e *MalformedFrameError) Error() string {
	return "malformed frame: " + e.Reason
}

// EncodeFrame encodes a frame into a freshly allocated byte slice.
func EncodeFrame(f *Frame) []byte {
	buf := make([]byte, FrameHeaderLen+len(f.Payload))
	buf[0] = FrameMarker
	buf[1] = byte(f.Channel)
	binary.BigEndian.PutUint16(buf[2:4], f.Sequence)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(f.Payload)))
	copy(buf[FrameHeaderLen:], f.Payload)
	return buf
}

// EncodeFrameTo encodes a frame into buf, typically one drawn from the
// buffer pool, avoiding the allocation EncodeFrame makes.
func EncodeFrameTo(buf *bytes.Buffer, f *Frame) {
	var hdr [FrameHeaderLen]byte
	hdr[0] = FrameMarker
	hdr[1] = byte(f.Channel)
	binary.BigEndian.PutUint16(hdr[2:4], f.Sequence)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(len(f.Payload)))
	buf.Write(hdr[:])
	buf.Write(f.Payload)
}

// DecodeFrame decodes the first frame in buf, returning the frame and the
// number of bytes it consumed. It returns ErrIncompleteFrame when buf is a
// valid prefix of a frame whose declared payload has not fully arrived, and
// a MalformedFrameError when buf cannot begin a frame.
func DecodeFrame(buf []byte) (*Frame, int, error) {
	if len(buf) > 0 && buf[0] != FrameMarker {
		return nil, 0, &MalformedFrameError{
			Reason: fmt.Sprintf("bad marker byte 0x%02x", buf[0]),
		}
	}
	if len(buf) < FrameHeaderLen {
		return nil, 0, ErrIncompleteFrame
	}
	length := int(binary.BigEndian.Uint16(buf[4:6]))
	total := FrameHeaderLen + length
	if len(buf) < total {
		return nil, 0, ErrIncompleteFrame
	}
	payload := make([]byte, length)
	copy(payload, buf[FrameHeaderLen:total])
	return &Frame{
		Channel:  Channel(buf[1]),
		Sequence: binary.BigEndian.Uint16(buf[2:4]),
		Payload:  payload,
	}, total, nil
}
