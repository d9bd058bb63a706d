package wire

import (
	"encoding/binary"
	"fmt"
)

// SNAC wire format: [2 bytes family][2 bytes subtype][2 bytes flags]
// [4 bytes request id][payload], carried inside a data-channel FLAP frame.

// SNACHeaderLen is the fixed SNAC header size.
const SNACHeaderLen = 10

// Service families spoken by this engine.
const (
	FamilyGeneric   = 0x0001
	FamilyLocation  = 0x0002
	FamilyBuddy     = 0x0003
	FamilyMessaging = 0x0004
	FamilyContacts  = 0x0013
	FamilyAuth      = 0x0017
)

// Generic (0x0001) subtypes.
const (
	SubClientReady = 0x0002
	SubServerReady = 0x0003
	SubRateAck     = 0x0008
)

// Messaging (0x0004) subtypes.
const (
	SubSendIM = 0x0006
)

// Contacts / server-stored list (0x0013) subtypes.
const (
	SubCheckout     = 0x0004
	SubCheckoutData = 0x0006
)

// Authorization (0x0017) subtypes.
const (
	SubLoginRequest = 0x0002
	SubLoginReply   = 0x0003
	SubKeyRequest   = 0x0006
	SubKeyResponse  = 0x0007
)

// SNAC is a single service-command envelope.
type SNAC struct {
	Family    uint16
	Subtype   uint16
	Flags     uint16
	RequestID uint32
	Payload   []byte
}

// MalformedSNACError reports a payload too short to hold a SNAC header.
type MalformedSNACError struct {
	Len int
}

func (e *MalformedSNACError) Error() string {
	return fmt.Sprintf("malformed snac: %d bytes, need at least %d", e.Len, SNACHeaderLen)
}

// EncodeSNAC encodes an envelope into a freshly allocated byte slice.
// Flags are always written as zero by this engine.
func EncodeSNAC(s *SNAC) []byte {
	buf := make([]byte, SNACHeaderLen+len(s.Payload))
	binary.BigEndian.PutUint16(buf[0:2], s.Family)
	binary.BigEndian.PutUint16(buf[2:4], s.Subtype)
	binary.BigEndian.PutUint16(buf[4:6], s.Flags)
	binary.BigEndian.PutUint32(buf[6:10], s.RequestID)
	copy(buf[SNACHeaderLen:], s.Payload)
	return buf
}

// DecodeSNAC decodes an envelope from a frame payload.
func DecodeSNAC(buf []byte) (*SNAC, error) {
	if len(buf) < SNACHeaderLen {
		return nil, &MalformedSNACError{Len: len(buf)}
	}
	payload := make([]byte, len(buf)-SNACHeaderLen)
	copy(payload, buf[SNACHeaderLen:])
	return &SNAC{
		Family:    binary.BigEndian.Uint16(buf[0:2]),
		Subtype:   binary.BigEndian.Uint16(buf[2:4]),
		Flags:     binary.BigEndian.Uint16(buf[4:6]),
		RequestID: binary.BigEndian.Uint32(buf[6:10]),
		Payload:   payload,
	}, nil
}
