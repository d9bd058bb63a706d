package oscar

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/probeworks/oscarprobe/wire"
)

// tlvMessageData carries the message body inside the outbound envelope.
const tlvMessageData = 0x0002

// messageChannel 1 is plain text.
const messageChannel = 1

// featuresFragment is the fixed capability fragment preceding the text
// fragment in the message data TLV.
var featuresFragment = []byte{0x05, 0x01, 0x00, 0x01, 0x01}

// OutboundMessage is one instant message ready to be enveloped. The cookie
// exists for protocol compliance only; this engine never correlates it to
// an acknowledgement.
type OutboundMessage struct {
	Cookie  [8]byte
	Channel uint16
	Target  string
	Text    string
}

// NewOutboundMessage builds a plain-text message with a random cookie.
func NewOutboundMessage(target, text string) (*OutboundMessage, error) {
	msg := &OutboundMessage{
		Channel: messageChannel,
		Target:  target,
		Text:    text,
	}
	if _, err := rand.Read(msg.Cookie[:]); err != nil {
		return nil, fmt.Errorf("generate message cookie: %w", err)
	}
	return msg, nil
}

// encode lays out the message envelope: cookie, channel, length-prefixed
// target, warning level, TLV count, then the message data TLV whose value
// is the features fragment followed by the text fragment with charset
// fields fixed to unspecified/ASCII.
func (m *OutboundMessage) encode() []byte {
	buf := wire.GetBuffer()
	defer wire.PutBuffer(buf)

	buf.Write(m.Cookie[:])
	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], m.Channel)
	buf.Write(u16[:])
	buf.WriteByte(byte(len(m.Target)))
	buf.WriteString(m.Target)
	buf.Write([]byte{0x00, 0x00}) // warning level
	buf.Write([]byte{0x00, 0x01}) // TLV count

	text := []byte(m.Text)
	value := make([]byte, 0, len(featuresFragment)+8+len(text))
	value = append(value, featuresFragment...)
	value = append(value, 0x01, 0x01)
	value = binary.BigEndian.AppendUint16(value, uint16(4+len(text)))
	value = append(value, 0x00, 0x00, 0x00, 0x00) // charset, subcharset
	value = append(value, text...)

	out := wire.AppendTLV(buf.Bytes(), tlvMessageData, value)
	encoded := make([]byte, len(out))
	copy(encoded, out)
	return encoded
}

// sendMessage writes one instant message on an established BOS connection
// and opportunistically watches for an acknowledgement within a short
// window. The protocol does not guarantee a synchronous receipt on this
// path, so an absent ack is reported, never treated as a send failure.
// The ack match is by the first data-channel envelope observed, not by
// request id or cookie; a stray envelope in the window can be misreported
// as the ack.
func (e *Engine) sendMessage(conn *Conn, target, text string) (string, error) {
	msg, err := NewOutboundMessage(target, text)
	if err != nil {
		return "", err
	}
	if err := conn.WriteSNAC(wire.FamilyMessaging, wire.SubSendIM, msg.encode()); err != nil {
		return "", err
	}
	conn.logger.Info().Str("target", target).Int("len", len(text)).Msg("message sent")

	frame, err := conn.ReadFrame(time.Now().Add(e.cfg.AckWindow))
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			conn.logger.Debug().Msg("no ack observed within window")
			return "", nil
		}
		return "", nil
	}
	if frame.Channel != wire.ChannelData {
		return "", nil
	}
	snac, err := wire.DecodeSNAC(frame.Payload)
	if err != nil {
		return "", nil
	}
	ack := fmt.Sprintf("%04X/%04X", snac.Family, snac.Subtype)
	conn.logger.Debug().Str("snac", ack).Msg("ack observed")
	return ack, nil
}
