package oscar

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/probeworks/oscarprobe/wire"
)

// rateClassStride is the byte length of one rate-class record in the
// server-ready payload, class id first. Servers of a different protocol
// generation may use another stride; the default class set below absorbs
// a mismatch.
const rateClassStride = 35

// defaultRateClasses is acknowledged when the server-ready payload yields
// no parseable classes. Rate negotiation is advisory in this engine.
var defaultRateClasses = []uint16{1, 2, 3, 4, 5}

// clientReadyFamilies is the capability table declared on the BOS
// connection: {family, version, tool, toolVersion} per supported family.
var clientReadyFamilies = [][4]uint16{
	{wire.FamilyGeneric, 4, 0x0110, 0x0629},
	{wire.FamilyLocation, 1, 0x0110, 0x0629},
	{wire.FamilyContacts, 4, 0x0110, 0x0629},
	{wire.FamilyMessaging, 1, 0x0110, 0x0629},
}

// connectBOS opens the post-redirect session server connection and runs
// the bootstrap: cookie signon, rate negotiation, capability declaration.
// On any failure the connection is closed before the error is returned.
func (e *Engine) connectBOS(ctx context.Context, sess *AuthSession, deadline time.Time) (*Conn, error) {
	logger := e.logger.With().Str("com", "bos").Logger()
	conn, err := Dial(ctx, sess.BOSAddr(), logger)
	if err != nil {
		return nil, err
	}

	if err := e.bootstrap(conn, sess, deadline); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (e *Engine) bootstrap(conn *Conn, sess *AuthSession, deadline time.Time) error {
	conn.DiscardFrame(e.cfg.SignonWindow)

	signon := append([]byte(nil), signonVersion...)
	signon = wire.AppendTLV(signon, tlvAuthCookie, sess.Cookie)
	if err := conn.WriteFrame(wire.ChannelSignon, signon); err != nil {
		return err
	}

	ready, err := conn.ReadSNAC(wire.FamilyGeneric, wire.SubServerReady, deadline)
	if err != nil {
		return err
	}

	classes := parseRateClasses(ready.Payload)
	if len(classes) == 0 {
		conn.logger.Debug().Msg("no rate classes parsed, using default set")
		classes = defaultRateClasses
	}
	conn.logger.Debug().Int("classes", len(classes)).Msg("acknowledging rate classes")

	// Flat 2-byte class ids with no count prefix: unlike most list
	// encodings in this protocol, the rate ack payload carries no count.
	ack := make([]byte, 0, 2*len(classes))
	for _, id := range classes {
		ack = binary.BigEndian.AppendUint16(ack, id)
	}
	if err := conn.WriteSNAC(wire.FamilyGeneric, wire.SubRateAck, ack); err != nil {
		return err
	}

	readyPayload := make([]byte, 0, 8*len(clientReadyFamilies))
	for _, f := range clientReadyFamilies {
		for _, v := range f {
			readyPayload = binary.BigEndian.AppendUint16(readyPayload, v)
		}
	}
	if err := conn.WriteSNAC(wire.FamilyGeneric, wire.SubClientReady, readyPayload); err != nil {
		return err
	}

	conn.logger.Info().Msg("session server ready")
	return nil
}

// parseRateClasses extracts class ids from a server-ready payload laid out
// as a 2-byte record count followed by fixed-stride records beginning with
// the class id. Anything truncated or implausible yields fewer (or zero)
// classes, never an error.
func parseRateClasses(payload []byte) []uint16 {
	cur := wire.NewCursor(payload)
	count, ok := cur.Uint16()
	if !ok || count == 0 {
		return nil
	}

	var classes []uint16
	for i := 0; i < int(count); i++ {
		id, ok := cur.Uint16()
		if !ok {
			break
		}
		if !cur.Skip(rateClassStride - 2) {
			break
		}
		classes = append(classes, id)
	}
	return classes
}
