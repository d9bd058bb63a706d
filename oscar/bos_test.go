package oscar

import (
	"bytes"
	"context"
	"encoding/binary"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probeworks/oscarprobe/wire"
)

// rateClassRecord builds one fixed-stride rate-class record.
func rateClassRecord(id uint16) []byte {
	record := make([]byte, rateClassStride)
	record[0] = byte(id >> 8)
	record[1] = byte(id)
	return record
}

func TestParseRateClasses(t *testing.T) {
	payload := []byte{0x00, 0x02}
	payload = append(payload, rateClassRecord(7)...)
	payload = append(payload, rateClassRecord(9)...)

	assert.Equal(t, []uint16{7, 9}, parseRateClasses(payload))
}

func TestParseRateClasses_Truncated(t *testing.T) {
	payload := []byte{0x00, 0x03}
	payload = append(payload, rateClassRecord(1)...)
	payload = append(payload, 0x00, 0x02, 0xFF) // second record cut short

	assert.Equal(t, []uint16{1}, parseRateClasses(payload))
}

func TestParseRateClasses_Unusable(t *testing.T) {
	assert.Nil(t, parseRateClasses(nil))
	assert.Nil(t, parseRateClasses([]byte{0x00, 0x00}))
	assert.Nil(t, parseRateClasses([]byte{0x00}))
}

func TestClientReadyDeclaresContactsFamily(t *testing.T) {
	var families []uint16
	for _, f := range clientReadyFamilies {
		families = append(families, f[0])
	}
	// The contact list checkout runs on the Contacts family; a table
	// that never declares it leaves the checkout undeclared.
	assert.Contains(t, families, uint16(wire.FamilyContacts))
	assert.Equal(t, []uint16{wire.FamilyGeneric, wire.FamilyLocation, wire.FamilyContacts, wire.FamilyMessaging}, families)
}

// bosScript runs the server side of the session bootstrap, asserting the
// client's signon cookie and rate acknowledgement, then hands the
// connection to after for the operation under test.
func bosScript(cookie []byte, rateAck []uint16, after func(sc *serverConn)) func(sc *serverConn) {
	return func(sc *serverConn) {
		sc.greet()

		frame := sc.readFrame()
		if frame == nil || frame.Channel != wire.ChannelSignon {
			sc.t.Error("expected client signon frame")
			return
		}
		if len(frame.Payload) < 4 {
			sc.t.Error("signon payload missing version marker")
			return
		}
		got, ok := wire.DecodeTLVs(frame.Payload[4:]).Bytes(0x0006)
		if !ok || !bytes.Equal(got, cookie) {
			sc.t.Errorf("signon cookie mismatch: %x", got)
			return
		}

		ready := []byte{0x00, 0x02}
		ready = append(ready, rateClassRecord(7)...)
		ready = append(ready, rateClassRecord(9)...)
		sc.writeSNAC(wire.FamilyGeneric, wire.SubServerReady, ready)

		snac := sc.readSNAC()
		if snac == nil || snac.Subtype != wire.SubRateAck {
			sc.t.Error("expected rate ack")
			return
		}
		var expected []byte
		for _, id := range rateAck {
			expected = append(expected, byte(id>>8), byte(id))
		}
		if !bytes.Equal(snac.Payload, expected) {
			sc.t.Errorf("rate ack payload mismatch: %x", snac.Payload)
			return
		}

		snac = sc.readSNAC()
		if snac == nil || snac.Subtype != wire.SubClientReady {
			sc.t.Error("expected client ready")
			return
		}
		if len(snac.Payload) != 8*4 {
			sc.t.Errorf("client ready payload has %d bytes", len(snac.Payload))
			return
		}
		var declared []uint16
		for off := 0; off+8 <= len(snac.Payload); off += 8 {
			declared = append(declared, binary.BigEndian.Uint16(snac.Payload[off:]))
		}
		want := []uint16{wire.FamilyGeneric, wire.FamilyLocation, wire.FamilyContacts, wire.FamilyMessaging}
		if !slices.Equal(declared, want) {
			sc.t.Errorf("client ready declares families %04X, want %04X", declared, want)
			return
		}

		after(sc)
	}
}

// redirectReply builds a login reply pointing at the given BOS address.
func redirectReply(bosAddr string, cookie []byte) []byte {
	reply := wire.AppendTLVString(nil, 0x0005, bosAddr)
	return wire.AppendTLV(reply, 0x0006, cookie)
}

func ssiItem(name string, groupID, itemID, kind uint16) []byte {
	item := []byte{byte(len(name) >> 8), byte(len(name))}
	item = append(item, name...)
	for _, v := range []uint16{groupID, itemID, kind, 0} {
		item = append(item, byte(v>>8), byte(v))
	}
	return item
}

func TestContactList_Pipeline(t *testing.T) {
	authKey := bytes.Repeat([]byte{0x11}, 20)
	cookie := bytes.Repeat([]byte{0x22}, 16)

	checkout := []byte{0x00, 0x00, 0x00, 0x03}
	checkout = append(checkout, ssiItem("alice", 1, 2, 0)...)
	checkout = append(checkout, ssiItem("bob", 1, 3, 0)...)
	checkout = append(checkout, ssiItem("Friends", 1, 0, 1)...)

	bos := startTestServer(t, bosScript(cookie, []uint16{7, 9}, func(sc *serverConn) {
		snac := sc.readSNAC()
		if snac == nil || snac.Family != wire.FamilyContacts || snac.Subtype != wire.SubCheckout {
			sc.t.Error("expected contact list checkout")
			return
		}
		sc.writeSNAC(wire.FamilyContacts, wire.SubCheckoutData, checkout)
	}))
	auth := startTestServer(t, authScript(authKey, redirectReply(bos.addr(), cookie)))

	engine := testEngine(t, auth.addr())
	result, err := engine.ContactList(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.ItemCount)
	assert.Equal(t, []string{"alice", "bob"}, result.Buddies)
	assert.Equal(t, []string{"Friends"}, result.Groups)
	assert.Len(t, result.AllItems, 3)

	auth.waitClientGone(t, time.Second)
	bos.waitClientGone(t, time.Second)
}

func TestBootstrap_RateClassFallback(t *testing.T) {
	authKey := bytes.Repeat([]byte{0x33}, 20)
	cookie := bytes.Repeat([]byte{0x44}, 16)

	// Server-ready carries no parseable rate classes; the engine must
	// acknowledge the default set instead.
	bos := startTestServer(t, func(sc *serverConn) {
		sc.greet()
		if frame := sc.readFrame(); frame == nil {
			return
		}
		sc.writeSNAC(wire.FamilyGeneric, wire.SubServerReady, nil)

		snac := sc.readSNAC()
		if snac == nil || snac.Subtype != wire.SubRateAck {
			sc.t.Error("expected rate ack")
			return
		}
		expected := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00, 0x05}
		if !bytes.Equal(snac.Payload, expected) {
			sc.t.Errorf("expected default rate classes, got %x", snac.Payload)
			return
		}
		if snac := sc.readSNAC(); snac == nil || snac.Subtype != wire.SubClientReady {
			sc.t.Error("expected client ready")
			return
		}
		if snac := sc.readSNAC(); snac == nil || snac.Subtype != wire.SubCheckout {
			sc.t.Error("expected checkout")
			return
		}
		sc.writeSNAC(wire.FamilyContacts, wire.SubCheckoutData, []byte{0x00, 0x00, 0x00, 0x00})
	})
	auth := startTestServer(t, authScript(authKey, redirectReply(bos.addr(), cookie)))

	engine := testEngine(t, auth.addr())
	result, err := engine.ContactList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.ItemCount)
}
