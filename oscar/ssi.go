package oscar

import (
	"fmt"
	"time"

	"github.com/probeworks/oscarprobe/wire"
)

// ItemKind classifies a server-stored list item. Wire values outside the
// known set are preserved, not dropped.
type ItemKind uint16

const (
	KindBuddy       ItemKind = 0x0000
	KindGroup       ItemKind = 0x0001
	KindPermit      ItemKind = 0x0002
	KindDeny        ItemKind = 0x0003
	KindMasterGroup ItemKind = 0x0005
	KindPresence    ItemKind = 0x000E
)

// String returns a human-readable kind name.
func (k ItemKind) String() string {
	switch k {
	case KindBuddy:
		return "buddy"
	case KindGroup:
		return "group"
	case KindPermit:
		return "permit"
	case KindDeny:
		return "deny"
	case KindMasterGroup:
		return "masterGroup"
	case KindPresence:
		return "presence"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(k))
	}
}

// MarshalJSON renders the kind as its string name.
func (k ItemKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ContactItem is one entry of the server-stored contact list. The list is
// flat; group membership is inferred from GroupID, not from nesting.
type ContactItem struct {
	Name    string   `json:"name"`
	GroupID uint16   `json:"groupId"`
	ItemID  uint16   `json:"itemId"`
	Kind    ItemKind `json:"kind"`
}

// fetchContactList requests the server-stored list on an established BOS
// connection and parses the reply.
func (e *Engine) fetchContactList(conn *Conn, deadline time.Time) ([]ContactItem, error) {
	if err := conn.WriteSNAC(wire.FamilyContacts, wire.SubCheckout, nil); err != nil {
		return nil, err
	}
	data, err := conn.ReadSNAC(wire.FamilyContacts, wire.SubCheckoutData, deadline)
	if err != nil {
		return nil, err
	}
	items := parseContactList(data.Payload)
	conn.logger.Info().Int("items", len(items)).Msg("contact list fetched")
	return items, nil
}

// parseContactList decodes a checkout payload: 2-byte format version
// (skipped), 2-byte item count, then per item a length-prefixed name,
// group id, item id, type code, and a trailing TLV block this engine
// skips without interpreting. Parsing stops at the first declared length
// that would read past the buffer, returning whatever was parsed.
func parseContactList(payload []byte) []ContactItem {
	cur := wire.NewCursor(payload)
	if !cur.Skip(2) {
		return nil
	}
	count, ok := cur.Uint16()
	if !ok {
		return nil
	}

	var items []ContactItem
	for i := 0; i < int(count); i++ {
		nameLen, ok := cur.Uint16()
		if !ok {
			break
		}
		name, ok := cur.Bytes(int(nameLen))
		if !ok {
			break
		}
		groupID, ok := cur.Uint16()
		if !ok {
			break
		}
		itemID, ok := cur.Uint16()
		if !ok {
			break
		}
		kind, ok := cur.Uint16()
		if !ok {
			break
		}
		tlvLen, ok := cur.Uint16()
		if !ok {
			break
		}
		if !cur.Skip(int(tlvLen)) {
			break
		}
		items = append(items, ContactItem{
			Name:    string(name),
			GroupID: groupID,
			ItemID:  itemID,
			Kind:    ItemKind(kind),
		})
	}
	return items
}
