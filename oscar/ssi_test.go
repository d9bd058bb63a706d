package oscar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseContactList(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x04}
	payload = append(payload, ssiItem("alice", 1, 2, 0)...)
	payload = append(payload, ssiItem("Friends", 1, 0, 1)...)
	payload = append(payload, ssiItem("spammer", 0, 9, 3)...)
	payload = append(payload, ssiItem("weird", 0, 10, 42)...)

	items := parseContactList(payload)
	assert.Len(t, items, 4)
	assert.Equal(t, ContactItem{Name: "alice", GroupID: 1, ItemID: 2, Kind: KindBuddy}, items[0])
	assert.Equal(t, KindGroup, items[1].Kind)
	assert.Equal(t, KindDeny, items[2].Kind)
	// Unknown type codes are retained, not dropped.
	assert.Equal(t, ItemKind(42), items[3].Kind)
	assert.Equal(t, "unknown(42)", items[3].Kind.String())
}

func TestParseContactList_TrailingTLVsSkipped(t *testing.T) {
	// One item with a 4-byte trailing TLV block, then a second item.
	payload := []byte{0x00, 0x00, 0x00, 0x02}
	item := []byte{0x00, 0x01, 'a', 0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}
	payload = append(payload, item...)
	payload = append(payload, ssiItem("b", 1, 3, 0)...)

	items := parseContactList(payload)
	assert.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Name)
	assert.Equal(t, "b", items[1].Name)
}

func TestParseContactList_TruncatedName(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x02}
	payload = append(payload, ssiItem("ok", 1, 1, 0)...)
	// Second item declares a 50-byte name it does not deliver.
	payload = append(payload, 0x00, 0x32, 'x', 'y')

	items := parseContactList(payload)
	assert.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].Name)
}

func TestParseContactList_CountExceedsItems(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x09}
	payload = append(payload, ssiItem("only", 1, 1, 0)...)

	items := parseContactList(payload)
	assert.Len(t, items, 1)
}

func TestParseContactList_Empty(t *testing.T) {
	assert.Nil(t, parseContactList(nil))
	assert.Nil(t, parseContactList([]byte{0x00}))
	assert.Nil(t, parseContactList([]byte{0x00, 0x00, 0x00, 0x00}))
}

func TestItemKindJSON(t *testing.T) {
	out, err := json.Marshal(KindMasterGroup)
	assert.NoError(t, err)
	assert.Equal(t, `"masterGroup"`, string(out))

	out, err = json.Marshal(ItemKind(7))
	assert.NoError(t, err)
	assert.Equal(t, `"unknown(7)"`, string(out))
}
