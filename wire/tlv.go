package wire

import "encoding/binary"

// TLV wire format: [2 bytes type][2 bytes length][value], records
// concatenated with no separator.

// TLV is a single type-length-value field.
type TLV struct {
	Type  uint16
	Value []byte
}

// TLVList is an ordered sequence of TLVs as they appeared on the wire.
type TLVList []TLV

// AppendTLV appends the encoding of one TLV to buf and returns the
// extended slice.
func AppendTLV(buf []byte, typ uint16, value []byte) []byte {
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[0:2], typ)
	binary.BigEndian.PutUint16(hdr[2:4], uint16(len(value)))
	buf = append(buf, hdr[:]...)
	return append(buf, value...)
}

// AppendTLVUint16 appends a TLV whose value is a 2-byte big-endian integer.
func AppendTLVUint16(buf []byte, typ uint16, v uint16) []byte {
	var value [2]byte
	binary.BigEndian.PutUint16(value[:], v)
	return AppendTLV(buf, typ, value[:])
}

// AppendTLVString appends a TLV whose value is the raw bytes of s.
func AppendTLVString(buf []byte, typ uint16, s string) []byte {
	return AppendTLV(buf, typ, []byte(s))
}

// DecodeTLVs scans buf left to right and returns every complete TLV found.
// Scanning stops cleanly at the first header or value that would read past
// the end of buf: TLV blocks are routinely sub-slices of larger payloads,
// and a truncated slice must degrade to fewer fields parsed.
func DecodeTLVs(buf []byte) TLVList {
	var list TLVList
	cur := NewCursor(buf)
	for cur.Remaining() >= 4 {
		typ, _ := cur.Uint16()
		length, _ := cur.Uint16()
		value, ok := cur.Bytes(int(length))
		if !ok {
			break
		}
		list = append(list, TLV{Type: typ, Value: value})
	}
	return list
}

// Bytes returns the value of the last TLV with the given type. Last-write-
// wins on duplicate types, matching how the rest of this engine treats
// duplicated fields.
func (l TLVList) Bytes(typ uint16) ([]byte, bool) {
	var value []byte
	found := false
	for _, tlv := range l {
		if tlv.Type == typ {
			value = tlv.Value
			found = true
		}
	}
	return value, found
}

// String returns the value of the last TLV with the given type as a string.
func (l TLVList) String(typ uint16) (string, bool) {
	value, ok := l.Bytes(typ)
	if !ok {
		return "", false
	}
	return string(value), true
}

// Uint16 returns the value of the last TLV with the given type decoded as
// a big-endian 16-bit integer. Values shorter than 2 bytes do not match.
func (l TLVList) Uint16(typ uint16) (uint16, bool) {
	value, ok := l.Bytes(typ)
	if !ok || len(value) < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(value), true
}
