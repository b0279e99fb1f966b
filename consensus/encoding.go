package consensus

import "encoding/binary"

// cursor is a forward-only reader over a fixed byte slice. It is the same
// shape as the teacher's wire cursor: a successful read advances pos and
// returns bytes; a failed fixed-width read returns InvalidEncoding
// without mutating pos, while readVarint and readVarbytes may already
// have advanced past a tag or length prefix when a later check fails.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, newErr(InvalidEncoding, "truncated")
	}
	start := c.pos
	c.pos += n
	return c.b[start:c.pos], nil
}

func (c *cursor) readHash() (Hash, error) {
	b, err := c.readExact(32)
	if err != nil {
		return Hash{}, err
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func (c *cursor) readU8() (uint8, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readVarint decodes the Bitcoin-style compact varint from CANONICAL §4.1:
// < 0xfd -> 1 byte; 0xfd + u16; 0xfe + u32; 0xff + u64. Non-minimal
// encodings are rejected.
func (c *cursor) readVarint() (uint64, error) {
	tag, err := c.readU8()
	if err != nil {
		return 0, err
	}
	switch {
	case tag < 0xfd:
		return uint64(tag), nil
	case tag == 0xfd:
		v, err := c.readU16()
		if err != nil {
			return 0, err
		}
		if v < 0xfd {
			return 0, newErr(InvalidEncoding, "non-minimal varint (0xfd)")
		}
		return uint64(v), nil
	case tag == 0xfe:
		v, err := c.readU32()
		if err != nil {
			return 0, err
		}
		if v <= 0xffff {
			return 0, newErr(InvalidEncoding, "non-minimal varint (0xfe)")
		}
		return uint64(v), nil
	default:
		v, err := c.readU64()
		if err != nil {
			return 0, err
		}
		if v <= 0xffffffff {
			return 0, newErr(InvalidEncoding, "non-minimal varint (0xff)")
		}
		return v, nil
	}
}

// readVarbytes decodes varint(len) || bytes, bounding len against the
// remaining buffer so an oversize length prefix fails fast.
func (c *cursor) readVarbytes(maxLen uint64) ([]byte, error) {
	n, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, newErrf(InvalidEncoding, "varbytes length %d exceeds max %d", n, maxLen)
	}
	return c.readExact(int(n))
}

func (c *cursor) atEnd() bool {
	return c.pos == len(c.b)
}

// AppendVarint appends n to dst using the CANONICAL §4.1 compact scheme.
func AppendVarint(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return binary.LittleEndian.AppendUint16(dst, uint16(n))
	case n <= 0xffffffff:
		dst = append(dst, 0xfe)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return binary.LittleEndian.AppendUint64(dst, n)
	}
}

// AppendVarbytes appends varint(len(b)) || b to dst.
func AppendVarbytes(dst []byte, b []byte) []byte {
	dst = AppendVarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// VarintLen returns the number of bytes AppendVarint(nil, n) would produce.
func VarintLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// DecodeVarint decodes one varint from the front of buf, returning the
// value and the number of bytes consumed.
func DecodeVarint(buf []byte) (uint64, int, error) {
	c := newCursor(buf)
	v, err := c.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return v, c.pos, nil
}
