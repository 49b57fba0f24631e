package classfile

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// constantPool indexes the pool of a single class file for random access.
// Entries are located once while walking the pool; Utf8 payloads are only
// decoded when a declaration references them.
type constantPool struct {
	data []byte
	// offsets[i] is the position of entry i's payload (just past the tag),
	// or -1 for index 0 and the unusable slot after a Long or Double.
	offsets []int
	tags    []ConstantTag
	decoded map[uint16]string
}

// readConstantPool walks constant_pool_count-1 entries starting at the
// reader's position.
func readConstantPool(r *Reader) (*constantPool, error) {
	count, err := r.ReadUint16("constant pool count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, newFormatError(ErrKindConstantPool, r.Pos()-2, "constant pool count is zero")
	}

	cp := &constantPool{
		data:    r.buf,
		offsets: make([]int, count),
		tags:    make([]ConstantTag, count),
		decoded: make(map[uint16]string),
	}
	cp.offsets[0] = -1

	for i := 1; i < int(count); i++ {
		tagOffset := r.Pos()
		b, err := r.ReadUint8("constant tag")
		if err != nil {
			return nil, err
		}
		tag := ConstantTag(b)
		cp.tags[i] = tag
		cp.offsets[i] = r.Pos()

		size := constantSize(tag)
		switch {
		case size == 0:
			return nil, newFormatError(ErrKindConstantPool, tagOffset, "unknown constant tag %d at index %d", b, i)
		case size < 0:
			n, err := r.ReadUint16("utf8 length")
			if err != nil {
				return nil, err
			}
			if err := r.Skip(int(n), "utf8 bytes"); err != nil {
				return nil, err
			}
		default:
			if err := r.Skip(size, tag.String()+" constant"); err != nil {
				return nil, err
			}
		}

		if tag == TagLong || tag == TagDouble {
			i++
			if i < int(count) {
				cp.offsets[i] = -1
			} else {
				return nil, newFormatError(ErrKindConstantPool, tagOffset, "%s constant at last index %d", tag, i-1)
			}
		}
	}
	return cp, nil
}

// Len returns constant_pool_count.
func (cp *constantPool) Len() int {
	return len(cp.offsets)
}

// entry validates index and tag and returns the payload offset. ref is the
// position of the u2 holding index and is reported for bad indexes.
func (cp *constantPool) entry(index uint16, want ConstantTag, ref int) (int, error) {
	if int(index) >= len(cp.offsets) || cp.offsets[index] < 0 {
		return 0, newFormatError(ErrKindConstantPool, ref, "constant pool index %d out of range [1,%d)", index, len(cp.offsets))
	}
	if cp.tags[index] != want {
		return 0, newFormatError(ErrKindConstantPool, cp.offsets[index]-1, "constant %d is %s, want %s", index, cp.tags[index], want)
	}
	return cp.offsets[index], nil
}

// utf8Bytes returns the raw modified UTF-8 bytes of a Utf8 entry without
// decoding or copying them.
func (cp *constantPool) utf8Bytes(index uint16, ref int) ([]byte, error) {
	off, err := cp.entry(index, TagUtf8, ref)
	if err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint16(cp.data[off:]))
	return cp.data[off+2 : off+2+n], nil
}

// utf8 returns the decoded string of a Utf8 entry.
func (cp *constantPool) utf8(index uint16, ref int) (string, error) {
	if s, ok := cp.decoded[index]; ok {
		return s, nil
	}
	raw, err := cp.utf8Bytes(index, ref)
	if err != nil {
		return "", err
	}
	s, err := decodeModifiedUTF8(raw)
	if err != nil {
		return "", newFormatError(ErrKindConstantPool, cp.offsets[index]+2, "utf8 constant %d: %v", index, err)
	}
	cp.decoded[index] = s
	return s, nil
}

// className resolves a Class entry to its internal name.
func (cp *constantPool) className(index uint16, ref int) (string, error) {
	off, err := cp.entry(index, TagClass, ref)
	if err != nil {
		return "", err
	}
	return cp.utf8(binary.BigEndian.Uint16(cp.data[off:]), off)
}

type mutf8Error string

func (e mutf8Error) Error() string { return string(e) }

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is encoded as
// 0xC0 0x80 and supplementary characters as surrogate pairs of three bytes
// each. Four-byte forms and raw zero bytes are rejected.
func decodeModifiedUTF8(b []byte) (string, error) {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), nil
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", mutf8Error("raw zero byte")
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", mutf8Error("bad two-byte sequence")
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", mutf8Error("bad three-byte sequence")
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", mutf8Error("invalid lead byte")
		}
	}

	runes := utf16.Decode(units)
	buf := make([]byte, 0, len(b))
	for _, r := range runes {
		buf = utf8.AppendRune(buf, r)
	}
	return string(buf), nil
}
