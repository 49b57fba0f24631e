package testutil

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

// Access flag bits used when building fixtures.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccSuper     uint16 = 0x0020
	AccInterface uint16 = 0x0200
	AccAbstract  uint16 = 0x0400
	AccModule    uint16 = 0x8000
)

// AttributeSpec describes an attribute to emit. Code attributes are
// assembled at build time so nested attribute names land in the pool.
type AttributeSpec struct {
	Name string
	Data []byte

	code *codeSpec
}

type codeSpec struct {
	maxStack  uint16
	maxLocals uint16
	code      []byte
	catchType string
	nested    []AttributeSpec
}

// MemberSpec describes a field or method declaration.
type MemberSpec struct {
	Access     uint16
	Name       string
	Descriptor string
	Attributes []AttributeSpec
}

// ClassBuilder assembles synthetic class files.
type ClassBuilder struct {
	major, minor uint16
	access       uint16
	name         string
	super        string
	hasSuper     bool
	interfaces   []string
	fields       []MemberSpec
	methods      []MemberSpec
	sourceFile   string
	classAttrs   []AttributeSpec
	longs        []int64

	pool       bytes.Buffer
	poolCount  uint16
	utf8Index  map[string]uint16
	classIndex map[string]uint16
}

// NewClassBuilder returns a builder for a public class extending
// java/lang/Object, class-file version 52 (Java 8).
func NewClassBuilder(name string) *ClassBuilder {
	return &ClassBuilder{
		major:    52,
		access:   AccPublic | AccSuper,
		name:     name,
		super:    "java/lang/Object",
		hasSuper: true,
	}
}

// Version sets the class-file version.
func (b *ClassBuilder) Version(major, minor uint16) *ClassBuilder {
	b.major, b.minor = major, minor
	return b
}

// Access sets the class access flags.
func (b *ClassBuilder) Access(access uint16) *ClassBuilder {
	b.access = access
	return b
}

// Super sets the supertype.
func (b *ClassBuilder) Super(name string) *ClassBuilder {
	b.super, b.hasSuper = name, true
	return b
}

// NoSuper emits super_class = 0.
func (b *ClassBuilder) NoSuper() *ClassBuilder {
	b.super, b.hasSuper = "", false
	return b
}

// Interfaces appends implemented interfaces.
func (b *ClassBuilder) Interfaces(names ...string) *ClassBuilder {
	b.interfaces = append(b.interfaces, names...)
	return b
}

// Field appends a field declaration.
func (b *ClassBuilder) Field(access uint16, name, descriptor string, attrs ...AttributeSpec) *ClassBuilder {
	b.fields = append(b.fields, MemberSpec{Access: access, Name: name, Descriptor: descriptor, Attributes: attrs})
	return b
}

// Method appends a method declaration.
func (b *ClassBuilder) Method(access uint16, name, descriptor string, attrs ...AttributeSpec) *ClassBuilder {
	b.methods = append(b.methods, MemberSpec{Access: access, Name: name, Descriptor: descriptor, Attributes: attrs})
	return b
}

// SourceFile emits a SourceFile class attribute.
func (b *ClassBuilder) SourceFile(name string) *ClassBuilder {
	b.sourceFile = name
	return b
}

// ClassAttribute appends an arbitrary class attribute.
func (b *ClassBuilder) ClassAttribute(attr AttributeSpec) *ClassBuilder {
	b.classAttrs = append(b.classAttrs, attr)
	return b
}

// LongConstant puts a two-slot Long entry at the front of the pool.
func (b *ClassBuilder) LongConstant(v int64) *ClassBuilder {
	b.longs = append(b.longs, v)
	return b
}

// CodeAttribute builds a Code attribute with the given instructions and
// nested attributes. When catchType is non-empty one exception handler
// covering the whole body is emitted.
func CodeAttribute(code []byte, catchType string, nested ...AttributeSpec) AttributeSpec {
	return AttributeSpec{
		Name: "Code",
		code: &codeSpec{maxStack: 2, maxLocals: 1, code: code, catchType: catchType, nested: nested},
	}
}

// LineNumberTable builds a LineNumberTable mapping pc i*2 to lines[i].
func LineNumberTable(lines ...uint16) AttributeSpec {
	var buf bytes.Buffer
	writeU2(&buf, uint16(len(lines)))
	for i, line := range lines {
		writeU2(&buf, uint16(i*2))
		writeU2(&buf, line)
	}
	return AttributeSpec{Name: "LineNumberTable", Data: buf.Bytes()}
}

// RawAttribute builds an attribute with an opaque payload.
func RawAttribute(name string, data []byte) AttributeSpec {
	return AttributeSpec{Name: name, Data: data}
}

// Bytes assembles the class file.
func (b *ClassBuilder) Bytes() []byte {
	b.pool.Reset()
	b.poolCount = 1
	b.utf8Index = make(map[string]uint16)
	b.classIndex = make(map[string]uint16)

	for _, v := range b.longs {
		b.pool.WriteByte(5)
		_ = binary.Write(&b.pool, binary.BigEndian, v)
		b.poolCount += 2
	}

	// Register pool entries before serializing the body.
	var body bytes.Buffer
	writeU2(&body, b.access)
	writeU2(&body, b.classRef(b.name))
	if b.hasSuper {
		writeU2(&body, b.classRef(b.super))
	} else {
		writeU2(&body, 0)
	}
	writeU2(&body, uint16(len(b.interfaces)))
	for _, iface := range b.interfaces {
		writeU2(&body, b.classRef(iface))
	}
	b.writeMembers(&body, b.fields)
	b.writeMembers(&body, b.methods)

	attrs := append([]AttributeSpec(nil), b.classAttrs...)
	if b.sourceFile != "" {
		var data bytes.Buffer
		writeU2(&data, b.utf8(b.sourceFile))
		attrs = append(attrs, AttributeSpec{Name: "SourceFile", Data: data.Bytes()})
	}
	b.writeAttributes(&body, attrs)

	var out bytes.Buffer
	writeU4(&out, 0xCAFEBABE)
	writeU2(&out, b.minor)
	writeU2(&out, b.major)
	writeU2(&out, b.poolCount)
	out.Write(b.pool.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func (b *ClassBuilder) writeMembers(w *bytes.Buffer, members []MemberSpec) {
	writeU2(w, uint16(len(members)))
	for _, m := range members {
		writeU2(w, m.Access)
		writeU2(w, b.utf8(m.Name))
		writeU2(w, b.utf8(m.Descriptor))
		b.writeAttributes(w, m.Attributes)
	}
}

func (b *ClassBuilder) writeAttributes(w *bytes.Buffer, attrs []AttributeSpec) {
	writeU2(w, uint16(len(attrs)))
	for _, a := range attrs {
		data := a.Data
		if a.code != nil {
			data = b.encodeCode(a.code)
		}
		writeU2(w, b.utf8(a.Name))
		writeU4(w, uint32(len(data)))
		w.Write(data)
	}
}

func (b *ClassBuilder) encodeCode(c *codeSpec) []byte {
	var w bytes.Buffer
	writeU2(&w, c.maxStack)
	writeU2(&w, c.maxLocals)
	writeU4(&w, uint32(len(c.code)))
	w.Write(c.code)
	if c.catchType != "" {
		writeU2(&w, 1)
		writeU2(&w, 0)
		writeU2(&w, uint16(len(c.code)))
		writeU2(&w, uint16(len(c.code)))
		writeU2(&w, b.classRef(c.catchType))
	} else {
		writeU2(&w, 0)
	}
	b.writeAttributes(&w, c.nested)
	return w.Bytes()
}

func (b *ClassBuilder) utf8(s string) uint16 {
	if idx, ok := b.utf8Index[s]; ok {
		return idx
	}
	enc := EncodeModifiedUTF8(s)
	b.pool.WriteByte(1)
	writeU2(&b.pool, uint16(len(enc)))
	b.pool.Write(enc)
	idx := b.poolCount
	b.poolCount++
	b.utf8Index[s] = idx
	return idx
}

func (b *ClassBuilder) classRef(name string) uint16 {
	if idx, ok := b.classIndex[name]; ok {
		return idx
	}
	nameIdx := b.utf8(name)
	b.pool.WriteByte(7)
	writeU2(&b.pool, nameIdx)
	idx := b.poolCount
	b.poolCount++
	b.classIndex[name] = idx
	return idx
}

// EncodeModifiedUTF8 encodes s the way class files store Utf8 constants.
func EncodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u != 0 && u < 0x80:
			out = append(out, byte(u))
		case u < 0x800:
			out = append(out, byte(0xC0|u>>6), byte(0x80|u&0x3F))
		default:
			out = append(out, byte(0xE0|u>>12), byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
		}
	}
	return out
}

func writeU2(w *bytes.Buffer, v uint16) {
	_ = binary.Write(w, binary.BigEndian, v)
}

func writeU4(w *bytes.Buffer, v uint32) {
	_ = binary.Write(w, binary.BigEndian, v)
}
