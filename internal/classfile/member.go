package classfile

import (
	"encoding/json"
	"slices"
)

// Attribute is a raw attribute kept by a non-skipping parse. Data aliases
// the class file bytes and must not be modified.
type Attribute struct {
	Name string
	Data []byte
}

// ExceptionHandler is one entry of a Code attribute's exception table.
// CatchType is empty for a finally/catch-all handler.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType string
}

// Code is a decoded Code attribute. It is only produced when the parser
// runs with SkipCode disabled. Instructions aliases the class file bytes
// and must not be modified.
type Code struct {
	MaxStack       uint16
	MaxLocals      uint16
	Instructions   []byte
	ExceptionTable []ExceptionHandler
	Attributes     []Attribute
}

// MemberInfo describes one declared field or method.
type MemberInfo struct {
	name       string
	descriptor string
	access     AccessFlags
	kind       MemberKind
	code       *Code
	attributes []Attribute
}

// NewMemberInfo creates a field declaration record.
func NewMemberInfo(name, descriptor string, access AccessFlags) MemberInfo {
	return MemberInfo{name: name, descriptor: descriptor, access: access, kind: KindField}
}

// NewMethodInfo creates a method declaration record.
func NewMethodInfo(name, descriptor string, access AccessFlags) MemberInfo {
	return MemberInfo{name: name, descriptor: descriptor, access: access, kind: KindMethod}
}

// Name returns the member's simple name.
func (m MemberInfo) Name() string { return m.name }

// Descriptor returns the raw field or method descriptor.
func (m MemberInfo) Descriptor() string { return m.descriptor }

// Access returns the member's access flags.
func (m MemberInfo) Access() AccessFlags { return m.access }

// Kind returns KindField or KindMethod.
func (m MemberInfo) Kind() MemberKind { return m.kind }

// IsMethod reports whether the member is a method.
func (m MemberInfo) IsMethod() bool { return m.kind == KindMethod }

// IsConstructor reports whether the member is an instance initializer.
func (m MemberInfo) IsConstructor() bool { return m.kind == KindMethod && m.name == "<init>" }

// IsStaticInitializer reports whether the member is a class initializer.
func (m MemberInfo) IsStaticInitializer() bool { return m.kind == KindMethod && m.name == "<clinit>" }

// Key returns name+descriptor, which is unique within a member list.
func (m MemberInfo) Key() string { return m.name + m.descriptor }

// Code returns a copy of the decoded Code attribute, or nil when the method
// has no body or code was skipped.
func (m MemberInfo) Code() *Code {
	if m.code == nil {
		return nil
	}
	c := *m.code
	c.ExceptionTable = slices.Clone(m.code.ExceptionTable)
	c.Attributes = slices.Clone(m.code.Attributes)
	return &c
}

// Attributes returns the retained debug attributes. Empty unless the
// parser ran with SkipDebug disabled.
func (m MemberInfo) Attributes() []Attribute { return slices.Clone(m.attributes) }

// Equal compares the declaration facts (name, descriptor, access, kind).
func (m MemberInfo) Equal(o MemberInfo) bool {
	return m.name == o.name && m.descriptor == o.descriptor && m.access == o.access && m.kind == o.kind
}

type memberJSON struct {
	Name       string   `json:"name"`
	Descriptor string   `json:"descriptor"`
	Access     uint16   `json:"access"`
	Modifiers  []string `json:"modifiers"`
}

// MarshalJSON implements json.Marshaler.
func (m MemberInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(memberJSON{
		Name:       m.name,
		Descriptor: m.descriptor,
		Access:     uint16(m.access),
		Modifiers:  m.access.Modifiers(m.kind),
	})
}
