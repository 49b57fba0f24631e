package classfile

import (
	"encoding/json"
	"slices"
)

// ItemInfo is a named binary artifact.
type ItemInfo struct {
	name  string
	value []byte
}

// NewItemInfo creates a named artifact backed by value.
func NewItemInfo(name string, value []byte) ItemInfo {
	return ItemInfo{name: name, value: value}
}

// Name returns the artifact name.
func (i ItemInfo) Name() string { return i.name }

// Value returns the artifact bytes. The slice is shared and must not be
// modified.
func (i ItemInfo) Value() []byte { return i.value }

// Size returns the artifact size in bytes.
func (i ItemInfo) Size() int { return len(i.value) }

// ClassInfo is the structural metadata of one class file. It is created by
// Parser.Parse and never changes afterwards.
type ClassInfo struct {
	ItemInfo
	superName  string
	hasSuper   bool
	interfaces []string
	access     AccessFlags
	version    Version
	sourceFile string
	fields     []MemberInfo
	methods    []MemberInfo
}

// SuperName returns the internal name of the direct supertype, or "" for
// java/lang/Object and module-info.
func (c *ClassInfo) SuperName() string { return c.superName }

// HasSuperName reports whether the class declares a supertype.
func (c *ClassInfo) HasSuperName() bool { return c.hasSuper }

// Interfaces returns the directly implemented interfaces in declaration
// order. The result is never nil.
func (c *ClassInfo) Interfaces() []string {
	out := make([]string, len(c.interfaces))
	copy(out, c.interfaces)
	return out
}

// Access returns the class access flags.
func (c *ClassInfo) Access() AccessFlags { return c.access }

// Version returns the class-file format version.
func (c *ClassInfo) Version() Version { return c.version }

// SourceFile returns the SourceFile attribute, which is only resolved when
// debug information is not skipped.
func (c *ClassInfo) SourceFile() string { return c.sourceFile }

// Fields returns the declared fields in file order.
func (c *ClassInfo) Fields() []MemberInfo { return slices.Clone(c.fields) }

// Methods returns the declared methods in file order.
func (c *ClassInfo) Methods() []MemberInfo { return slices.Clone(c.methods) }

// NumFields returns the number of declared fields.
func (c *ClassInfo) NumFields() int { return len(c.fields) }

// NumMethods returns the number of declared methods.
func (c *ClassInfo) NumMethods() int { return len(c.methods) }

// FindMethod returns the method with the given name and descriptor.
func (c *ClassInfo) FindMethod(name, descriptor string) (MemberInfo, bool) {
	return findMember(c.methods, name, descriptor)
}

// FindField returns the field with the given name and descriptor.
func (c *ClassInfo) FindField(name, descriptor string) (MemberInfo, bool) {
	return findMember(c.fields, name, descriptor)
}

func findMember(members []MemberInfo, name, descriptor string) (MemberInfo, bool) {
	for _, m := range members {
		if m.name == name && m.descriptor == descriptor {
			return m, true
		}
	}
	return MemberInfo{}, false
}

// IsInterface reports whether the class is an interface or annotation.
func (c *ClassInfo) IsInterface() bool { return c.access.Has(AccInterface) }

// IsModule reports whether the class is a module-info descriptor.
func (c *ClassInfo) IsModule() bool { return c.access.Has(AccModule) }

// PackageName returns the internal package name, "" for the default package.
func (c *ClassInfo) PackageName() string { return PackageName(c.Name()) }

// SimpleName returns the name without its package.
func (c *ClassInfo) SimpleName() string { return SimpleName(c.Name()) }

// JavaName returns the dotted binary name.
func (c *ClassInfo) JavaName() string { return JavaName(c.Name()) }

type classJSON struct {
	Name       string       `json:"name"`
	SuperName  *string      `json:"super_name"`
	Interfaces []string     `json:"interfaces"`
	Access     uint16       `json:"access"`
	Modifiers  []string     `json:"modifiers"`
	Kind       string       `json:"kind"`
	Version    Version      `json:"version"`
	SourceFile string       `json:"source_file,omitempty"`
	Size       int          `json:"size"`
	Fields     []MemberInfo `json:"fields"`
	Methods    []MemberInfo `json:"methods"`
}

// MarshalJSON implements json.Marshaler. Raw bytes are reported by size.
func (c *ClassInfo) MarshalJSON() ([]byte, error) {
	v := classJSON{
		Name:       c.Name(),
		Interfaces: c.Interfaces(),
		Access:     uint16(c.access),
		Modifiers:  c.access.Modifiers(KindClass),
		Kind:       c.access.TypeKeyword(),
		Version:    c.version,
		SourceFile: c.sourceFile,
		Size:       c.Size(),
		Fields:     c.fields,
		Methods:    c.methods,
	}
	if c.hasSuper {
		s := c.superName
		v.SuperName = &s
	}
	if v.Fields == nil {
		v.Fields = []MemberInfo{}
	}
	if v.Methods == nil {
		v.Methods = []MemberInfo{}
	}
	return json.Marshal(v)
}
