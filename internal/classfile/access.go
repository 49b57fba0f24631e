package classfile

import "strings"

// AccessFlags is the access-flag bitmask of a class, field or method.
// Several bits are shared between contexts (0x0020 is ACC_SUPER on a class
// and ACC_SYNCHRONIZED on a method), so rendering needs a MemberKind.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020
	AccSynchronized AccessFlags = 0x0020
	AccVolatile     AccessFlags = 0x0040
	AccBridge       AccessFlags = 0x0040
	AccTransient    AccessFlags = 0x0080
	AccVarargs      AccessFlags = 0x0080
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
	AccMandated     AccessFlags = 0x8000
)

// MemberKind selects how shared access bits are interpreted.
type MemberKind int

const (
	// KindClass interprets flags as class modifiers.
	KindClass MemberKind = iota
	// KindField interprets flags as field modifiers.
	KindField
	// KindMethod interprets flags as method modifiers.
	KindMethod
)

// String returns the string representation of the kind.
func (k MemberKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Has reports whether all bits of flag are set.
func (a AccessFlags) Has(flag AccessFlags) bool {
	return a&flag == flag
}

type flagName struct {
	flag AccessFlags
	name string
}

// Declaration order follows the JLS recommended modifier order.
var (
	classFlagNames = []flagName{
		{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
		{AccStatic, "static"}, {AccFinal, "final"}, {AccAbstract, "abstract"},
		{AccStrict, "strictfp"}, {AccSynthetic, "synthetic"},
	}
	fieldFlagNames = []flagName{
		{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
		{AccStatic, "static"}, {AccFinal, "final"}, {AccTransient, "transient"},
		{AccVolatile, "volatile"}, {AccSynthetic, "synthetic"}, {AccEnum, "enum"},
	}
	methodFlagNames = []flagName{
		{AccPublic, "public"}, {AccPrivate, "private"}, {AccProtected, "protected"},
		{AccAbstract, "abstract"}, {AccStatic, "static"}, {AccFinal, "final"},
		{AccSynchronized, "synchronized"}, {AccNative, "native"}, {AccStrict, "strictfp"},
		{AccBridge, "bridge"}, {AccVarargs, "varargs"}, {AccSynthetic, "synthetic"},
	}
)

// Modifiers returns the modifier keywords for the given context.
// For classes the type keyword is not included; see TypeKeyword.
func (a AccessFlags) Modifiers(kind MemberKind) []string {
	var names []flagName
	switch kind {
	case KindField:
		names = fieldFlagNames
	case KindMethod:
		names = methodFlagNames
	default:
		names = classFlagNames
		// Interfaces are implicitly abstract.
		if a.Has(AccInterface) {
			a &^= AccAbstract
		}
	}

	mods := make([]string, 0, 4)
	for _, fn := range names {
		if a.Has(fn.flag) {
			mods = append(mods, fn.name)
		}
	}
	return mods
}

// Format renders the flags as a space separated modifier list.
func (a AccessFlags) Format(kind MemberKind) string {
	return strings.Join(a.Modifiers(kind), " ")
}

// TypeKeyword returns the declaration keyword implied by class flags.
func (a AccessFlags) TypeKeyword() string {
	switch {
	case a.Has(AccModule):
		return "module"
	case a.Has(AccAnnotation):
		return "@interface"
	case a.Has(AccInterface):
		return "interface"
	case a.Has(AccEnum):
		return "enum"
	default:
		return "class"
	}
}
