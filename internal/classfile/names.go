package classfile

import (
	"fmt"
	"strings"
)

// JavaName converts an internal name (java/lang/String) to its dotted
// binary form (java.lang.String).
func JavaName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// InternalName converts a dotted name to internal form.
func InternalName(javaName string) string {
	return strings.ReplaceAll(javaName, ".", "/")
}

// PackageName returns the package part of an internal name.
func PackageName(internal string) string {
	if i := strings.LastIndexByte(internal, '/'); i >= 0 {
		return internal[:i]
	}
	return ""
}

// SimpleName returns the part of an internal name after the last '/'.
func SimpleName(internal string) string {
	return internal[strings.LastIndexByte(internal, '/')+1:]
}

var primitiveNames = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
	'V': "void",
}

// parseFieldType decodes one field type starting at desc[0] and returns its
// Java source spelling and the number of bytes consumed.
func parseFieldType(desc string) (string, int, error) {
	dims := 0
	for dims < len(desc) && desc[dims] == '[' {
		dims++
	}
	if dims == len(desc) {
		return "", 0, fmt.Errorf("descriptor %q: missing element type", desc)
	}

	var base string
	n := dims
	switch c := desc[dims]; c {
	case 'L':
		end := strings.IndexByte(desc[dims:], ';')
		if end < 2 {
			return "", 0, fmt.Errorf("descriptor %q: unterminated class type", desc)
		}
		base = JavaName(desc[dims+1 : dims+end])
		n += end + 1
	default:
		name, ok := primitiveNames[c]
		if !ok || (c == 'V' && dims > 0) {
			return "", 0, fmt.Errorf("descriptor %q: invalid type %q", desc, c)
		}
		base = name
		n++
	}
	return base + strings.Repeat("[]", dims), n, nil
}

// FieldTypeName renders a field descriptor as Java source, e.g.
// "[Ljava/lang/String;" -> "java.lang.String[]".
func FieldTypeName(desc string) (string, error) {
	name, n, err := parseFieldType(desc)
	if err != nil {
		return "", err
	}
	if n != len(desc) {
		return "", fmt.Errorf("descriptor %q: trailing characters", desc)
	}
	if name == "void" {
		return "", fmt.Errorf("descriptor %q: void field", desc)
	}
	return name, nil
}

// MethodTypeNames splits a method descriptor into Java source parameter
// types and return type.
func MethodTypeNames(desc string) (params []string, ret string, err error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, "", fmt.Errorf("descriptor %q: missing '('", desc)
	}
	i := 1
	params = []string{}
	for i < len(desc) && desc[i] != ')' {
		name, n, err := parseFieldType(desc[i:])
		if err != nil {
			return nil, "", err
		}
		if name == "void" {
			return nil, "", fmt.Errorf("descriptor %q: void parameter", desc)
		}
		params = append(params, name)
		i += n
	}
	if i >= len(desc) {
		return nil, "", fmt.Errorf("descriptor %q: missing ')'", desc)
	}
	ret, n, err := parseFieldType(desc[i+1:])
	if err != nil {
		return nil, "", err
	}
	if i+1+n != len(desc) {
		return nil, "", fmt.Errorf("descriptor %q: trailing characters", desc)
	}
	return params, ret, nil
}

// Declaration renders a member as a javap-style declaration, falling back
// to the raw descriptor when it cannot be decoded.
func (m MemberInfo) Declaration() string {
	mods := m.access.Format(m.kind)
	if mods != "" {
		mods += " "
	}
	if m.kind != KindMethod {
		typ, err := FieldTypeName(m.descriptor)
		if err != nil {
			return mods + m.name + " " + m.descriptor
		}
		return mods + typ + " " + m.name
	}
	params, ret, err := MethodTypeNames(m.descriptor)
	if err != nil {
		return mods + m.name + m.descriptor
	}
	return fmt.Sprintf("%s%s %s(%s)", mods, ret, m.name, strings.Join(params, ", "))
}
