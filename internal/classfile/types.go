package classfile

// Magic is the first four bytes of every class file.
const Magic uint32 = 0xCAFEBABE

// Supported class-file major versions. MaxMajorVersion tracks the newest
// format the parser understands (Java 25).
const (
	MinMajorVersion uint16 = 45
	MaxMajorVersion uint16 = 69

	// previewMinorVersion marks a class compiled with preview features.
	previewMinorVersion uint16 = 0xFFFF
	// strictMinorMajor is the first major version that restricts minor
	// versions to 0 or previewMinorVersion.
	strictMinorMajor uint16 = 56
)

// ConstantTag identifies the kind of a constant pool entry.
type ConstantTag uint8

const (
	TagUtf8               ConstantTag = 1
	TagInteger            ConstantTag = 3
	TagFloat              ConstantTag = 4
	TagLong               ConstantTag = 5
	TagDouble             ConstantTag = 6
	TagClass              ConstantTag = 7
	TagString             ConstantTag = 8
	TagFieldref           ConstantTag = 9
	TagMethodref          ConstantTag = 10
	TagInterfaceMethodref ConstantTag = 11
	TagNameAndType        ConstantTag = 12
	TagMethodHandle       ConstantTag = 15
	TagMethodType         ConstantTag = 16
	TagDynamic            ConstantTag = 17
	TagInvokeDynamic      ConstantTag = 18
	TagModule             ConstantTag = 19
	TagPackage            ConstantTag = 20
)

// String returns the JVMS name of the tag.
func (t ConstantTag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return "Unknown"
	}
}

// constantSize returns the payload size following the tag byte for
// fixed-size entries. Utf8 is variable length and reports -1; unknown
// tags report 0.
func constantSize(t ConstantTag) int {
	switch t {
	case TagUtf8:
		return -1
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		return 2
	case TagMethodHandle:
		return 3
	case TagInteger, TagFloat, TagFieldref, TagMethodref, TagInterfaceMethodref,
		TagNameAndType, TagDynamic, TagInvokeDynamic:
		return 4
	case TagLong, TagDouble:
		return 8
	default:
		return 0
	}
}

// Attribute names the parser recognizes.
const (
	AttrCode                   = "Code"
	AttrSourceFile             = "SourceFile"
	AttrSourceDebugExtension   = "SourceDebugExtension"
	AttrLineNumberTable        = "LineNumberTable"
	AttrLocalVariableTable     = "LocalVariableTable"
	AttrLocalVariableTypeTable = "LocalVariableTypeTable"
	AttrMethodParameters       = "MethodParameters"
)

// isDebugAttribute reports whether the raw attribute name denotes debug
// information. The name is compared without decoding it.
func isDebugAttribute(name []byte) bool {
	switch string(name) {
	case AttrSourceFile, AttrSourceDebugExtension, AttrLineNumberTable,
		AttrLocalVariableTable, AttrLocalVariableTypeTable, AttrMethodParameters:
		return true
	default:
		return false
	}
}

// Version is a class-file format version.
type Version struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
}

// IsPreview reports whether the class was compiled with preview features.
func (v Version) IsPreview() bool {
	return v.Major >= strictMinorMajor && v.Minor == previewMinorVersion
}

// JavaRelease returns the Java SE release that introduced the major
// version, e.g. 52 -> 8. Versions before Java 5 report 1.
func (v Version) JavaRelease() int {
	if v.Major < 49 {
		return 1
	}
	return int(v.Major) - 44
}
