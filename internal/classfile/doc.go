// Package classfile extracts declaration-level metadata from JVM class files.
//
// The parser walks the class-file binary format once: it validates the
// header, indexes the constant pool for random access, resolves the class's
// own identity (name, supertype, interfaces, access flags) and collects the
// declared fields and methods in file order. Method bodies and debug tables
// are stepped over by length and never materialized unless the caller asks
// for them through ParseOptions.
//
// # Usage Example
//
//	info, err := classfile.Read(data)
//	if err != nil {
//	    if apperrors.IsFormatError(err) {
//	        // not a valid or complete class file
//	    }
//	    return err
//	}
//	fmt.Println(info.Name(), info.SuperName(), info.Interfaces())
//	for _, m := range info.Methods() {
//	    fmt.Println(m.Name(), m.Descriptor(), m.Access())
//	}
//
// # Key Types
//
//   - Parser: configurable class-file parser (see ParseOptions)
//   - ClassInfo: immutable class unit, backed by the original bytes
//   - MemberInfo: immutable field or method declaration
//   - FormatError: typed failure for malformed or truncated input
//
// Parsing holds no package-level mutable state; independent buffers may be
// parsed concurrently and the resulting units shared without locking.
package classfile
