package classfile

// ParseOptions configures the class-file parser.
type ParseOptions struct {
	// SkipCode steps over method Code attributes without decoding them.
	SkipCode bool
	// SkipDebug steps over debug attributes (SourceFile, LineNumberTable,
	// LocalVariableTable, LocalVariableTypeTable, SourceDebugExtension,
	// MethodParameters).
	SkipDebug bool
}

// DefaultParseOptions returns the declaration-only mode: code and debug
// information are skipped.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{
		SkipCode:  true,
		SkipDebug: true,
	}
}

// FullParseOptions returns a mode that keeps code and debug attributes.
func FullParseOptions() *ParseOptions {
	return &ParseOptions{}
}

// Parser parses class files. A Parser has no mutable state and may be
// shared between goroutines.
type Parser struct {
	opts ParseOptions
}

// NewParser creates a new class-file parser.
func NewParser(opts *ParseOptions) *Parser {
	if opts == nil {
		opts = DefaultParseOptions()
	}
	return &Parser{opts: *opts}
}

// Options returns a copy of the parser options.
func (p *Parser) Options() ParseOptions {
	return p.opts
}

var defaultParser = NewParser(nil)

// Read parses value in declaration-only mode. The result aliases value,
// so the caller must not modify value afterwards.
func Read(value []byte) (*ClassInfo, error) {
	return defaultParser.Parse(value)
}

// parseState holds the per-call parsing state.
type parseState struct {
	reader *Reader
	pool   *constantPool
	opts   *ParseOptions
}

// Parse walks value once and returns its structural metadata. The
// returned ClassInfo retains value as its backing bytes without copying:
// value is never modified by the parser, and the caller must not modify it
// afterwards either. Callers that reuse a buffer pass a copy. On error no
// ClassInfo is returned.
func (p *Parser) Parse(value []byte) (*ClassInfo, error) {
	state := &parseState{
		reader: NewReader(value),
		opts:   &p.opts,
	}
	r := state.reader

	// Header
	magic, err := r.ReadUint32("magic")
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, newFormatError(ErrKindMagic, 0, "bad magic 0x%08X", magic)
	}
	version, err := readVersion(r)
	if err != nil {
		return nil, err
	}

	pool, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}
	state.pool = pool

	// Class identity
	access, err := r.ReadUint16("access flags")
	if err != nil {
		return nil, err
	}
	thisIndex, err := r.ReadUint16("this_class")
	if err != nil {
		return nil, err
	}
	name, err := pool.className(thisIndex, r.Pos()-2)
	if err != nil {
		return nil, err
	}
	superIndex, err := r.ReadUint16("super_class")
	if err != nil {
		return nil, err
	}
	var superName string
	if superIndex != 0 {
		if superName, err = pool.className(superIndex, r.Pos()-2); err != nil {
			return nil, err
		}
	}
	interfaces, err := p.readInterfaces(state)
	if err != nil {
		return nil, err
	}

	// Declarations
	fields, err := p.readMembers(state, KindField)
	if err != nil {
		return nil, err
	}
	methods, err := p.readMembers(state, KindMethod)
	if err != nil {
		return nil, err
	}

	sourceFile, err := p.readClassAttributes(state)
	if err != nil {
		return nil, err
	}

	return &ClassInfo{
		ItemInfo:   NewItemInfo(name, value),
		superName:  superName,
		hasSuper:   superIndex != 0,
		interfaces: interfaces,
		access:     AccessFlags(access),
		version:    version,
		sourceFile: sourceFile,
		fields:     fields,
		methods:    methods,
	}, nil
}

func readVersion(r *Reader) (Version, error) {
	minor, err := r.ReadUint16("minor version")
	if err != nil {
		return Version{}, err
	}
	major, err := r.ReadUint16("major version")
	if err != nil {
		return Version{}, err
	}
	v := Version{Major: major, Minor: minor}
	if major < MinMajorVersion || major > MaxMajorVersion {
		return v, newFormatError(ErrKindVersion, 6, "unsupported major version %d (supported %d-%d)", major, MinMajorVersion, MaxMajorVersion)
	}
	if major >= strictMinorMajor && minor != 0 && minor != previewMinorVersion {
		return v, newFormatError(ErrKindVersion, 4, "invalid minor version %d for major version %d", minor, major)
	}
	return v, nil
}

func (p *Parser) readInterfaces(state *parseState) ([]string, error) {
	r := state.reader
	count, err := r.ReadUint16("interfaces count")
	if err != nil {
		return nil, err
	}
	interfaces := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		index, err := r.ReadUint16("interface index")
		if err != nil {
			return nil, err
		}
		name, err := state.pool.className(index, r.Pos()-2)
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, name)
	}
	return interfaces, nil
}

// readMembers reads a field_info or method_info table in file order.
func (p *Parser) readMembers(state *parseState, kind MemberKind) ([]MemberInfo, error) {
	r := state.reader
	count, err := r.ReadUint16("member count")
	if err != nil {
		return nil, err
	}
	members := make([]MemberInfo, 0, count)
	for i := 0; i < int(count); i++ {
		m, err := p.readMember(state, kind)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (p *Parser) readMember(state *parseState, kind MemberKind) (MemberInfo, error) {
	r := state.reader
	access, err := r.ReadUint16("member access flags")
	if err != nil {
		return MemberInfo{}, err
	}
	nameIndex, err := r.ReadUint16("member name index")
	if err != nil {
		return MemberInfo{}, err
	}
	descIndex, err := r.ReadUint16("member descriptor index")
	if err != nil {
		return MemberInfo{}, err
	}
	name, err := state.pool.utf8(nameIndex, r.Pos()-4)
	if err != nil {
		return MemberInfo{}, err
	}
	descriptor, err := state.pool.utf8(descIndex, r.Pos()-2)
	if err != nil {
		return MemberInfo{}, err
	}

	m := MemberInfo{
		name:       name,
		descriptor: descriptor,
		access:     AccessFlags(access),
		kind:       kind,
	}

	count, err := r.ReadUint16("attributes count")
	if err != nil {
		return MemberInfo{}, err
	}
	for i := 0; i < int(count); i++ {
		attrName, length, err := readAttributeHeader(state)
		if err != nil {
			return MemberInfo{}, err
		}
		switch {
		case kind == KindMethod && string(attrName) == AttrCode && !state.opts.SkipCode:
			if m.code, err = p.readCode(state, length); err != nil {
				return MemberInfo{}, err
			}
		case isDebugAttribute(attrName) && !state.opts.SkipDebug:
			data, err := r.ReadBytes(length, string(attrName))
			if err != nil {
				return MemberInfo{}, err
			}
			m.attributes = append(m.attributes, Attribute{Name: string(attrName), Data: data})
		default:
			if err := r.Skip(length, "attribute"); err != nil {
				return MemberInfo{}, err
			}
		}
	}
	return m, nil
}

// readAttributeHeader reads attribute_name_index and attribute_length. The
// name is returned as raw pool bytes so skipped attributes cost no
// allocation.
func readAttributeHeader(state *parseState) ([]byte, int, error) {
	r := state.reader
	nameIndex, err := r.ReadUint16("attribute name index")
	if err != nil {
		return nil, 0, err
	}
	length, err := r.ReadUint32("attribute length")
	if err != nil {
		return nil, 0, err
	}
	name, err := state.pool.utf8Bytes(nameIndex, r.Pos()-6)
	if err != nil {
		return nil, 0, err
	}
	return name, int(length), nil
}

// readCode decodes a Code attribute of the given length.
func (p *Parser) readCode(state *parseState, length int) (*Code, error) {
	r := state.reader
	start := r.Pos()
	end := start + length
	if err := r.need(length, "Code attribute"); err != nil {
		return nil, err
	}

	code := &Code{}
	var err error
	if code.MaxStack, err = r.ReadUint16("max_stack"); err != nil {
		return nil, err
	}
	if code.MaxLocals, err = r.ReadUint16("max_locals"); err != nil {
		return nil, err
	}
	codeLength, err := r.ReadUint32("code_length")
	if err != nil {
		return nil, err
	}
	if code.Instructions, err = r.ReadBytes(int(codeLength), "code"); err != nil {
		return nil, err
	}

	handlers, err := r.ReadUint16("exception table length")
	if err != nil {
		return nil, err
	}
	code.ExceptionTable = make([]ExceptionHandler, 0, handlers)
	for i := 0; i < int(handlers); i++ {
		var h ExceptionHandler
		if h.StartPC, err = r.ReadUint16("start_pc"); err != nil {
			return nil, err
		}
		if h.EndPC, err = r.ReadUint16("end_pc"); err != nil {
			return nil, err
		}
		if h.HandlerPC, err = r.ReadUint16("handler_pc"); err != nil {
			return nil, err
		}
		catchIndex, err := r.ReadUint16("catch_type")
		if err != nil {
			return nil, err
		}
		if catchIndex != 0 {
			if h.CatchType, err = state.pool.className(catchIndex, r.Pos()-2); err != nil {
				return nil, err
			}
		}
		code.ExceptionTable = append(code.ExceptionTable, h)
	}

	count, err := r.ReadUint16("code attributes count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(count); i++ {
		name, n, err := readAttributeHeader(state)
		if err != nil {
			return nil, err
		}
		if isDebugAttribute(name) && state.opts.SkipDebug {
			if err := r.Skip(n, "code attribute"); err != nil {
				return nil, err
			}
			continue
		}
		data, err := r.ReadBytes(n, string(name))
		if err != nil {
			return nil, err
		}
		code.Attributes = append(code.Attributes, Attribute{Name: string(name), Data: data})
	}

	if r.Pos() != end {
		return nil, newFormatError(ErrKindAttribute, start, "Code attribute length %d, contents span %d", length, r.Pos()-start)
	}
	return code, nil
}

// readClassAttributes walks the trailing class attributes and resolves
// SourceFile when debug information is wanted.
func (p *Parser) readClassAttributes(state *parseState) (string, error) {
	r := state.reader
	count, err := r.ReadUint16("class attributes count")
	if err != nil {
		return "", err
	}
	var sourceFile string
	for i := 0; i < int(count); i++ {
		name, length, err := readAttributeHeader(state)
		if err != nil {
			return "", err
		}
		if string(name) != AttrSourceFile || state.opts.SkipDebug {
			if err := r.Skip(length, "attribute"); err != nil {
				return "", err
			}
			continue
		}
		if length != 2 {
			return "", newFormatError(ErrKindAttribute, r.Pos(), "SourceFile attribute length %d, want 2", length)
		}
		index, err := r.ReadUint16("sourcefile index")
		if err != nil {
			return "", err
		}
		if sourceFile, err = state.pool.utf8(index, r.Pos()-2); err != nil {
			return "", err
		}
	}
	return sourceFile, nil
}
