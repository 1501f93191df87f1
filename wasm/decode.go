package wasm

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseModule parses a WebAssembly binary module.
// The returned module does not alias data.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	if err := readHeader(r); err != nil {
		return nil, err
	}

	m := &Module{}
	var (
		lastSectionID byte
		dataCount     *uint32
	)

	for {
		sectionID, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, r.WrapError("section header", err)
		}

		// Custom sections can appear anywhere; the rest are ordered and unique.
		if sectionID != SectionCustom {
			if sectionOrder(sectionID) <= sectionOrder(lastSectionID) {
				return nil, werrors.InvalidData(werrors.PhaseDecode, SectionIDName(sectionID),
					fmt.Sprintf("section %d appears out of order or twice", sectionID))
			}
			lastSectionID = sectionID
		}

		payload, err := r.ReadVec()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		sr := binary.NewReaderAt(payload, r.Position()-len(payload))

		switch sectionID {
		case SectionCustom:
			err = parseCustomSection(sr, m)
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionImport:
			err = parseImportSection(sr, m)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionTable:
			err = parseTableSection(sr, m)
		case SectionMemory:
			err = parseMemorySection(sr, m)
		case SectionGlobal:
			err = parseGlobalSection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionStart:
			err = parseStartSection(sr, m)
		case SectionElement:
			m.ElementSection = bytes.Clone(sr.ReadRemaining())
		case SectionCode:
			err = parseCodeSection(sr, m)
		case SectionData:
			err = parseDataSection(sr, m)
		case SectionDataCount:
			var n uint32
			n, err = sr.ReadU32()
			dataCount = &n
		default:
			return nil, fmt.Errorf("unknown section ID: 0x%02x", sectionID)
		}
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", SectionIDName(sectionID), err)
		}
		if sr.Len() != 0 {
			return nil, werrors.InvalidData(werrors.PhaseDecode, SectionIDName(sectionID),
				fmt.Sprintf("%d trailing bytes", sr.Len()))
		}
	}

	if dataCount != nil && int(*dataCount) != len(m.Data) {
		return nil, werrors.InvalidData(werrors.PhaseDecode, "datacount",
			fmt.Sprintf("declares %d segments, data section has %d", *dataCount, len(m.Data)))
	}
	if len(m.Funcs) != len(m.Code) {
		return nil, werrors.InvalidData(werrors.PhaseDecode, "code",
			fmt.Sprintf("%d bodies for %d declared functions", len(m.Code), len(m.Funcs)))
	}

	return m, nil
}

func readHeader(r *binary.Reader) error {
	magic, err := r.ReadU32LE()
	if err != nil {
		return r.WrapError("header", err)
	}
	if magic != Magic {
		return ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return r.WrapError("header", err)
	}
	if version != Version {
		return ErrInvalidVersion
	}
	return nil
}

// sectionOrder returns the canonical ordering for a section ID.
// DataCount sits between Element and Code even though its ID is larger.
func sectionOrder(id byte) int {
	switch id {
	case SectionDataCount:
		return int(SectionElement)*10 + 5
	default:
		return int(id) * 10
	}
}

// readCount reads a vector length and rejects counts that cannot fit in
// the remaining bytes, assuming each element takes at least one byte.
func readCount(r *binary.Reader) (uint32, error) {
	count, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	if int64(count) > int64(r.Len()) {
		return 0, fmt.Errorf("vector length %d exceeds remaining %d bytes", count, r.Len())
	}
	return count, nil
}

func parseCustomSection(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{
		Name: name,
		Data: bytes.Clone(r.ReadRemaining()),
	})
	return nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			return werrors.Unsupported(werrors.PhaseDecode, fmt.Sprintf("type form 0x%02x", form))
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.Types[i] = FuncType{Params: params, Results: results}
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	types := make([]ValType, count)
	for i := range types {
		t, err := readValType(r)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	if !validValType(b) {
		return 0, fmt.Errorf("invalid value type 0x%02x", b)
	}
	return ValType(b), nil
}

func parseImportSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Imports = make([]Import, count)
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}

		imp := Import{Module: module, Name: name, Desc: ImportDesc{Kind: kind}}

		switch kind {
		case KindFunc:
			imp.Desc.TypeIdx, err = r.ReadU32()
			if err != nil {
				return err
			}
		case KindTable:
			table, err := readTableType(r)
			if err != nil {
				return err
			}
			imp.Desc.Table = &table
		case KindMemory:
			limits, err := readLimits(r)
			if err != nil {
				return err
			}
			imp.Desc.Memory = &MemoryType{Limits: limits}
		case KindGlobal:
			global, err := readGlobalType(r)
			if err != nil {
				return err
			}
			imp.Desc.Global = &global
		default:
			return fmt.Errorf("unknown import kind: %d", kind)
		}

		m.Imports[i] = imp
	}
	return nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, count)
	for i := range m.Funcs {
		if m.Funcs[i], err = r.ReadU32(); err != nil {
			return err
		}
	}
	return nil
}

func parseTableSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Tables = make([]TableType, count)
	for i := range m.Tables {
		if m.Tables[i], err = readTableType(r); err != nil {
			return err
		}
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Memories = make([]MemoryType, count)
	for i := range m.Memories {
		limits, err := readLimits(r)
		if err != nil {
			return err
		}
		m.Memories[i] = MemoryType{Limits: limits}
	}
	return nil
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Globals = make([]Global, count)
	for i := range m.Globals {
		gt, err := readGlobalType(r)
		if err != nil {
			return err
		}
		init, err := readInitExpr(r)
		if err != nil {
			return err
		}
		m.Globals[i] = Global{Type: gt, Init: init}
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Exports = make([]Export, count)
	for i := range m.Exports {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindGlobal {
			return fmt.Errorf("unknown export kind: %d", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports[i] = Export{Name: name, Kind: kind, Idx: idx}
	}
	return nil
}

func parseStartSection(r *binary.Reader, m *Module) error {
	idx, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, count)
	for i := range m.Code {
		bodyData, err := r.ReadVec()
		if err != nil {
			return err
		}
		br := binary.NewReaderAt(bodyData, r.Position()-len(bodyData))

		groups, err := readCount(br)
		if err != nil {
			return err
		}
		var (
			locals []LocalEntry
			total  uint64
		)
		for j := uint32(0); j < groups; j++ {
			n, err := br.ReadU32()
			if err != nil {
				return err
			}
			t, err := readValType(br)
			if err != nil {
				return err
			}
			total += uint64(n)
			if total > maxLocals {
				return werrors.InvalidData(werrors.PhaseDecode, "code",
					fmt.Sprintf("function %d declares more than %d locals", i, maxLocals))
			}
			locals = append(locals, LocalEntry{Count: n, ValType: t})
		}

		code := bytes.Clone(br.ReadRemaining())
		if len(code) == 0 || code[len(code)-1] != OpEnd {
			return werrors.InvalidData(werrors.PhaseDecode, "code",
				fmt.Sprintf("function %d body does not end with end opcode", i))
		}
		m.Code[i] = FuncBody{Locals: locals, Code: code}
	}
	return nil
}

// maxLocals bounds declared locals per function, matching common engines.
const maxLocals = 50000

func parseDataSection(r *binary.Reader, m *Module) error {
	count, err := readCount(r)
	if err != nil {
		return err
	}
	m.Data = make([]DataSegment, count)
	for i := range m.Data {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags > 2 {
			return fmt.Errorf("invalid data segment flags: %d", flags)
		}

		seg := DataSegment{Flags: flags}
		if flags == 2 {
			if seg.MemIdx, err = r.ReadU32(); err != nil {
				return err
			}
		}
		if flags != 1 {
			if seg.Offset, err = readInitExpr(r); err != nil {
				return err
			}
		}
		init, err := r.ReadVec()
		if err != nil {
			return err
		}
		seg.Init = bytes.Clone(init)

		m.Data[i] = seg
	}
	return nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, io.ErrUnexpectedEOF
	}
	var l Limits
	switch flags {
	case LimitsNoMax:
		l.Min, err = r.ReadU32()
	case LimitsHasMax:
		if l.Min, err = r.ReadU32(); err != nil {
			return Limits{}, err
		}
		var maxPages uint32
		maxPages, err = r.ReadU32()
		l.Max = &maxPages
	default:
		return Limits{}, werrors.Unsupported(werrors.PhaseDecode, fmt.Sprintf("limits flags 0x%02x", flags))
	}
	if err != nil {
		return Limits{}, err
	}
	return l, nil
}

func readTableType(r *binary.Reader) (TableType, error) {
	elem, err := readValType(r)
	if err != nil {
		return TableType{}, err
	}
	if elem != ValFuncRef && elem != ValExtern {
		return TableType{}, fmt.Errorf("table element type must be a reference, got %s", elem)
	}
	limits, err := readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elem, Limits: limits}, nil
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	vt, err := readValType(r)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, io.ErrUnexpectedEOF
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("invalid mutability flag %d", mut)
	}
	return GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

// readInitExpr copies a constant expression up to and including its end
// opcode. Only i32.const and global.get are accepted.
func readInitExpr(r *binary.Reader) ([]byte, error) {
	var expr []byte
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		expr = append(expr, op)
		switch op {
		case OpEnd:
			return expr, nil
		case OpI32Const:
			v, err := r.ReadS32()
			if err != nil {
				return nil, err
			}
			expr = AppendLEB128s(expr, v)
		case OpGlobalGet:
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			expr = AppendLEB128u(expr, idx)
		default:
			return nil, werrors.Unsupported(werrors.PhaseDecode, fmt.Sprintf("opcode 0x%02x in constant expression", op))
		}
	}
}

// EvalConstI32 evaluates an "i32.const v; end" init expression.
func EvalConstI32(expr []byte) (int32, bool) {
	if len(expr) < 3 || expr[0] != OpI32Const || expr[len(expr)-1] != OpEnd {
		return 0, false
	}
	v, n, err := ReadLEB128s(expr[1:])
	if err != nil || n != len(expr)-2 {
		return 0, false
	}
	return v, true
}
