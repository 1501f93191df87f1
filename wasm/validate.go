package wasm

import (
	"fmt"

	werrors "github.com/wippyai/simple-wasm/errors"
)

// Validate checks the module for structural validity.
func (m *Module) Validate() error {
	checks := []func() error{
		m.validateTypeIndices,
		m.validateFunctionIndices,
		m.validateMemories,
		m.validateGlobals,
		m.validateExports,
		m.validateStart,
		m.validateCodeCount,
		m.validateData,
		m.validateCode,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ParseModuleValidate parses a WebAssembly binary and validates it.
// This is a convenience function combining ParseModule and Validate.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func invalid(format string, args ...any) error {
	return werrors.New(werrors.PhaseValidate, werrors.KindInvalidData).Detail(format, args...).Build()
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))
	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"funcs", fmt.Sprint(i)}, int(typeIdx), int(numTypes))
		}
	}
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc && imp.Desc.TypeIdx >= numTypes {
			return invalid("import %d (%s.%s) references invalid type index %d", i, imp.Module, imp.Name, imp.Desc.TypeIdx)
		}
	}
	return nil
}

func (m *Module) validateFunctionIndices() error {
	numFuncs := uint32(m.NumImportedFuncs() + len(m.Funcs))
	numTables := uint32(m.NumImportedTables() + len(m.Tables))
	numMemories := uint32(m.NumImportedMemories() + len(m.Memories))
	numGlobals := uint32(m.NumImportedGlobals() + len(m.Globals))

	for i, exp := range m.Exports {
		var limit uint32
		switch exp.Kind {
		case KindFunc:
			limit = numFuncs
		case KindTable:
			limit = numTables
		case KindMemory:
			limit = numMemories
		case KindGlobal:
			limit = numGlobals
		}
		if exp.Idx >= limit {
			return invalid("export %d (%s) references invalid %s index %d", i, exp.Name, KindName(exp.Kind), exp.Idx)
		}
	}
	return nil
}

func (m *Module) validateMemories() error {
	if n := m.NumImportedMemories() + len(m.Memories); n > 1 {
		return werrors.Unsupported(werrors.PhaseValidate, fmt.Sprintf("%d memories (multi-memory)", n))
	}
	for i := range m.Memories {
		if err := validateLimits(m.Memories[i].Limits, MemoryMaxPages, fmt.Sprintf("memory %d", i)); err != nil {
			return err
		}
	}
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory && imp.Desc.Memory != nil {
			if err := validateLimits(imp.Desc.Memory.Limits, MemoryMaxPages, fmt.Sprintf("imported memory %d", i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLimits(l Limits, maxPages uint64, what string) error {
	if uint64(l.Min) > maxPages {
		return invalid("%s minimum %d exceeds %d pages", what, l.Min, maxPages)
	}
	if l.Max != nil {
		if uint64(*l.Max) > maxPages {
			return invalid("%s maximum %d exceeds %d pages", what, *l.Max, maxPages)
		}
		if *l.Max < l.Min {
			return invalid("%s maximum %d is below minimum %d", what, *l.Max, l.Min)
		}
	}
	return nil
}

func (m *Module) validateGlobals() error {
	numImported := uint32(m.NumImportedGlobals())
	for i, g := range m.Globals {
		if len(g.Init) < 2 || g.Init[len(g.Init)-1] != OpEnd {
			return invalid("global %d init expression is not terminated", i)
		}
		switch g.Init[0] {
		case OpI32Const:
			if g.Type.ValType != ValI32 {
				return werrors.New(werrors.PhaseValidate, werrors.KindTypeMismatch).
					Path("globals", fmt.Sprint(i)).
					Types(g.Type.ValType.String(), "i32").
					Build()
			}
		case OpGlobalGet:
			idx, _, err := ReadLEB128u(g.Init[1:])
			if err != nil || idx >= numImported {
				return invalid("global %d init may only read imported globals", i)
			}
		default:
			return invalid("global %d init is not a constant expression", i)
		}
	}
	return nil
}

func (m *Module) validateExports() error {
	seen := make(map[string]bool, len(m.Exports))
	for _, exp := range m.Exports {
		if seen[exp.Name] {
			return werrors.Duplicate(werrors.PhaseValidate, "export", exp.Name)
		}
		seen[exp.Name] = true
	}
	return nil
}

func (m *Module) validateStart() error {
	if m.Start == nil {
		return nil
	}

	funcType := m.GetFuncType(*m.Start)
	if funcType == nil {
		return invalid("start function %d has no type", *m.Start)
	}
	if len(funcType.Params) != 0 || len(funcType.Results) != 0 {
		return invalid("start function must have signature [] -> [], got %s", funcType)
	}
	return nil
}

func (m *Module) validateCodeCount() error {
	if len(m.Code) != len(m.Funcs) {
		return invalid("code section has %d entries but function section has %d", len(m.Code), len(m.Funcs))
	}
	return nil
}

func (m *Module) validateData() error {
	numMemories := uint32(m.NumImportedMemories() + len(m.Memories))
	for i, d := range m.Data {
		if d.Flags == 1 {
			continue
		}
		if d.MemIdx >= numMemories {
			return invalid("data segment %d references invalid memory index %d", i, d.MemIdx)
		}
		// Constant offsets can be bounds-checked against the declared minimum.
		if off, ok := EvalConstI32(d.Offset); ok && len(m.Memories) > 0 {
			end := uint64(uint32(off)) + uint64(len(d.Init))
			if end > uint64(m.Memories[0].Limits.Min)*uint64(PageSize) {
				return werrors.OutOfBounds(werrors.PhaseValidate, []string{"data", fmt.Sprint(i)},
					int(end), int(m.Memories[0].Limits.Min)*int(PageSize))
			}
		}
	}
	return nil
}

// validateCode decodes every body and checks index immediates and block
// nesting. It does not type-check the operand stack.
func (m *Module) validateCode() error {
	numImported := uint32(m.NumImportedFuncs())
	numFuncs := numImported + uint32(len(m.Funcs))
	numGlobals := uint32(m.NumImportedGlobals() + len(m.Globals))
	hasMemory := m.NumImportedMemories()+len(m.Memories) > 0

	for i, body := range m.Code {
		path := []string{"code", fmt.Sprint(i)}
		ft := m.GetFuncType(numImported + uint32(i))
		if ft == nil {
			return invalid("function %d has no type", i)
		}
		numLocals := uint64(len(ft.Params)) + body.NumLocals()

		instrs, err := DecodeInstructions(body.Code)
		if err != nil {
			return werrors.New(werrors.PhaseValidate, werrors.KindInvalidData).Path(path...).Cause(err).Build()
		}

		depth := 1
		for j, ins := range instrs {
			if depth == 0 {
				return invalid("function %d has instructions after its final end (at %d)", i, j)
			}
			switch imm := ins.Imm.(type) {
			case LocalImm:
				if uint64(imm.LocalIdx) >= numLocals {
					return werrors.OutOfBounds(werrors.PhaseValidate, path, int(imm.LocalIdx), int(numLocals))
				}
			case GlobalImm:
				if imm.GlobalIdx >= numGlobals {
					return werrors.OutOfBounds(werrors.PhaseValidate, path, int(imm.GlobalIdx), int(numGlobals))
				}
				if ins.Opcode == OpGlobalSet {
					if gt := m.GetGlobalType(imm.GlobalIdx); gt != nil && !gt.Mutable {
						return invalid("function %d writes immutable global %d", i, imm.GlobalIdx)
					}
				}
			case CallImm:
				if imm.FuncIdx >= numFuncs {
					return werrors.OutOfBounds(werrors.PhaseValidate, path, int(imm.FuncIdx), int(numFuncs))
				}
			case BranchImm:
				if int(imm.LabelIdx) >= depth {
					return invalid("function %d branches to label %d at depth %d", i, imm.LabelIdx, depth)
				}
			case MemoryImm:
				if !hasMemory {
					return invalid("function %d accesses memory but the module has none", i)
				}
			}
			switch ins.Opcode {
			case OpBlock, OpLoop, OpIf:
				depth++
			case OpEnd:
				depth--
			}
		}
		if depth != 0 {
			return invalid("function %d has unbalanced blocks", i)
		}
	}
	return nil
}
