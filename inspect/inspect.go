package inspect

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/simple-wasm/engine"
	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/wasm"
)

// Report describes a module binary.
type Report struct {
	ModuleName     string
	Sections       []Section
	Functions      []Function
	Memories       []Memory
	Globals        []Global
	CustomSections []CustomSection
	Size           int

	// Invalid is why the module failed validation, nil when it passed.
	Invalid error
}

// Section is one entry of the section list in file order.
type Section struct {
	Kind   string
	Offset int
	Size   int
	ID     byte
}

// Function is an exported function.
type Function struct {
	Name       string
	Params     []wit.Type
	Results    []wit.Type
	ParamNames []string
	Index      uint32
}

// Memory is an exported or internal linear memory.
type Memory struct {
	Export string // empty when not exported
	Max    *uint32
	Min    uint32
}

// Global is an exported global. Value is set when the init expression is
// an i32 constant.
type Global struct {
	Name    string
	Type    wit.Type
	Value   *int32
	Mutable bool
}

// CustomSection is a custom section that passed the filter.
type CustomSection struct {
	Name string
	Data []byte
}

// Printable reports whether the payload is printable ASCII.
func (c CustomSection) Printable() bool {
	if len(c.Data) == 0 {
		return false
	}
	for _, b := range c.Data {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}

// Describe parses data and builds its report. A module that parses but
// fails Validate is still described, with the failure in Report.Invalid.
// Custom sections are kept when their name matches the glob filter; an
// empty filter keeps all of them.
func Describe(data []byte, filter string) (*Report, error) {
	var match glob.Glob
	if filter != "" {
		g, err := glob.Compile(filter)
		if err != nil {
			return nil, werrors.Wrap(werrors.PhaseConfig, werrors.KindInvalidInput, err,
				fmt.Sprintf("section filter %q", filter))
		}
		match = g
	}

	headers, err := wasm.ScanSections(data)
	if err != nil {
		return nil, err
	}
	m, err := wasm.ParseModule(data)
	if err != nil {
		return nil, err
	}
	names, err := m.Names()
	if err != nil {
		return nil, fmt.Errorf("name section: %w", err)
	}

	r := &Report{Size: len(data), Invalid: m.Validate()}
	if names != nil {
		r.ModuleName = names.Module
	}
	for _, h := range headers {
		r.Sections = append(r.Sections, Section{Kind: h.Kind(), ID: h.ID, Offset: h.Offset, Size: h.Size})
	}

	memExports := map[uint32]string{}
	for _, exp := range m.Exports {
		switch exp.Kind {
		case wasm.KindFunc:
			r.Functions = append(r.Functions, describeFunc(m, names, exp))
		case wasm.KindGlobal:
			if g, ok := describeGlobal(m, exp); ok {
				r.Globals = append(r.Globals, g)
			}
		case wasm.KindMemory:
			memExports[exp.Idx] = exp.Name
		}
	}
	for i, mem := range m.Memories {
		idx := uint32(m.NumImportedMemories() + i)
		r.Memories = append(r.Memories, Memory{Export: memExports[idx], Min: mem.Limits.Min, Max: mem.Limits.Max})
	}

	for _, cs := range m.CustomSections {
		if match != nil && !match.Match(cs.Name) {
			continue
		}
		r.CustomSections = append(r.CustomSections, CustomSection{Name: cs.Name, Data: cs.Data})
	}
	return r, nil
}

func describeFunc(m *wasm.Module, names *wasm.NameSection, exp wasm.Export) Function {
	f := Function{Name: exp.Name, Index: exp.Idx}
	ft := m.GetFuncType(exp.Idx)
	if ft == nil {
		return f
	}
	for _, p := range ft.Params {
		f.Params = append(f.Params, witType(p))
	}
	for _, r := range ft.Results {
		f.Results = append(f.Results, witType(r))
	}
	f.ParamNames = make([]string, len(ft.Params))
	if names != nil {
		for i := range f.ParamNames {
			f.ParamNames[i] = names.Locals[exp.Idx][uint32(i)]
		}
	}
	return f
}

func describeGlobal(m *wasm.Module, exp wasm.Export) (Global, bool) {
	gt := m.GetGlobalType(exp.Idx)
	if gt == nil {
		return Global{}, false
	}
	g := Global{Name: exp.Name, Type: witType(gt.ValType), Mutable: gt.Mutable}
	local := int(exp.Idx) - m.NumImportedGlobals()
	if local >= 0 && local < len(m.Globals) {
		if v, ok := wasm.EvalConstI32(m.Globals[local].Init); ok {
			g.Value = &v
		}
	}
	return g, true
}

// witType maps a core value type to its WIT type. Core and runtime value
// type encodings are the same bytes.
func witType(v wasm.ValType) wit.Type {
	return engine.WITType(api.ValueType(v))
}

// WIT describes the function as a freestanding WIT function.
func (f Function) WIT() *wit.Function {
	return engine.WITFunction(f.Name, f.Params, f.Results, f.ParamNames)
}

// Signature renders the function in WIT text format, e.g.
// "add: func(a: s32, b: s32) -> s32".
func (f Function) Signature() string {
	return engine.Signature(f.WIT())
}

// CustomSection returns the filtered custom section named name.
func (r *Report) CustomSection(name string) (CustomSection, bool) {
	for _, cs := range r.CustomSections {
		if cs.Name == name {
			return cs, true
		}
	}
	return CustomSection{}, false
}
