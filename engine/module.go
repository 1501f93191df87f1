package engine

import (
	"bytes"
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	werrors "github.com/wippyai/simple-wasm/errors"
)

// Module is a compiled module.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// FuncExport describes an exported function.
type FuncExport struct {
	Name       string
	Params     []api.ValueType
	Results    []api.ValueType
	ParamNames []string // empty strings when the module carries no names
}

// WIT describes the export as a freestanding WIT function.
func (f FuncExport) WIT() *wit.Function {
	return WITFunction(f.Name, WITTypes(f.Params), WITTypes(f.Results), f.ParamNames)
}

// Signature renders the export in WIT text format, e.g.
// "add: func(a: s32, b: s32) -> s32".
func (f FuncExport) Signature() string {
	return Signature(f.WIT())
}

// Name returns the module name from the "name" custom section, if any.
func (m *Module) Name() string {
	return m.compiled.Name()
}

// Exports returns the exported functions sorted by name.
func (m *Module) Exports() []FuncExport {
	defs := m.compiled.ExportedFunctions()
	out := make([]FuncExport, 0, len(defs))
	for name, def := range defs {
		exp := FuncExport{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		}
		if names := def.ParamNames(); len(names) == len(exp.Params) {
			exp.ParamNames = names
		} else {
			exp.ParamNames = make([]string, len(exp.Params))
		}
		out = append(out, exp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Export returns the exported function with the given name.
func (m *Module) Export(name string) (FuncExport, bool) {
	for _, exp := range m.Exports() {
		if exp.Name == name {
			return exp, true
		}
	}
	return FuncExport{}, false
}

// CustomSectionNames lists custom section names in file order. The "name"
// section is decoded by wazero and not listed.
func (m *Module) CustomSectionNames() []string {
	sections := m.compiled.CustomSections()
	names := make([]string, len(sections))
	for i, cs := range sections {
		names[i] = cs.Name()
	}
	return names
}

// CustomSection returns a copy of the payload of the custom section named
// name. It fails unless exactly one such section exists.
func (m *Module) CustomSection(name string) ([]byte, error) {
	var (
		found []byte
		count int
	)
	for _, cs := range m.compiled.CustomSections() {
		if cs.Name() != name {
			continue
		}
		if count == 0 {
			found = cs.Data()
		}
		count++
	}
	switch count {
	case 0:
		return nil, werrors.NotFound(werrors.PhaseLoad, "custom section", name)
	case 1:
		return bytes.Clone(found), nil
	default:
		return nil, werrors.New(werrors.PhaseLoad, werrors.KindDuplicate).
			Section(name).
			Detail("%d custom sections share the name", count).
			Build()
	}
}

// Instantiate creates a new instance under a name unique to the engine.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	if m.compiled == nil {
		return nil, werrors.NotInitialized(werrors.PhaseRuntime, "module")
	}
	name := m.engine.nextName(m.compiled.Name())
	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, werrors.Instantiation(err)
	}
	m.engine.log.Debug("instantiated module", zap.String("name", name))
	return &Instance{instance: mod, log: m.engine.log}, nil
}

// Close releases the compiled module. Live instances keep working.
func (m *Module) Close(ctx context.Context) error {
	if m.compiled == nil {
		return nil
	}
	err := m.compiled.Close(ctx)
	m.compiled = nil
	return err
}
