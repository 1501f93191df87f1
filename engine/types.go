package engine

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// WITType returns the WIT primitive matching a core value type. Reference
// types have no primitive and map to a type named after the core type.
func WITType(t api.ValueType) wit.Type {
	switch t {
	case api.ValueTypeI32:
		return wit.S32{}
	case api.ValueTypeI64:
		return wit.S64{}
	case api.ValueTypeF32:
		return wit.F32{}
	case api.ValueTypeF64:
		return wit.F64{}
	default:
		name := api.ValueTypeName(t)
		return &wit.TypeDef{Name: &name}
	}
}

// WITTypes maps each core value type with WITType.
func WITTypes(types []api.ValueType) []wit.Type {
	out := make([]wit.Type, len(types))
	for i, t := range types {
		out[i] = WITType(t)
	}
	return out
}

// WITFunction describes a core function as a freestanding WIT function.
// Parameters without a name are called p0, p1 and so on.
func WITFunction(name string, params, results []wit.Type, paramNames []string) *wit.Function {
	f := &wit.Function{Name: name, Kind: &wit.Freestanding{}}
	for i, t := range params {
		pname := ""
		if i < len(paramNames) {
			pname = paramNames[i]
		}
		if pname == "" {
			pname = fmt.Sprintf("p%d", i)
		}
		f.Params = append(f.Params, wit.Param{Name: pname, Type: t})
	}
	for _, t := range results {
		f.Results = append(f.Results, wit.Param{Type: t})
	}
	return f
}

// Signature renders f in WIT text format without the trailing semicolon,
// e.g. "add: func(a: s32, b: s32) -> s32".
func Signature(f *wit.Function) string {
	return strings.TrimSuffix(f.WIT(nil, ""), ";")
}
