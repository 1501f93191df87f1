package engine

import (
	"fmt"
	"testing"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"
)

func TestWITType(t *testing.T) {
	tests := []struct {
		core api.ValueType
		want wit.Type
		name string
	}{
		{api.ValueTypeI32, wit.S32{}, "s32"},
		{api.ValueTypeI64, wit.S64{}, "s64"},
		{api.ValueTypeF32, wit.F32{}, "f32"},
		{api.ValueTypeF64, wit.F64{}, "f64"},
		{api.ValueTypeExternref, &wit.TypeDef{}, "externref"},
	}
	for _, tt := range tests {
		got := WITType(tt.core)
		if fmt.Sprintf("%T", got) != fmt.Sprintf("%T", tt.want) {
			t.Errorf("WITType(%s) = %T, want %T", api.ValueTypeName(tt.core), got, tt.want)
		}
		if s := got.WIT(nil, ""); s != tt.name {
			t.Errorf("WITType(%s).WIT() = %q, want %q", api.ValueTypeName(tt.core), s, tt.name)
		}
	}
}

func TestSignature(t *testing.T) {
	i32 := []api.ValueType{api.ValueTypeI32}
	tests := []struct {
		name    string
		params  []api.ValueType
		results []api.ValueType
		names   []string
		want    string
	}{
		{"add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, i32, []string{"a", "b"}, "add: func(a: s32, b: s32) -> s32"},
		{"add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, i32, nil, "add: func(p0: s32, p1: s32) -> s32"},
		{"mem_stuff", i32, i32, []string{"arg"}, "mem_stuff: func(arg: s32) -> s32"},
		{"tick", nil, nil, nil, "tick: func()"},
		{"pair", nil, []api.ValueType{api.ValueTypeI64, api.ValueTypeF64}, nil, "pair: func() -> (s64, f64)"},
		{"ref", []api.ValueType{api.ValueTypeExternref}, nil, []string{"r"}, "ref: func(r: externref)"},
		{"set", i32, nil, []string{"type"}, "set: func(%type: s32)"},
	}
	for _, tt := range tests {
		f := WITFunction(tt.name, WITTypes(tt.params), WITTypes(tt.results), tt.names)
		if got := Signature(f); got != tt.want {
			t.Errorf("Signature(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSetLogger(t *testing.T) {
	if Logger() == nil {
		t.Fatal("default logger should not be nil")
	}
	l := zap.NewExample()
	SetLogger(l)
	defer SetLogger(nil)
	if Logger() != l {
		t.Error("SetLogger did not take effect")
	}
}
