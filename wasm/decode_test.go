package wasm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/wasm"
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func withHeader(sections ...byte) []byte {
	return append(append([]byte{}, header...), sections...)
}

func TestParseModuleInvalidMagic(t *testing.T) {
	_, err := wasm.ParseModule([]byte{0x00, 0x61, 0x73, 0x6e, 0x01, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, wasm.ErrInvalidMagic)
}

func TestParseModuleInvalidVersion(t *testing.T) {
	_, err := wasm.ParseModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, wasm.ErrInvalidVersion)
}

func TestParseModuleTruncatedHeader(t *testing.T) {
	_, err := wasm.ParseModule([]byte{0x00, 0x61, 0x73})
	require.Error(t, err)
}

func TestParseModuleEmpty(t *testing.T) {
	m, err := wasm.ParseModule(withHeader())
	require.NoError(t, err)
	assert.Empty(t, m.Types)
	assert.Empty(t, m.Exports)
	assert.Nil(t, m.Start)
}

func TestParseModuleAdd(t *testing.T) {
	m, err := wasm.ParseModule(addModule().Encode())
	require.NoError(t, err)

	require.Len(t, m.Types, 1)
	assert.Equal(t, "(i32, i32) -> i32", m.Types[0].String())

	exp, ok := m.ExportByName("add")
	require.True(t, ok)
	assert.Equal(t, wasm.KindFunc, exp.Kind)

	ft := m.GetFuncType(exp.Idx)
	require.NotNil(t, ft)
	assert.Equal(t, []wasm.ValType{wasm.ValI32, wasm.ValI32}, ft.Params)
	assert.Equal(t, []wasm.ValType{wasm.ValI32}, ft.Results)

	_, ok = m.ExportByName("missing")
	assert.False(t, ok)
	assert.Nil(t, m.GetFuncType(7))
}

func TestParseModuleDoesNotAliasInput(t *testing.T) {
	src := addModule()
	src.CustomSections = []wasm.CustomSection{{Name: "test", Data: []byte("Test section!")}}
	data := src.Encode()

	m, err := wasm.ParseModule(data)
	require.NoError(t, err)
	for i := range data {
		data[i] = 0
	}
	cs, n := m.CustomSection("test")
	assert.Equal(t, 1, n)
	assert.Equal(t, "Test section!", string(cs.Data))
}

func TestParseModuleSectionErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind werrors.Kind
	}{
		{
			name: "out of order",
			// function section before type section
			data: withHeader(0x03, 0x01, 0x00, 0x01, 0x01, 0x00),
			kind: werrors.KindInvalidData,
		},
		{
			name: "duplicate section",
			data: withHeader(0x01, 0x01, 0x00, 0x01, 0x01, 0x00),
			kind: werrors.KindInvalidData,
		},
		{
			name: "trailing bytes",
			// empty type vector followed by one stray byte
			data: withHeader(0x01, 0x02, 0x00, 0xff),
			kind: werrors.KindInvalidData,
		},
		{
			name: "element section after code",
			data: withHeader(0x0a, 0x01, 0x00, 0x09, 0x01, 0x00),
			kind: werrors.KindInvalidData,
		},
		{
			name: "function without code",
			data: withHeader(0x01, 0x04, 0x01, 0x60, 0x00, 0x00, 0x03, 0x02, 0x01, 0x00),
			kind: werrors.KindInvalidData,
		},
		{
			name: "datacount mismatch",
			data: withHeader(0x0c, 0x01, 0x02),
			kind: werrors.KindInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wasm.ParseModule(tt.data)
			require.Error(t, err)

			var werr *werrors.Error
			require.True(t, errors.As(err, &werr), "expected structured error, got %v", err)
			assert.Equal(t, werrors.PhaseDecode, werr.Phase)
			assert.Equal(t, tt.kind, werr.Kind)
		})
	}
}

func TestParseModuleKeepsElementSection(t *testing.T) {
	src := addModule()
	src.Tables = []wasm.TableType{{ElemType: wasm.ValFuncRef, Limits: wasm.Limits{Min: 1}}}
	// one active segment at i32.const 0 holding function 0
	src.ElementSection = []byte{0x01, 0x00, wasm.OpI32Const, 0x00, wasm.OpEnd, 0x01, 0x00}
	data := src.Encode()

	m, err := wasm.ParseModuleValidate(data)
	require.NoError(t, err)
	assert.Equal(t, src.ElementSection, m.ElementSection)
	assert.Equal(t, data, m.Encode())

	headers, err := wasm.ScanSections(data)
	require.NoError(t, err)
	var kinds []string
	for _, h := range headers {
		kinds = append(kinds, h.Kind())
	}
	assert.Equal(t, []string{"type", "function", "table", "export", "element", "code"}, kinds)
}

func TestParseModuleSectionOverrun(t *testing.T) {
	// section claims 16 bytes but only two follow
	_, err := wasm.ParseModule(withHeader(0x01, 0x10, 0x00, 0x00))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "section size")
}

func TestParseModuleUnknownSection(t *testing.T) {
	_, err := wasm.ParseModule(withHeader(0x0d, 0x00))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown section ID")
}

func TestParseModuleCustomSectionAnywhere(t *testing.T) {
	data := withHeader(
		0x00, 0x05, 0x04, 't', 'e', 's', 't', // custom "test", empty payload
		0x01, 0x01, 0x00, // empty type section
		0x00, 0x05, 0x04, 't', 'e', 's', 't',
	)
	m, err := wasm.ParseModule(data)
	require.NoError(t, err)

	_, n := m.CustomSection("test")
	assert.Equal(t, 2, n)
}

func TestEvalConstI32(t *testing.T) {
	tests := []struct {
		expr []byte
		want int32
		ok   bool
	}{
		{wasm.ConstI32Expr(0), 0, true},
		{wasm.ConstI32Expr(-1), -1, true},
		{wasm.ConstI32Expr(1024), 1024, true},
		{[]byte{wasm.OpGlobalGet, 0x00, wasm.OpEnd}, 0, false},
		{[]byte{wasm.OpI32Const, 0x01}, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := wasm.EvalConstI32(tt.expr)
		if ok != tt.ok || got != tt.want {
			t.Errorf("EvalConstI32(% x) = %d, %v; want %d, %v", tt.expr, got, ok, tt.want, tt.ok)
		}
	}
}
