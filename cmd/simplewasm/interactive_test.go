package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/simple-wasm/engine"
	"github.com/wippyai/simple-wasm/fixture"
)

func TestDescribeExports(t *testing.T) {
	funcs := describeExports([]engine.FuncExport{
		{
			Name:       "add",
			Params:     []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
			Results:    []api.ValueType{api.ValueTypeI32},
			ParamNames: []string{"a", ""},
		},
		{Name: "nop"},
	})
	require.Len(t, funcs, 2)

	add := funcs[0]
	assert.Equal(t, "add", add.name)
	assert.Equal(t, wit.S32{}, add.resultType)
	require.Len(t, add.params, 2)
	assert.Equal(t, "a", add.params[0].name)
	assert.Equal(t, "arg1", add.params[1].name)
	assert.Equal(t, "s32", add.params[1].typeName())
	assert.IsType(t, wit.S32{}, add.params[0].witType)

	assert.Empty(t, funcs[1].params)
	assert.Nil(t, funcs[1].resultType)
}

func TestConvertArgs(t *testing.T) {
	params := []paramInfo{
		{name: "a", witType: wit.S32{}},
		{name: "b", witType: wit.S32{}},
	}

	args, err := convertArgs([]string{" 2 ", "-3"}, params)
	require.NoError(t, err)
	assert.Equal(t, []uint64{api.EncodeI32(2), api.EncodeI32(-3)}, args)

	_, err = convertArgs([]string{"1"}, params)
	assert.Error(t, err)

	_, err = convertArgs([]string{"1", "x"}, params)
	assert.ErrorContains(t, err, "b: ")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) *interactiveModel {
	t.Helper()
	data, err := fixture.Encode(fixture.DefaultOptions())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "simple.wasm")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	a := &app{cfg: defaultConfig(), log: zap.NewNop()}
	m := newInteractiveModel(context.Background(), a, path)
	t.Cleanup(m.close)

	assert.Equal(t, "Loading module...", m.View())
	m.Update(m.Init()())
	require.NoError(t, m.err)
	require.NotNil(t, m.instance)
	return m
}

func TestInteractiveCall(t *testing.T) {
	m := newTestModel(t)
	require.Len(t, m.funcs, 2)
	assert.Equal(t, "add", m.funcs[0].name)
	assert.Equal(t, "mem_stuff", m.funcs[1].name)
	assert.Contains(t, m.View(), "mem_stuff")

	m.Update(key("down"))
	assert.Equal(t, 1, m.selected)
	m.Update(key("down"))
	assert.Equal(t, 1, m.selected)

	m.Update(key("enter"))
	require.Equal(t, stateInputArgs, m.state)
	require.Len(t, m.inputs, 1)
	assert.Equal(t, "arg: ", m.inputs[0].Prompt)

	// q is text while typing arguments.
	m.Update(key("q"))
	assert.Equal(t, stateInputArgs, m.state)
	assert.NotNil(t, m.instance)

	m.inputs[0].SetValue("5")
	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, stateShowResult, m.state)
	require.NoError(t, m.err)
	assert.Equal(t, "50", m.result)
	assert.Contains(t, m.View(), "50")

	m.Update(key("enter"))
	assert.Equal(t, stateSelectFunc, m.state)
	assert.Empty(t, m.result)
}

func TestInteractiveCallError(t *testing.T) {
	m := newTestModel(t)

	m.Update(key("enter"))
	require.Len(t, m.inputs, 2)
	m.Update(key("tab"))
	assert.Equal(t, 1, m.focusIdx)

	m.inputs[0].SetValue("1")
	m.inputs[1].SetValue("two")
	_, cmd := m.Update(key("enter"))
	m.Update(cmd())
	assert.Equal(t, stateShowResult, m.state)
	assert.Error(t, m.err)
	assert.Contains(t, m.View(), "Error:")

	m.Update(key("esc"))
	assert.Equal(t, stateSelectFunc, m.state)
	assert.NoError(t, m.err)
}

func TestInteractiveQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, m.instance)
}

func TestInteractiveLoadError(t *testing.T) {
	a := &app{cfg: defaultConfig(), log: zap.NewNop()}
	m := newInteractiveModel(context.Background(), a, filepath.Join(t.TempDir(), "missing.wasm"))
	m.Update(m.Init()())
	assert.Error(t, m.err)
	assert.Contains(t, m.View(), "Press q to quit.")
}
