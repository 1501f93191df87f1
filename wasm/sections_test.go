package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/simple-wasm/wasm"
)

func TestScanSections(t *testing.T) {
	m := addModule()
	m.CustomSections = []wasm.CustomSection{{Name: "test", Data: []byte("Test section!")}}
	data := m.Encode()

	headers, err := wasm.ScanSections(data)
	require.NoError(t, err)

	var kinds []string
	for _, h := range headers {
		kinds = append(kinds, h.Kind())
		assert.LessOrEqual(t, h.Offset+h.Size, len(data))
	}
	assert.Equal(t, []string{"type", "function", "export", "code", "test"}, kinds)

	last := headers[len(headers)-1]
	assert.Equal(t, wasm.SectionCustom, last.ID)
	assert.Equal(t, "test", last.Name)
	// one byte of name length, four of name, thirteen of payload
	assert.Equal(t, 18, last.Size)
	assert.Equal(t, "Test section!", string(data[last.Offset+5:last.Offset+last.Size]))
}

func TestScanSectionsTruncated(t *testing.T) {
	data := addModule().Encode()
	_, err := wasm.ScanSections(data[:len(data)-3])
	require.Error(t, err)
}

func TestCustomSectionPayload(t *testing.T) {
	m := addModule()
	m.CustomSections = []wasm.CustomSection{
		{Name: "producers", Data: []byte{0x00}},
		{Name: "test", Data: []byte("Test section!")},
	}

	payload, err := wasm.CustomSectionPayload(m.Encode(), "test")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x54, 0x65, 0x73, 0x74, 0x20, 0x73, 0x65, 0x63, 0x74, 0x69, 0x6f, 0x6e, 0x21}, payload)
}

func TestCustomSectionPayloadCount(t *testing.T) {
	tests := []struct {
		name     string
		sections []wasm.CustomSection
	}{
		{"missing", nil},
		{"other name", []wasm.CustomSection{{Name: "tests", Data: []byte("x")}}},
		{"twice", []wasm.CustomSection{
			{Name: "test", Data: []byte("a")},
			{Name: "test", Data: []byte("b")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := addModule()
			m.CustomSections = tt.sections
			_, err := wasm.CustomSectionPayload(m.Encode(), "test")
			assert.Error(t, err)
		})
	}
}
