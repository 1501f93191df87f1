package wasm

import (
	"github.com/wippyai/simple-wasm/wasm/internal/binary"
)

// Encode encodes the module to WebAssembly binary format.
// Known sections are written in canonical order and custom sections are
// appended after them in declaration order. Empty sections are omitted.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	vecSection(w, SectionType, m.Types, encodeFuncType)
	vecSection(w, SectionImport, m.Imports, encodeImport)
	vecSection(w, SectionFunction, m.Funcs, (*binary.Writer).WriteU32)
	vecSection(w, SectionTable, m.Tables, encodeTableType)
	vecSection(w, SectionMemory, m.Memories, func(w *binary.Writer, mem MemoryType) {
		encodeLimits(w, mem.Limits)
	})
	vecSection(w, SectionGlobal, m.Globals, func(w *binary.Writer, g Global) {
		encodeGlobalType(w, g.Type)
		w.WriteBytes(g.Init)
	})
	vecSection(w, SectionExport, m.Exports, func(w *binary.Writer, exp Export) {
		w.WriteName(exp.Name)
		w.Byte(exp.Kind)
		w.WriteU32(exp.Idx)
	})
	if m.Start != nil {
		section(w, SectionStart, func(w *binary.Writer) { w.WriteU32(*m.Start) })
	}
	if len(m.ElementSection) > 0 {
		section(w, SectionElement, func(w *binary.Writer) { w.WriteBytes(m.ElementSection) })
	}
	vecSection(w, SectionCode, m.Code, encodeBody)
	vecSection(w, SectionData, m.Data, encodeDataSegment)

	for _, cs := range m.CustomSections {
		section(w, SectionCustom, func(w *binary.Writer) {
			w.WriteName(cs.Name)
			w.WriteBytes(cs.Data)
		})
	}
	return w.Bytes()
}

// section writes id followed by the size-prefixed payload produced by body.
func section(w *binary.Writer, id byte, body func(*binary.Writer)) {
	payload := binary.NewWriter()
	body(payload)
	w.Byte(id)
	w.WriteVec(payload.Bytes())
}

// vecSection writes a section holding a vector of items, or nothing when
// items is empty.
func vecSection[T any](w *binary.Writer, id byte, items []T, enc func(*binary.Writer, T)) {
	if len(items) == 0 {
		return
	}
	section(w, id, func(w *binary.Writer) {
		w.WriteU32(uint32(len(items)))
		for _, item := range items {
			enc(w, item)
		}
	})
}

func encodeFuncType(w *binary.Writer, ft FuncType) {
	w.Byte(FuncTypeByte)
	encodeValTypes(w, ft.Params)
	encodeValTypes(w, ft.Results)
}

func encodeValTypes(w *binary.Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func encodeImport(w *binary.Writer, imp Import) {
	w.WriteName(imp.Module)
	w.WriteName(imp.Name)
	w.Byte(imp.Desc.Kind)
	switch d := imp.Desc; {
	case d.Kind == KindFunc:
		w.WriteU32(d.TypeIdx)
	case d.Kind == KindTable && d.Table != nil:
		encodeTableType(w, *d.Table)
	case d.Kind == KindMemory && d.Memory != nil:
		encodeLimits(w, d.Memory.Limits)
	case d.Kind == KindGlobal && d.Global != nil:
		encodeGlobalType(w, *d.Global)
	}
}

func encodeLimits(w *binary.Writer, l Limits) {
	if l.Max == nil {
		w.Byte(LimitsNoMax)
		w.WriteU32(l.Min)
		return
	}
	w.Byte(LimitsHasMax)
	w.WriteU32(l.Min)
	w.WriteU32(*l.Max)
}

func encodeTableType(w *binary.Writer, t TableType) {
	w.Byte(byte(t.ElemType))
	encodeLimits(w, t.Limits)
}

func encodeGlobalType(w *binary.Writer, g GlobalType) {
	var mut byte
	if g.Mutable {
		mut = 1
	}
	w.Byte(byte(g.ValType))
	w.Byte(mut)
}

// encodeBody writes a size-prefixed function body: local groups, then code.
func encodeBody(w *binary.Writer, body FuncBody) {
	b := binary.NewWriter()
	b.WriteU32(uint32(len(body.Locals)))
	for _, l := range body.Locals {
		b.WriteU32(l.Count)
		b.Byte(byte(l.ValType))
	}
	b.WriteBytes(body.Code)
	w.WriteVec(b.Bytes())
}

// encodeDataSegment writes flags 0 (active, memory 0), 1 (passive) or
// 2 (active, explicit memory).
func encodeDataSegment(w *binary.Writer, d DataSegment) {
	w.WriteU32(d.Flags)
	if d.Flags == 2 {
		w.WriteU32(d.MemIdx)
	}
	if d.Flags != 1 {
		w.WriteBytes(d.Offset)
	}
	w.WriteVec(d.Init)
}

// ConstI32Expr returns the init expression "i32.const v; end".
func ConstI32Expr(v int32) []byte {
	expr := []byte{OpI32Const}
	expr = AppendLEB128s(expr, v)
	return append(expr, OpEnd)
}
