// Package wasm provides WebAssembly core module encoding, parsing and
// validation.
//
// The package covers the WebAssembly 1.0 binary format as needed to build,
// verify and inspect small hand-assembled modules: types, imports,
// functions, tables, memories, globals, exports, start, code, data, and
// custom sections. The element section is kept as opaque bytes. Sections
// from post-1.0 proposals are rejected, and Validate only accepts function
// bodies made of control, variable and i32 instructions.
//
// # Encoding
//
//	m := &wasm.Module{}
//	typeIdx := m.AddType(wasm.FuncType{
//	    Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
//	    Results: []wasm.ValType{wasm.ValI32},
//	})
//	m.Funcs = append(m.Funcs, typeIdx)
//	m.Code = append(m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions([]wasm.Instruction{
//	    wasm.LocalGet(0), wasm.LocalGet(1), wasm.Op(wasm.OpI32Add), wasm.Op(wasm.OpEnd),
//	})})
//	m.Exports = append(m.Exports, wasm.Export{Name: "add", Kind: wasm.KindFunc, Idx: 0})
//	data := m.Encode()
//
// # Parsing
//
//	module, err := wasm.ParseModuleValidate(data)
//
// Section headers can be listed without decoding bodies, which is how a
// consumer locates a named custom section:
//
//	headers, err := wasm.ScanSections(data)
//	payload, err := wasm.CustomSectionPayload(data, "test")
//
// # LEB128 Encoding
//
//	n, size, err := wasm.ReadLEB128u(data)
//	buf = wasm.AppendLEB128s(buf, -1)
package wasm
