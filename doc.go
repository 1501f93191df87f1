// Package simplewasm builds and checks a small WebAssembly sample module
// meant as input for wasm-to-JVM translation tests.
//
// The module exports two functions and carries one named data blob:
//
//	add        (i32, i32) -> i32   wrapping addition
//	mem_stuff  (i32) -> i32        loop over two selected accumulators
//	SECTION    13 bytes "Test section!" in a custom section named "test"
//
// The root package holds the reference semantics of those artifacts. The
// binary itself is produced by the fixture package and can be executed with
// the engine package.
//
// # Architecture Overview
//
//	simplewasm/          Reference semantics (Add, MemStuff, SectionPayload)
//	├── wasm/            Core WASM binary encoding, decoding and validation
//	├── fixture/         Builds the sample module from wasm primitives
//	├── engine/          wazero integration for loading and calling exports
//	├── inspect/         Module reports (sections, exports, custom sections)
//	├── errors/          Structured error types
//	└── cmd/simplewasm/  CLI: build, inspect, call, check, run
//
// # Quick Start
//
// Build the module and call an export:
//
//	data, err := fixture.Encode(fixture.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, _ := engine.New(ctx, nil)
//	defer eng.Close(ctx)
//
//	mod, _ := eng.Load(ctx, data)
//	inst, _ := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	sum, _ := inst.CallI32(ctx, "add", 2, 3) // 5
package simplewasm
