// Package fixture assembles the sample module from wasm primitives.
//
// The module has no imports and no start function. It always exports
// "add" (i32, i32) -> i32 and "mem_stuff" (i32) -> i32, and it always
// carries exactly one custom section named "test" whose payload is
// "Test section!".
//
// Two build-time choices change how the artifacts are realized:
//
//	Strategy   locals  mem_stuff keeps its accumulators in two i32 locals
//	           memory  the accumulators live in two adjacent i32 slots of a
//	                   one-page linear memory, selected by 4*(x != 0)
//	Placement  custom  the bytes exist only as the "test" custom section
//	           data    the bytes are also written by an active data segment,
//	                   addressed by the exported immutable global "SECTION",
//	                   and the memory is exported as "memory"
//
// Build returns the module structure, Encode returns validated bytes:
//
//	data, err := fixture.Encode(fixture.DefaultOptions())
package fixture
