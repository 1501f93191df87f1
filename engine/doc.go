// Package engine runs core WebAssembly modules on wazero.
//
// # Architecture
//
// The engine package provides three main types:
//
//	Engine   - Owns a wazero runtime configured to keep custom sections
//	Module   - A compiled module; lists exports and custom sections
//	Instance - An instantiated module with typed and raw export calls
//
// # Instantiation Flow
//
//  1. New() creates the runtime
//  2. Engine.Load() compiles the binary into a Module
//  3. Module.Instantiate() creates an Instance under a unique module name
//  4. Instance.CallI32() or Instance.Call() invokes exports
//
// # Value Types
//
// Core value types are reported with their WIT equivalents:
//
//	Core  WIT
//	────────────
//	i32   s32
//	i64   s64
//	f32   f32
//	f64   f64
//
// # Thread Safety
//
// Engine and Module are safe for concurrent use.
// Instance is NOT thread-safe and should be used by a single goroutine.
package engine
