// Package errors provides structured error types for simple-wasm.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries context: the section or export involved, a field path,
// the expected and actual wasm types, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
//		Export("mem_stuff").
//		Types("i32", "i64").
//		Detail("param 0").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseLoad, "export", "add")
//	err := errors.OutOfBounds(errors.PhaseValidate, path, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
