package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseRuntime,
				Kind:     KindTypeMismatch,
				Export:   "mem_stuff",
				Path:     []string{"params", "0"},
				Expected: "i32",
				Actual:   "i64",
				Detail:   "cannot call",
			},
			contains: []string{"[runtime]", "type_mismatch", "export mem_stuff", "params.0", "expected i32", "got i64", "cannot call"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "section and cause",
			err: &Error{
				Phase:   PhaseDecode,
				Kind:    KindInvalidData,
				Section: "code",
				Detail:  "body overruns section",
				Cause:   errors.New("underlying error"),
			},
			contains: []string{"[decode]", "in section code", "body overruns section", "caused by", "underlying error"},
		},
		{
			name: "only actual type",
			err: &Error{
				Phase:  PhaseValidate,
				Kind:   KindTypeMismatch,
				Actual: "f32",
			},
			contains: []string{"expected ?", "got f32"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotFound,
		Export: "add",
	}

	if !err.Is(&Error{Phase: PhaseLoad, Kind: KindNotFound}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseRuntime, Kind: KindNotFound}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseLoad, Kind: KindArity}) {
		t.Error("Is should not match different kind")
	}

	var target *Error
	if !errors.As(error(err), &target) || target.Export != "add" {
		t.Error("errors.As should extract *Error")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRuntime, KindTypeMismatch).
		Path("results", "0").
		Section("code").
		Export("add").
		Types("i32", "f64").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "i32", "f64").
		Build()

	if err.Phase != PhaseRuntime || err.Kind != KindTypeMismatch {
		t.Errorf("Phase/Kind = %v/%v", err.Phase, err.Kind)
	}
	if len(err.Path) != 2 || err.Path[0] != "results" {
		t.Errorf("Path = %v, want [results 0]", err.Path)
	}
	if err.Section != "code" || err.Export != "add" {
		t.Errorf("Section=%q Export=%q", err.Section, err.Export)
	}
	if err.Expected != "i32" || err.Actual != "f64" {
		t.Errorf("Expected=%q Actual=%q", err.Expected, err.Actual)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected i32, got f64" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
		text string
	}{
		{"TypeMismatch", TypeMismatch(PhaseRuntime, "add", "i32", "i64"), KindTypeMismatch, "expected i32"},
		{"Arity", Arity(PhaseRuntime, "add", 2, 1), KindArity, "want 2 argument(s), got 1"},
		{"Unsupported", Unsupported(PhaseDecode, "opcode 0xfd"), KindUnsupported, "opcode 0xfd"},
		{"OutOfBounds", OutOfBounds(PhaseValidate, []string{"exports", "0"}, 10, 5), KindOutOfBounds, "index 10 out of bounds (length 5)"},
		{"Overflow", Overflow(PhaseConfig, []string{"memory_limit_pages"}, 70000, "65536 pages"), KindOverflow, "overflows 65536 pages"},
		{"Duplicate", Duplicate(PhaseValidate, "export", "add"), KindDuplicate, `duplicate export "add"`},
		{"InvalidData", InvalidData(PhaseDecode, "type", "bad form"), KindInvalidData, "in section type"},
		{"Wrap", Wrap(PhaseEncode, KindInvalidData, errors.New("x"), "encode"), KindInvalidData, "caused by: x"},
		{"NotInitialized", NotInitialized(PhaseRuntime, "instance"), KindNotInitialized, "instance not initialized"},
		{"NotFound", NotFound(PhaseLoad, "export", "nope"), KindNotFound, `export "nope" not found`},
		{"InvalidInput", InvalidInput(PhaseConfig, "bad strategy"), KindInvalidInput, "bad strategy"},
		{"Instantiation", Instantiation(errors.New("boom")), KindInstantiation, "instantiate module"},
		{"Trap", Trap("mem_stuff", errors.New("unreachable")), KindTrap, "export mem_stuff"},
		{"Load", Load("compile", errors.New("bad magic")), KindInvalidData, "[load]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.text) {
				t.Errorf("error %q does not contain %q", tt.err.Error(), tt.text)
			}
		})
	}
}
