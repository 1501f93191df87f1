package engine

import (
	"bytes"
	"context"
	"fmt"
	"reflect"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	werrors "github.com/wippyai/simple-wasm/errors"
)

// Instance is an instantiated module.
type Instance struct {
	instance api.Module
	log      *zap.Logger
}

// Name returns the unique module name this instance was registered under.
func (i *Instance) Name() string {
	if i.instance == nil {
		return ""
	}
	return i.instance.Name()
}

func (i *Instance) function(name string) (api.Function, error) {
	if i.instance == nil {
		return nil, werrors.NotInitialized(werrors.PhaseRuntime, "instance")
	}
	fn := i.instance.ExportedFunction(name)
	if fn == nil {
		return nil, werrors.NotFound(werrors.PhaseRuntime, "export", name)
	}
	return fn, nil
}

// Call invokes an export with raw stack values.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn, err := i.function(name)
	if err != nil {
		return nil, err
	}
	if want := len(fn.Definition().ParamTypes()); want != len(args) {
		return nil, werrors.Arity(werrors.PhaseRuntime, name, want, len(args))
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, werrors.Trap(name, err)
	}
	return results, nil
}

// CallI32 invokes an export whose parameters and single result are all i32.
func (i *Instance) CallI32(ctx context.Context, name string, args ...int32) (int32, error) {
	fn, err := i.function(name)
	if err != nil {
		return 0, err
	}
	def := fn.Definition()
	if err := checkI32Signature(name, def.ParamTypes(), def.ResultTypes()); err != nil {
		return 0, err
	}
	if want := len(def.ParamTypes()); want != len(args) {
		return 0, werrors.Arity(werrors.PhaseRuntime, name, want, len(args))
	}

	raw := make([]uint64, len(args))
	for j, a := range args {
		raw[j] = api.EncodeI32(a)
	}
	results, err := fn.Call(ctx, raw...)
	if err != nil {
		return 0, werrors.Trap(name, err)
	}
	out := api.DecodeI32(results[0])
	i.log.Debug("call", zap.String("export", name), zap.Int32s("args", args), zap.Int32("result", out))
	return out, nil
}

func checkI32Signature(name string, params, results []api.ValueType) error {
	for _, p := range params {
		if p != api.ValueTypeI32 {
			return werrors.TypeMismatch(werrors.PhaseRuntime, name, "i32 params", signature(params, results))
		}
	}
	if len(results) != 1 || results[0] != api.ValueTypeI32 {
		return werrors.TypeMismatch(werrors.PhaseRuntime, name, "one i32 result", signature(params, results))
	}
	return nil
}

func signature(params, results []api.ValueType) string {
	return fmt.Sprintf("%s -> %s", typeList(params), typeList(results))
}

func typeList(types []api.ValueType) string {
	s := "("
	for j, t := range types {
		if j > 0 {
			s += ", "
		}
		s += api.ValueTypeName(t)
	}
	return s + ")"
}

// ReadExportedBytes reads n bytes of linear memory at the address held by
// the exported i32 global symbol. The result is a copy.
func (i *Instance) ReadExportedBytes(symbol string, n uint32) ([]byte, error) {
	if i.instance == nil {
		return nil, werrors.NotInitialized(werrors.PhaseRuntime, "instance")
	}
	g := i.instance.ExportedGlobal(symbol)
	if g == nil {
		return nil, werrors.NotFound(werrors.PhaseRuntime, "global", symbol)
	}
	if g.Type() != api.ValueTypeI32 {
		return nil, werrors.New(werrors.PhaseRuntime, werrors.KindTypeMismatch).
			Export(symbol).
			Types("i32", api.ValueTypeName(g.Type())).
			Build()
	}
	mem := i.memory()
	if mem == nil {
		return nil, werrors.NotFound(werrors.PhaseRuntime, "memory", "0")
	}
	addr := api.DecodeU32(g.Get())
	data, ok := mem.Read(addr, n)
	if !ok {
		return nil, werrors.New(werrors.PhaseRuntime, werrors.KindOutOfBounds).
			Export(symbol).
			Value(addr).
			Detail("read of %d bytes at %d exceeds memory size %d", n, addr, mem.Size()).
			Build()
	}
	return bytes.Clone(data), nil
}

// MemorySize returns the current linear memory size in bytes, or 0 if no memory.
func (i *Instance) MemorySize() uint32 {
	if i.instance == nil {
		return 0
	}
	if mem := i.memory(); mem != nil {
		return mem.Size()
	}
	return 0
}

// memory returns memory 0, or nil when the module has none. wazero hands
// back a typed nil in that case, exported or not.
func (i *Instance) memory() api.Memory {
	mem := i.instance.Memory()
	if mem == nil || reflect.ValueOf(mem).IsNil() {
		return nil
	}
	return mem
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	if i.instance == nil {
		return nil
	}
	err := i.instance.Close(ctx)
	i.instance = nil
	return err
}
