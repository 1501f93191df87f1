package engine

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	werrors "github.com/wippyai/simple-wasm/errors"
)

// Engine owns a wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	log     *zap.Logger
	seq     atomic.Uint64
	closed  atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// Logger receives engine diagnostics. Nil falls back to Logger().
	Logger *zap.Logger

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// New creates an engine. A nil cfg uses defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCustomSections(true)

	log := Logger()
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			if cfg.MemoryLimitPages > 65536 {
				return nil, werrors.Overflow(werrors.PhaseConfig, []string{"memory_limit_pages"}, cfg.MemoryLimitPages, "65536 pages")
			}
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			log = cfg.Logger
		}
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		log:     log,
	}, nil
}

// Load compiles a module binary.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Module, error) {
	if e.closed.Load() {
		return nil, werrors.NotInitialized(werrors.PhaseLoad, "engine")
	}
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, werrors.Load("compile failed", err)
	}

	m := &Module{engine: e, compiled: compiled}
	e.log.Debug("compiled module",
		zap.String("name", compiled.Name()),
		zap.Int("bytes", len(wasmBytes)),
		zap.Int("exports", len(compiled.ExportedFunctions())),
		zap.Int("custom_sections", len(compiled.CustomSections())),
	)
	return m, nil
}

// Close releases the runtime and every module compiled or instantiated
// through it.
func (e *Engine) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.runtime.Close(ctx)
}

// nextName returns a module name unique within this engine.
func (e *Engine) nextName(base string) string {
	if base == "" {
		base = "module"
	}
	return base + "-" + strconv.FormatUint(e.seq.Add(1), 10)
}
