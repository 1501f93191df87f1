package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	simplewasm "github.com/wippyai/simple-wasm"
	"github.com/wippyai/simple-wasm/engine"
	"github.com/wippyai/simple-wasm/wasm"
)

// checkEnv is what every check may look at.
type checkEnv struct {
	data   []byte
	parsed *wasm.Module
	mod    *engine.Module
	inst   *engine.Instance
}

type check struct {
	name string
	run  func(ctx context.Context, env *checkEnv) error
}

type checkResult struct {
	err  error
	name string
}

// checks lists the properties every build of the sample module must have.
var checks = []check{
	{"exactly one custom section named test", checkSectionStatic},
	{"test section visible to the runtime", checkSectionRuntime},
	{"exported signatures", checkSignatures},
	{"add(2, 3) = 5", callEquals(simplewasm.ExportAdd, 5, 2, 3)},
	{"add(2147483647, 1) = -2147483648", callEquals(simplewasm.ExportAdd, math.MinInt32, math.MaxInt32, 1)},
	{"mem_stuff(0) = 0", callEquals(simplewasm.ExportMemStuff, 0, 0)},
	{"mem_stuff(1) = 10", callEquals(simplewasm.ExportMemStuff, 10, 1)},
	{"mem_stuff(5) = 50", callEquals(simplewasm.ExportMemStuff, 50, 5)},
	{"add matches wrapping addition", checkAddSamples},
	{"mem_stuff matches 0 for arg <= 0 and 10*arg otherwise", checkMemStuffSamples},
	{"SECTION symbol, when exported, addresses the bytes", checkSectionSymbol},
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Verify a module against the sample's expected behavior",
		Long: `Verify a module against the sample's expected behavior.

The module may come from any toolchain that emits WebAssembly 1.0. Function
bodies are validated by the runtime. Sections from later proposals, such
as tags, are rejected.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := readModule(args[0])
			if err != nil {
				return err
			}
			eng, err := a.newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close(ctx)

			results, err := runChecks(ctx, eng, data)
			if err != nil {
				return err
			}
			failed := report(cmd.OutOrStdout(), results)
			a.log.Debug("checks finished", zap.Int("total", len(results)), zap.Int("failed", failed))
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
}

// runChecks loads data once and runs every check against it. It returns an
// error only when the module cannot be parsed or instantiated at all.
// Function bodies are validated by the runtime, so modules from other
// toolchains are accepted.
func runChecks(ctx context.Context, eng *engine.Engine, data []byte) ([]checkResult, error) {
	parsed, err := wasm.ParseModule(data)
	if err != nil {
		return nil, fmt.Errorf("module is not valid wasm: %w", err)
	}
	mod, err := eng.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	defer inst.Close(ctx)

	env := &checkEnv{data: data, parsed: parsed, mod: mod, inst: inst}
	results := make([]checkResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, checkResult{name: c.name, err: c.run(ctx, env)})
	}
	return results, nil
}

func report(w io.Writer, results []checkResult) int {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", r.name, r.err)
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", r.name)
	}
	return failed
}

func checkSectionStatic(_ context.Context, env *checkEnv) error {
	payload, err := wasm.CustomSectionPayload(env.data, simplewasm.SectionName)
	if err != nil {
		return err
	}
	return expectPayload(payload)
}

func checkSectionRuntime(_ context.Context, env *checkEnv) error {
	payload, err := env.mod.CustomSection(simplewasm.SectionName)
	if err != nil {
		return err
	}
	return expectPayload(payload)
}

func expectPayload(got []byte) error {
	if want := simplewasm.SectionPayload(); !bytes.Equal(got, want) {
		return fmt.Errorf("payload %q, want %q", got, want)
	}
	return nil
}

func checkSignatures(_ context.Context, env *checkEnv) error {
	want := map[string]string{
		simplewasm.ExportAdd:      "(i32, i32) -> i32",
		simplewasm.ExportMemStuff: "(i32) -> i32",
	}
	for name, sig := range want {
		exp, ok := env.parsed.ExportByName(name)
		if !ok || exp.Kind != wasm.KindFunc {
			return fmt.Errorf("function export %q missing", name)
		}
		ft := env.parsed.GetFuncType(exp.Idx)
		if ft == nil || ft.String() != sig {
			return fmt.Errorf("%s has type %v, want %s", name, ft, sig)
		}
	}
	return nil
}

func callEquals(name string, want int32, args ...int32) func(context.Context, *checkEnv) error {
	return func(ctx context.Context, env *checkEnv) error {
		got, err := env.inst.CallI32(ctx, name, args...)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("got %d, want %d", got, want)
		}
		return nil
	}
}

var i32Samples = []int32{math.MinInt32, -65536, -1, 0, 1, 2, 7, 255, 65535, math.MaxInt32}

func checkAddSamples(ctx context.Context, env *checkEnv) error {
	for _, a := range i32Samples {
		for _, b := range i32Samples {
			if err := callEquals(simplewasm.ExportAdd, simplewasm.Add(a, b), a, b)(ctx, env); err != nil {
				return fmt.Errorf("add(%d, %d): %w", a, b, err)
			}
		}
	}
	return nil
}

func checkMemStuffSamples(ctx context.Context, env *checkEnv) error {
	for _, arg := range []int32{math.MinInt32, -100, -1, 0, 1, 2, 3, 10, 1000, 65535} {
		want := int32(0)
		if arg > 0 {
			want = 10 * arg
		}
		if err := callEquals(simplewasm.ExportMemStuff, want, arg)(ctx, env); err != nil {
			return fmt.Errorf("mem_stuff(%d): %w", arg, err)
		}
	}
	return nil
}

func checkSectionSymbol(_ context.Context, env *checkEnv) error {
	if _, ok := env.parsed.ExportByName(simplewasm.SectionSymbol); !ok {
		return nil
	}
	got, err := env.inst.ReadExportedBytes(simplewasm.SectionSymbol, uint32(simplewasm.SectionLen))
	if err != nil {
		return err
	}
	return expectPayload(got)
}
