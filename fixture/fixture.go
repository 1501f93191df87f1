package fixture

import (
	"fmt"

	"go.uber.org/zap"

	simplewasm "github.com/wippyai/simple-wasm"
	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/wasm"
)

// ModuleName is recorded in the "name" custom section.
const ModuleName = "simple"

// MemoryExport is the export name of the linear memory under PlacementData.
const MemoryExport = "memory"

// Function indices. The module has no imports, so these are also the
// indices in the function index space.
const (
	funcAdd      uint32 = 0
	funcMemStuff uint32 = 1
)

var (
	addType = wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
	memStuffType = wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
)

// Build assembles the sample module for opts.
func Build(opts Options) (*wasm.Module, error) {
	payload := simplewasm.SectionPayload()
	if err := opts.validate(len(payload)); err != nil {
		return nil, err
	}
	log := opts.logger().With(
		zap.Stringer("strategy", opts.Strategy),
		zap.Stringer("placement", opts.Placement),
	)

	m := &wasm.Module{}
	m.Funcs = []uint32{m.AddType(addType), m.AddType(memStuffType)}

	switch opts.Strategy {
	case StrategyMemory:
		m.Code = []wasm.FuncBody{addBody(), memStuffMemoryBody()}
	default:
		m.Code = []wasm.FuncBody{addBody(), memStuffLocalsBody()}
	}

	m.Exports = []wasm.Export{
		{Name: simplewasm.ExportAdd, Kind: wasm.KindFunc, Idx: funcAdd},
		{Name: simplewasm.ExportMemStuff, Kind: wasm.KindFunc, Idx: funcMemStuff},
	}

	if opts.needsMemory() {
		m.Memories = []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}}
	}

	if opts.Placement == PlacementData {
		base := opts.sectionBase()
		m.Data = []wasm.DataSegment{{
			Offset: wasm.ConstI32Expr(int32(base)),
			Init:   payload,
		}}
		m.Globals = []wasm.Global{{
			Type: wasm.GlobalType{ValType: wasm.ValI32},
			Init: wasm.ConstI32Expr(int32(base)),
		}}
		m.Exports = append(m.Exports,
			wasm.Export{Name: MemoryExport, Kind: wasm.KindMemory, Idx: 0},
			wasm.Export{Name: simplewasm.SectionSymbol, Kind: wasm.KindGlobal, Idx: 0},
		)
		log.Debug("placed section bytes in memory", zap.Uint32("address", base), zap.Int("len", len(payload)))
	}

	m.CustomSections = append(m.CustomSections, wasm.CustomSection{
		Name: simplewasm.SectionName,
		Data: simplewasm.SectionPayload(),
	})

	if opts.Names {
		names := &wasm.NameSection{
			Module: ModuleName,
			Funcs: map[uint32]string{
				funcAdd:      simplewasm.ExportAdd,
				funcMemStuff: simplewasm.ExportMemStuff,
			},
			Locals: map[uint32]map[uint32]string{
				funcAdd:      {0: "a", 1: "b"},
				funcMemStuff: memStuffLocalNames(opts.Strategy),
			},
		}
		m.CustomSections = append(m.CustomSections, wasm.CustomSection{
			Name: wasm.NameSectionName,
			Data: names.Encode(),
		})
	}

	log.Debug("built module",
		zap.Int("types", len(m.Types)),
		zap.Int("exports", len(m.Exports)),
		zap.Int("custom_sections", len(m.CustomSections)),
	)
	return m, nil
}

// Encode builds, validates and encodes the sample module.
func Encode(opts Options) ([]byte, error) {
	m, err := Build(opts)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validate sample module: %w", err)
	}
	data := m.Encode()

	// The encoder writes custom sections verbatim, so a second "test"
	// section can only come from a bug in Build.
	headers, err := wasm.ScanSections(data)
	if err != nil {
		return nil, werrors.Wrap(werrors.PhaseEncode, werrors.KindInvalidData, err, "rescan encoded module")
	}
	if n := countCustom(headers, simplewasm.SectionName); n != 1 {
		return nil, werrors.New(werrors.PhaseEncode, werrors.KindDuplicate).
			Section(simplewasm.SectionName).
			Detail("want exactly one section, got %d", n).
			Build()
	}

	opts.logger().Info("encoded module",
		zap.Stringer("strategy", opts.Strategy),
		zap.Stringer("placement", opts.Placement),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func countCustom(headers []wasm.SectionHeader, name string) int {
	n := 0
	for _, h := range headers {
		if h.ID == wasm.SectionCustom && h.Name == name {
			n++
		}
	}
	return n
}
