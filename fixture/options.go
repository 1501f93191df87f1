package fixture

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/wasm"
)

// Strategy selects how mem_stuff stores its accumulators.
type Strategy int

const (
	StrategyLocals Strategy = iota
	StrategyMemory
)

func (s Strategy) String() string {
	switch s {
	case StrategyLocals:
		return "locals"
	case StrategyMemory:
		return "memory"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "locals" or "memory", case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "locals":
		return StrategyLocals, nil
	case "memory":
		return StrategyMemory, nil
	}
	return 0, werrors.InvalidInput(werrors.PhaseConfig, fmt.Sprintf("unknown strategy %q (want locals or memory)", s))
}

// Placement selects where the section bytes are stored.
type Placement int

const (
	PlacementCustom Placement = iota
	PlacementData
)

func (p Placement) String() string {
	switch p {
	case PlacementCustom:
		return "custom"
	case PlacementData:
		return "data"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// ParsePlacement accepts "custom" or "data", case-insensitively.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "custom":
		return PlacementCustom, nil
	case "data":
		return PlacementData, nil
	}
	return 0, werrors.InvalidInput(werrors.PhaseConfig, fmt.Sprintf("unknown placement %q (want custom or data)", s))
}

// DefaultSectionBase is the linear memory address of the section bytes
// under PlacementData.
const DefaultSectionBase uint32 = 1024

// accumulatorBase is the address of the first mem_stuff slot under
// StrategyMemory. The second slot follows at accumulatorBase+4.
const accumulatorBase uint32 = 16

// Options controls how the module is assembled.
type Options struct {
	// Logger receives build diagnostics. Nil means no logging.
	Logger *zap.Logger

	Strategy  Strategy
	Placement Placement

	// Names adds a "name" custom section with function and local names.
	Names bool

	// SectionBase is the data segment address under PlacementData.
	// Zero selects DefaultSectionBase.
	SectionBase uint32
}

// DefaultOptions returns the locals strategy, custom placement and names.
func DefaultOptions() Options {
	return Options{
		Strategy:    StrategyLocals,
		Placement:   PlacementCustom,
		Names:       true,
		SectionBase: DefaultSectionBase,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) sectionBase() uint32 {
	if o.SectionBase == 0 {
		return DefaultSectionBase
	}
	return o.SectionBase
}

func (o Options) needsMemory() bool {
	return o.Strategy == StrategyMemory || o.Placement == PlacementData
}

func (o Options) validate(sectionLen int) error {
	switch o.Strategy {
	case StrategyLocals, StrategyMemory:
	default:
		return werrors.InvalidInput(werrors.PhaseBuild, "unknown "+o.Strategy.String())
	}
	switch o.Placement {
	case PlacementCustom, PlacementData:
	default:
		return werrors.InvalidInput(werrors.PhaseBuild, "unknown "+o.Placement.String())
	}
	if o.Placement != PlacementData {
		return nil
	}

	base := uint64(o.sectionBase())
	end := base + uint64(sectionLen)
	if end > uint64(wasm.PageSize) {
		return werrors.OutOfBounds(werrors.PhaseBuild, []string{"section_base"}, int(end), int(wasm.PageSize))
	}
	if o.Strategy == StrategyMemory {
		slotsEnd := uint64(accumulatorBase) + 8
		if base < slotsEnd && uint64(accumulatorBase) < end {
			return werrors.New(werrors.PhaseBuild, werrors.KindInvalidInput).
				Path("section_base").
				Value(base).
				Detail("section bytes overlap the accumulator slots at %d..%d", accumulatorBase, slotsEnd).
				Build()
		}
	}
	return nil
}
