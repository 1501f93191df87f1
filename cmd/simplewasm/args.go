package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cast"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	werrors "github.com/wippyai/simple-wasm/errors"
)

// parseI32 accepts the signed or unsigned 32-bit range. Values above
// MaxInt32 wrap to negative numbers, so 0xffffffff is -1.
func parseI32(s string) (int32, error) {
	v, err := cast.ToInt64E(s)
	if err != nil {
		return 0, invalidArg(s, err)
	}
	if v < math.MinInt32 || v > math.MaxUint32 {
		return 0, werrors.Overflow(werrors.PhaseConfig, nil, v, "i32")
	}
	return int32(uint32(v)), nil
}

func invalidArg(s string, err error) error {
	return werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).
		Value(s).
		Cause(err).
		Build()
}

// convertArg parses s as a value of the WIT primitive t and encodes it as
// a raw stack value.
func convertArg(s string, t wit.Type) (uint64, error) {
	switch t.(type) {
	case wit.S32:
		v, err := parseI32(s)
		if err != nil {
			return 0, err
		}
		return api.EncodeI32(v), nil
	case wit.S64:
		v, err := cast.ToInt64E(s)
		if err != nil {
			return 0, invalidArg(s, err)
		}
		return api.EncodeI64(v), nil
	case wit.F32:
		v, err := cast.ToFloat32E(s)
		if err != nil {
			return 0, invalidArg(s, err)
		}
		return api.EncodeF32(v), nil
	case wit.F64:
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return 0, invalidArg(s, err)
		}
		return api.EncodeF64(v), nil
	default:
		return 0, werrors.Unsupported(werrors.PhaseConfig, fmt.Sprintf("parameter type %T", t))
	}
}

// formatResults renders raw results, decoding the first one as resultType.
func formatResults(results []uint64, resultType wit.Type) string {
	if len(results) == 0 {
		return "(no result)"
	}
	s := formatValue(results[0], resultType)
	for _, r := range results[1:] {
		s += ", " + strconv.FormatUint(r, 10)
	}
	return s
}

func formatValue(raw uint64, t wit.Type) string {
	switch t.(type) {
	case wit.S32:
		return strconv.FormatInt(int64(api.DecodeI32(raw)), 10)
	case wit.S64:
		return strconv.FormatInt(int64(raw), 10)
	case wit.F32:
		return strconv.FormatFloat(float64(api.DecodeF32(raw)), 'g', -1, 32)
	case wit.F64:
		return strconv.FormatFloat(api.DecodeF64(raw), 'g', -1, 64)
	default:
		return strconv.FormatUint(raw, 10)
	}
}
