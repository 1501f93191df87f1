package fixture

import (
	"github.com/wippyai/simple-wasm/wasm"
)

// Increment added to the selected accumulator on every iteration.
const step int32 = 10

// Local indices of mem_stuff. Parameter 0 is arg.
const (
	localArg uint32 = 0

	// StrategyLocals
	localA uint32 = 1
	localB uint32 = 2
	localX uint32 = 3

	// StrategyMemory
	localMemX    uint32 = 1
	localMemSlot uint32 = 2
)

// addBody returns local.get 0 + local.get 1.
func addBody() wasm.FuncBody {
	return wasm.FuncBody{Code: wasm.EncodeInstructions([]wasm.Instruction{
		wasm.LocalGet(0),
		wasm.LocalGet(1),
		wasm.Op(wasm.OpI32Add),
		wasm.Op(wasm.OpEnd),
	})}
}

// loopWhileXBelowArg wraps body in
//
//	block
//	  loop
//	    br_if 1 (x >= arg)
//	    body
//	    x += 1
//	    br 0
//	  end
//	end
func loopWhileXBelowArg(x uint32, body []wasm.Instruction) []wasm.Instruction {
	out := []wasm.Instruction{
		wasm.Block(wasm.OpBlock, wasm.BlockTypeVoid),
		wasm.Block(wasm.OpLoop, wasm.BlockTypeVoid),
		wasm.LocalGet(x),
		wasm.LocalGet(localArg),
		wasm.Op(wasm.OpI32GeS),
		wasm.Br(wasm.OpBrIf, 1),
	}
	out = append(out, body...)
	return append(out,
		wasm.LocalGet(x),
		wasm.I32Const(1),
		wasm.Op(wasm.OpI32Add),
		wasm.LocalSet(x),
		wasm.Br(wasm.OpBr, 0),
		wasm.Op(wasm.OpEnd),
		wasm.Op(wasm.OpEnd),
	)
}

func bump(local uint32) []wasm.Instruction {
	return []wasm.Instruction{
		wasm.LocalGet(local),
		wasm.I32Const(step),
		wasm.Op(wasm.OpI32Add),
		wasm.LocalSet(local),
	}
}

// memStuffLocalsBody keeps a, b and x in locals. Locals start at zero.
func memStuffLocalsBody() wasm.FuncBody {
	var body []wasm.Instruction
	body = append(body,
		wasm.LocalGet(localX),
		wasm.Op(wasm.OpI32Eqz),
		wasm.Block(wasm.OpIf, wasm.BlockTypeVoid),
	)
	body = append(body, bump(localA)...)
	body = append(body, wasm.Op(wasm.OpElse))
	body = append(body, bump(localB)...)
	body = append(body, wasm.Op(wasm.OpEnd))

	code := loopWhileXBelowArg(localX, body)
	code = append(code,
		wasm.LocalGet(localA),
		wasm.LocalGet(localB),
		wasm.Op(wasm.OpI32Add),
		wasm.Op(wasm.OpEnd),
	)
	return wasm.FuncBody{
		Locals: []wasm.LocalEntry{{Count: 3, ValType: wasm.ValI32}},
		Code:   wasm.EncodeInstructions(code),
	}
}

// memStuffMemoryBody keeps a and b in two i32 slots at accumulatorBase.
// Each iteration selects slot 4*(x != 0), so the first pass feeds a and
// every later pass feeds b. Both slots are cleared on entry.
func memStuffMemoryBody() wasm.FuncBody {
	base := accumulatorBase
	var code []wasm.Instruction
	for _, off := range []uint32{base, base + 4} {
		code = append(code,
			wasm.I32Const(0),
			wasm.I32Const(0),
			wasm.Mem(wasm.OpI32Store, 2, off),
		)
	}

	body := []wasm.Instruction{
		// slot = (x != 0) << 2
		wasm.LocalGet(localMemX),
		wasm.I32Const(0),
		wasm.Op(wasm.OpI32Ne),
		wasm.I32Const(2),
		wasm.Op(wasm.OpI32Shl),
		wasm.LocalTee(localMemSlot),
		// mem[base+slot] = mem[base+slot] + step
		wasm.LocalGet(localMemSlot),
		wasm.Mem(wasm.OpI32Load, 2, base),
		wasm.I32Const(step),
		wasm.Op(wasm.OpI32Add),
		wasm.Mem(wasm.OpI32Store, 2, base),
	}
	code = append(code, loopWhileXBelowArg(localMemX, body)...)
	code = append(code,
		wasm.I32Const(0),
		wasm.Mem(wasm.OpI32Load, 2, base),
		wasm.I32Const(0),
		wasm.Mem(wasm.OpI32Load, 2, base+4),
		wasm.Op(wasm.OpI32Add),
		wasm.Op(wasm.OpEnd),
	)
	return wasm.FuncBody{
		Locals: []wasm.LocalEntry{{Count: 2, ValType: wasm.ValI32}},
		Code:   wasm.EncodeInstructions(code),
	}
}

// memStuffLocalNames names mem_stuff's parameter and locals.
func memStuffLocalNames(s Strategy) map[uint32]string {
	if s == StrategyMemory {
		return map[uint32]string{localArg: "arg", localMemX: "x", localMemSlot: "slot"}
	}
	return map[uint32]string{localArg: "arg", localA: "a", localB: "b", localX: "x"}
}
