package wasm

import (
	"fmt"

	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/wasm/internal/binary"
)

// Instruction represents a decoded WebAssembly instruction
type Instruction struct {
	Imm    interface{}
	Opcode byte
}

// BlockImm holds the block type for block, loop, and if instructions.
type BlockImm struct {
	Type int32 // Block type: -64=void, -1=i32, -2=i64, -3=f32, -4=f64, >=0=type index
}

// BranchImm holds the label index for br and br_if instructions.
type BranchImm struct {
	LabelIdx uint32
}

// BrTableImm holds the label table for br_table instruction.
type BrTableImm struct {
	Labels  []uint32
	Default uint32
}

// CallImm holds the function index for call instruction.
type CallImm struct {
	FuncIdx uint32
}

// CallIndirectImm holds type and table indices for call_indirect instruction.
type CallIndirectImm struct {
	TypeIdx  uint32
	TableIdx uint32
}

// LocalImm holds the local index for local.get, local.set, local.tee.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm holds the global index for global.get and global.set.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm holds memory access parameters for load and store instructions.
// Align is the log2 of the alignment.
type MemoryImm struct {
	Offset uint32
	Align  uint32
}

// I32Imm holds the constant value for i32.const instruction.
type I32Imm struct {
	Value int32
}

// Constructors for the instructions the fixture emits most.

// Op returns an instruction without immediates.
func Op(opcode byte) Instruction { return Instruction{Opcode: opcode} }

// I32Const returns i32.const v.
func I32Const(v int32) Instruction { return Instruction{Opcode: OpI32Const, Imm: I32Imm{Value: v}} }

// LocalGet returns local.get idx.
func LocalGet(idx uint32) Instruction {
	return Instruction{Opcode: OpLocalGet, Imm: LocalImm{LocalIdx: idx}}
}

// LocalSet returns local.set idx.
func LocalSet(idx uint32) Instruction {
	return Instruction{Opcode: OpLocalSet, Imm: LocalImm{LocalIdx: idx}}
}

// LocalTee returns local.tee idx.
func LocalTee(idx uint32) Instruction {
	return Instruction{Opcode: OpLocalTee, Imm: LocalImm{LocalIdx: idx}}
}

// GlobalGet returns global.get idx.
func GlobalGet(idx uint32) Instruction {
	return Instruction{Opcode: OpGlobalGet, Imm: GlobalImm{GlobalIdx: idx}}
}

// Block returns a structured control instruction (block, loop or if).
func Block(opcode byte, blockType int32) Instruction {
	return Instruction{Opcode: opcode, Imm: BlockImm{Type: blockType}}
}

// Br returns br or br_if with the given label depth.
func Br(opcode byte, label uint32) Instruction {
	return Instruction{Opcode: opcode, Imm: BranchImm{LabelIdx: label}}
}

// Mem returns an i32 load or store with the given alignment exponent and offset.
func Mem(opcode byte, align, offset uint32) Instruction {
	return Instruction{Opcode: opcode, Imm: MemoryImm{Align: align, Offset: offset}}
}

// DecodeInstructions decodes a sequence of instructions from raw bytes
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := binary.NewReader(code)
	var instrs []Instruction
	for r.Len() > 0 {
		op, _ := r.ReadByte()
		instr := Instruction{Opcode: op}
		var err error

		switch {
		case op == OpBlock || op == OpLoop || op == OpIf:
			var bt int32
			bt, err = r.ReadS32()
			instr.Imm = BlockImm{Type: bt}

		case op == OpBr || op == OpBrIf:
			var l uint32
			l, err = r.ReadU32()
			instr.Imm = BranchImm{LabelIdx: l}

		case op == OpBrTable:
			instr.Imm, err = decodeBrTable(r)

		case op == OpCall:
			var idx uint32
			idx, err = r.ReadU32()
			instr.Imm = CallImm{FuncIdx: idx}

		case op == OpCallIndirect:
			var imm CallIndirectImm
			if imm.TypeIdx, err = r.ReadU32(); err == nil {
				imm.TableIdx, err = r.ReadU32()
			}
			instr.Imm = imm

		case op == OpLocalGet || op == OpLocalSet || op == OpLocalTee:
			var idx uint32
			idx, err = r.ReadU32()
			instr.Imm = LocalImm{LocalIdx: idx}

		case op == OpGlobalGet || op == OpGlobalSet:
			var idx uint32
			idx, err = r.ReadU32()
			instr.Imm = GlobalImm{GlobalIdx: idx}

		case isMemoryAccess(op):
			var imm MemoryImm
			if imm.Align, err = r.ReadU32(); err == nil {
				imm.Offset, err = r.ReadU32()
			}
			instr.Imm = imm

		case op == OpMemorySize || op == OpMemoryGrow:
			var reserved byte
			reserved, err = r.ReadByte()
			if err == nil && reserved != 0 {
				err = fmt.Errorf("%s: memory index must be 0, got %d", OpcodeName(op), reserved)
			}

		case op == OpI32Const:
			var v int32
			v, err = r.ReadS32()
			instr.Imm = I32Imm{Value: v}

		case isPlainOpcode(op):
			// no immediates

		default:
			return nil, werrors.New(werrors.PhaseDecode, werrors.KindUnsupported).
				Section("code").
				Value(op).
				Detail("opcode 0x%02x at offset %d", op, r.Position()-1).
				Build()
		}

		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", OpcodeName(op), err)
		}
		instrs = append(instrs, instr)
	}
	return instrs, nil
}

func decodeBrTable(r *binary.Reader) (BrTableImm, error) {
	n, err := readCount(r)
	if err != nil {
		return BrTableImm{}, err
	}
	imm := BrTableImm{Labels: make([]uint32, n)}
	for i := range imm.Labels {
		if imm.Labels[i], err = r.ReadU32(); err != nil {
			return BrTableImm{}, err
		}
	}
	imm.Default, err = r.ReadU32()
	return imm, err
}

func isMemoryAccess(op byte) bool {
	switch op {
	case OpI32Load, OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI32Store, OpI32Store8, OpI32Store16:
		return true
	}
	return false
}

func isPlainOpcode(op byte) bool {
	switch {
	case op == OpUnreachable, op == OpNop, op == OpElse, op == OpEnd, op == OpReturn,
		op == OpDrop, op == OpSelect:
		return true
	case op >= OpI32Eqz && op <= OpI32GeU:
		return true
	case op >= OpI32Clz && op <= OpI32Rotr:
		return true
	}
	return false
}

// EncodeInstructionTo appends the binary form of instr to dst.
func EncodeInstructionTo(dst []byte, instr *Instruction) []byte {
	dst = append(dst, instr.Opcode)

	switch imm := instr.Imm.(type) {
	case BlockImm:
		dst = binary.AppendS32(dst, imm.Type)
	case BranchImm:
		dst = binary.AppendU32(dst, imm.LabelIdx)
	case BrTableImm:
		dst = binary.AppendU32(dst, uint32(len(imm.Labels)))
		for _, l := range imm.Labels {
			dst = binary.AppendU32(dst, l)
		}
		dst = binary.AppendU32(dst, imm.Default)
	case CallImm:
		dst = binary.AppendU32(dst, imm.FuncIdx)
	case CallIndirectImm:
		dst = binary.AppendU32(dst, imm.TypeIdx)
		dst = binary.AppendU32(dst, imm.TableIdx)
	case LocalImm:
		dst = binary.AppendU32(dst, imm.LocalIdx)
	case GlobalImm:
		dst = binary.AppendU32(dst, imm.GlobalIdx)
	case MemoryImm:
		dst = binary.AppendU32(dst, imm.Align)
		dst = binary.AppendU32(dst, imm.Offset)
	case I32Imm:
		dst = binary.AppendS32(dst, imm.Value)
	case nil:
		if instr.Opcode == OpMemorySize || instr.Opcode == OpMemoryGrow {
			dst = append(dst, 0x00)
		}
	}
	return dst
}

// EncodeInstructions encodes instructions to bytes
func EncodeInstructions(instrs []Instruction) []byte {
	buf := make([]byte, 0, len(instrs)*3) // estimate 3 bytes per instruction
	for i := range instrs {
		buf = EncodeInstructionTo(buf, &instrs[i])
	}
	return buf
}

var opcodeNames = map[byte]string{
	OpUnreachable:  "unreachable",
	OpNop:          "nop",
	OpBlock:        "block",
	OpLoop:         "loop",
	OpIf:           "if",
	OpElse:         "else",
	OpEnd:          "end",
	OpBr:           "br",
	OpBrIf:         "br_if",
	OpBrTable:      "br_table",
	OpReturn:       "return",
	OpCall:         "call",
	OpCallIndirect: "call_indirect",
	OpDrop:         "drop",
	OpSelect:       "select",
	OpLocalGet:     "local.get",
	OpLocalSet:     "local.set",
	OpLocalTee:     "local.tee",
	OpGlobalGet:    "global.get",
	OpGlobalSet:    "global.set",
	OpI32Load:      "i32.load",
	OpI32Load8S:    "i32.load8_s",
	OpI32Load8U:    "i32.load8_u",
	OpI32Load16S:   "i32.load16_s",
	OpI32Load16U:   "i32.load16_u",
	OpI32Store:     "i32.store",
	OpI32Store8:    "i32.store8",
	OpI32Store16:   "i32.store16",
	OpMemorySize:   "memory.size",
	OpMemoryGrow:   "memory.grow",
	OpI32Const:     "i32.const",
	OpI32Eqz:       "i32.eqz",
	OpI32Eq:        "i32.eq",
	OpI32Ne:        "i32.ne",
	OpI32LtS:       "i32.lt_s",
	OpI32LtU:       "i32.lt_u",
	OpI32GtS:       "i32.gt_s",
	OpI32GtU:       "i32.gt_u",
	OpI32LeS:       "i32.le_s",
	OpI32LeU:       "i32.le_u",
	OpI32GeS:       "i32.ge_s",
	OpI32GeU:       "i32.ge_u",
	OpI32Clz:       "i32.clz",
	OpI32Ctz:       "i32.ctz",
	OpI32Popcnt:    "i32.popcnt",
	OpI32Add:       "i32.add",
	OpI32Sub:       "i32.sub",
	OpI32Mul:       "i32.mul",
	OpI32DivS:      "i32.div_s",
	OpI32DivU:      "i32.div_u",
	OpI32RemS:      "i32.rem_s",
	OpI32RemU:      "i32.rem_u",
	OpI32And:       "i32.and",
	OpI32Or:        "i32.or",
	OpI32Xor:       "i32.xor",
	OpI32Shl:       "i32.shl",
	OpI32ShrS:      "i32.shr_s",
	OpI32ShrU:      "i32.shr_u",
	OpI32Rotl:      "i32.rotl",
	OpI32Rotr:      "i32.rotr",
}

// OpcodeName returns the text-format mnemonic of an opcode.
func OpcodeName(op byte) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", op)
}

// String renders the instruction in text format, e.g. "local.get 0".
func (i Instruction) String() string {
	name := OpcodeName(i.Opcode)
	switch imm := i.Imm.(type) {
	case BlockImm:
		if imm.Type == BlockTypeVoid {
			return name
		}
		if imm.Type < 0 {
			return fmt.Sprintf("%s (result %s)", name, ValType(byte(imm.Type&0x7f)))
		}
		return fmt.Sprintf("%s (type %d)", name, imm.Type)
	case BranchImm:
		return fmt.Sprintf("%s %d", name, imm.LabelIdx)
	case BrTableImm:
		return fmt.Sprintf("%s %v %d", name, imm.Labels, imm.Default)
	case CallImm:
		return fmt.Sprintf("%s %d", name, imm.FuncIdx)
	case CallIndirectImm:
		return fmt.Sprintf("%s (type %d) %d", name, imm.TypeIdx, imm.TableIdx)
	case LocalImm:
		return fmt.Sprintf("%s %d", name, imm.LocalIdx)
	case GlobalImm:
		return fmt.Sprintf("%s %d", name, imm.GlobalIdx)
	case MemoryImm:
		return fmt.Sprintf("%s offset=%d align=%d", name, imm.Offset, uint32(1)<<imm.Align)
	case I32Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	}
	return name
}
