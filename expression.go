package wasmforge

import (
	"fmt"

	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
	"github.com/wasmforge/wasmforge/internal/wasm/binary"
)

// Expression accumulates the instructions of a function body or a constant
// initializer. It is a single-writer, single-owner object: build it with
// its instruction methods, then hand it to Finalize (directly, or
// implicitly via the Module insertion method that consumes it).
//
// Once Finalize has run, an Expression must not be used again; every
// instruction method and Finalize called afterwards returns ErrStructure.
type Expression struct {
	buf    []byte
	depth  uint32
	final  bool
	ifOpen []bool // parallel to the block/loop/if nesting; true at positions opened by `if`

	// resultType and hasResultType track the value type of the most
	// recently emitted constant (i32/i64/f32/f64.const) or reference
	// (ref.null, ref.func) instruction, so a constant
	// initializer's type can be checked against a global's or element's
	// declared type without decoding the finalized bytes.
	resultType    wasm.ValueType
	hasResultType bool
}

// NewExpression returns an empty Expression ready to accumulate
// instructions.
func NewExpression() *Expression {
	return &Expression{}
}

func (e *Expression) fail(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrStructure}, args...)...)
}

func (e *Expression) checkOpen() error {
	if e.final {
		return e.fail("emit after finalize")
	}
	return nil
}

// Len returns the number of bytes accumulated so far, including any
// terminating `end` if Finalize has already run.
func (e *Expression) Len() int { return len(e.buf) }

// ResultType reports the value type of the most recently emitted constant
// or reference instruction, when known. Initializer expressions are
// restricted by the Wasm spec to a single constant-producing instruction, so
// this is enough to type-check a global's or element's initializer without
// decoding the finalized bytes. It reports false for global.get, since the
// type of the referenced global is not visible to the builder.
func (e *Expression) ResultType() (wasm.ValueType, bool) { return e.resultType, e.hasResultType }

func (e *Expression) setResultType(v wasm.ValueType) {
	e.resultType, e.hasResultType = v, true
}

// --- Control instructions ---

func (e *Expression) Unreachable() error { return e.emit0(wasm.OpcodeUnreachable) }
func (e *Expression) Nop() error         { return e.emit0(wasm.OpcodeNop) }

// Block starts a block with the given block-type encoding. bt should be
// produced by the caller via the binary package's block-type rules; most
// callers pass BlockTypeEmpty or a single value-type byte.
func (e *Expression) Block(bt []byte) error { return e.emitOpen(wasm.OpcodeBlock, bt) }

func (e *Expression) Loop(bt []byte) error { return e.emitOpen(wasm.OpcodeLoop, bt) }

func (e *Expression) If(bt []byte) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeIf))
	e.buf = append(e.buf, bt...)
	e.depth++
	e.ifOpen = append(e.ifOpen, true)
	return nil
}

func (e *Expression) emitOpen(op wasm.Opcode, bt []byte) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(op))
	e.buf = append(e.buf, bt...)
	e.depth++
	e.ifOpen = append(e.ifOpen, false)
	return nil
}

// Else closes the `then` arm of the innermost `if` and opens the `else`
// arm. It is only legal directly inside an open if at positive depth.
func (e *Expression) Else() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.depth == 0 || !e.ifOpen[len(e.ifOpen)-1] {
		return e.fail("else outside an open if")
	}
	e.buf = append(e.buf, byte(wasm.OpcodeElse))
	return nil
}

// End closes the innermost open block, loop, or if.
func (e *Expression) End() error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.depth == 0 {
		return e.fail("end without a matching opener")
	}
	e.buf = append(e.buf, byte(wasm.OpcodeEnd))
	e.depth--
	e.ifOpen = e.ifOpen[:len(e.ifOpen)-1]
	return nil
}

func (e *Expression) Br(label wasm.Index) error { return e.emitLabel(wasm.OpcodeBr, label) }

func (e *Expression) BrIf(label wasm.Index) error { return e.emitLabel(wasm.OpcodeBrIf, label) }

func (e *Expression) emitLabel(op wasm.Opcode, label wasm.Index) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if label > e.depth {
		return e.fail("branch target %d exceeds current depth %d", label, e.depth)
	}
	e.buf = append(e.buf, byte(op))
	e.buf = leb128.AppendUint32(e.buf, label)
	return nil
}

// BrTable emits br_table with the given label vector and default label.
func (e *Expression) BrTable(labels []wasm.Index, defaultLabel wasm.Index) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	for _, l := range labels {
		if l > e.depth {
			return e.fail("branch target %d exceeds current depth %d", l, e.depth)
		}
	}
	if defaultLabel > e.depth {
		return e.fail("branch target %d exceeds current depth %d", defaultLabel, e.depth)
	}
	e.buf = append(e.buf, byte(wasm.OpcodeBrTable))
	e.buf = leb128.AppendUint32(e.buf, uint32(len(labels)))
	for _, l := range labels {
		e.buf = leb128.AppendUint32(e.buf, l)
	}
	e.buf = leb128.AppendUint32(e.buf, defaultLabel)
	return nil
}

func (e *Expression) Return() error { return e.emit0(wasm.OpcodeReturn) }

func (e *Expression) Call(funcIndex wasm.Index) error {
	return e.emitIndex(wasm.OpcodeCall, funcIndex)
}

func (e *Expression) CallIndirect(typeIndex, tableIndex wasm.Index) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeCallIndirect))
	e.buf = leb128.AppendUint32(e.buf, typeIndex)
	e.buf = leb128.AppendUint32(e.buf, tableIndex)
	return nil
}

// --- Reference instructions ---

func (e *Expression) RefNull(rt wasm.RefType) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeRefNull), byte(rt))
	e.setResultType(rt)
	return nil
}

func (e *Expression) RefIsNull() error { return e.emit0(wasm.OpcodeRefIsNull) }

func (e *Expression) RefFunc(funcIndex wasm.Index) error {
	if err := e.emitIndex(wasm.OpcodeRefFunc, funcIndex); err != nil {
		return err
	}
	e.setResultType(wasm.ValueTypeFuncref)
	return nil
}

// --- Parametric instructions ---

func (e *Expression) Drop() error { return e.emit0(wasm.OpcodeDrop) }

func (e *Expression) Select() error { return e.emit0(wasm.OpcodeSelect) }

// SelectWithType emits the `select t*` form, carrying an explicit result
// type vector (always exactly one type in the current spec).
func (e *Expression) SelectWithType(types []wasm.ValueType) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeTypedSelect))
	e.buf = leb128.AppendUint32(e.buf, uint32(len(types)))
	for _, t := range types {
		e.buf = append(e.buf, byte(t))
	}
	return nil
}

// --- Variable instructions ---

func (e *Expression) LocalGet(x wasm.Index) error  { return e.emitIndex(wasm.OpcodeLocalGet, x) }
func (e *Expression) LocalSet(x wasm.Index) error  { return e.emitIndex(wasm.OpcodeLocalSet, x) }
func (e *Expression) LocalTee(x wasm.Index) error  { return e.emitIndex(wasm.OpcodeLocalTee, x) }
func (e *Expression) GlobalGet(x wasm.Index) error { return e.emitIndex(wasm.OpcodeGlobalGet, x) }
func (e *Expression) GlobalSet(x wasm.Index) error { return e.emitIndex(wasm.OpcodeGlobalSet, x) }

// --- Table instructions ---

func (e *Expression) TableGet(x wasm.Index) error { return e.emitIndex(wasm.OpcodeTableGet, x) }
func (e *Expression) TableSet(x wasm.Index) error { return e.emitIndex(wasm.OpcodeTableSet, x) }

func (e *Expression) TableInit(elemIndex, tableIndex wasm.Index) error {
	return e.emitMisc2(wasm.OpcodeMiscTableInit, elemIndex, tableIndex)
}

func (e *Expression) ElemDrop(elemIndex wasm.Index) error {
	return e.emitMisc1(wasm.OpcodeMiscElemDrop, elemIndex)
}

func (e *Expression) TableCopy(dstTable, srcTable wasm.Index) error {
	return e.emitMisc2(wasm.OpcodeMiscTableCopy, dstTable, srcTable)
}

func (e *Expression) TableGrow(tableIndex wasm.Index) error {
	return e.emitMisc1(wasm.OpcodeMiscTableGrow, tableIndex)
}

func (e *Expression) TableSize(tableIndex wasm.Index) error {
	return e.emitMisc1(wasm.OpcodeMiscTableSize, tableIndex)
}

func (e *Expression) TableFill(tableIndex wasm.Index) error {
	return e.emitMisc1(wasm.OpcodeMiscTableFill, tableIndex)
}

// --- Memory instructions ---

func (e *Expression) I32Load(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Load, align, offset)
}
func (e *Expression) I64Load(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Load, align, offset)
}
func (e *Expression) F32Load(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeF32Load, align, offset)
}
func (e *Expression) F64Load(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeF64Load, align, offset)
}
func (e *Expression) I32Load8S(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Load8S, align, offset)
}
func (e *Expression) I32Load8U(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Load8U, align, offset)
}
func (e *Expression) I32Load16S(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Load16S, align, offset)
}
func (e *Expression) I32Load16U(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Load16U, align, offset)
}
func (e *Expression) I64Load8S(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Load8S, align, offset)
}
func (e *Expression) I64Load8U(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Load8U, align, offset)
}
func (e *Expression) I64Load16S(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Load16S, align, offset)
}
func (e *Expression) I64Load16U(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Load16U, align, offset)
}
func (e *Expression) I64Load32S(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Load32S, align, offset)
}
func (e *Expression) I64Load32U(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Load32U, align, offset)
}
func (e *Expression) I32Store(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Store, align, offset)
}
func (e *Expression) I64Store(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Store, align, offset)
}
func (e *Expression) F32Store(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeF32Store, align, offset)
}
func (e *Expression) F64Store(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeF64Store, align, offset)
}
func (e *Expression) I32Store8(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Store8, align, offset)
}
func (e *Expression) I32Store16(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI32Store16, align, offset)
}
func (e *Expression) I64Store8(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Store8, align, offset)
}
func (e *Expression) I64Store16(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Store16, align, offset)
}
func (e *Expression) I64Store32(align, offset uint32) error {
	return e.emitMemArg(wasm.OpcodeI64Store32, align, offset)
}

func (e *Expression) MemorySize() error { return e.emit0x(wasm.OpcodeMemorySize, 0x00) }
func (e *Expression) MemoryGrow() error { return e.emit0x(wasm.OpcodeMemoryGrow, 0x00) }

func (e *Expression) MemoryInit(dataIndex wasm.Index) error {
	return e.emitMiscIdxAndZero(wasm.OpcodeMiscMemoryInit, dataIndex)
}

func (e *Expression) DataDrop(dataIndex wasm.Index) error {
	return e.emitMisc1(wasm.OpcodeMiscDataDrop, dataIndex)
}

func (e *Expression) MemoryCopy() error { return e.emitMisc00(wasm.OpcodeMiscMemoryCopy) }
func (e *Expression) MemoryFill() error { return e.emitMisc0(wasm.OpcodeMiscMemoryFill) }

// --- Numeric constants ---

func (e *Expression) I32Const(v int32) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeI32Const))
	e.buf = leb128.AppendInt32(e.buf, v)
	e.setResultType(wasm.ValueTypeI32)
	return nil
}

func (e *Expression) I64Const(v int64) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeI64Const))
	e.buf = leb128.AppendInt64(e.buf, v)
	e.setResultType(wasm.ValueTypeI64)
	return nil
}

func (e *Expression) F32Const(v float32) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeF32Const))
	e.buf = binary.AppendFloat32(e.buf, v)
	e.setResultType(wasm.ValueTypeF32)
	return nil
}

func (e *Expression) F64Const(v float64) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeF64Const))
	e.buf = binary.AppendFloat64(e.buf, v)
	e.setResultType(wasm.ValueTypeF64)
	return nil
}

// --- helpers shared by the simple, immediate-free instructions ---

func (e *Expression) emit0(op wasm.Opcode) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(op))
	return nil
}

func (e *Expression) emitIndex(op wasm.Opcode, idx wasm.Index) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(op))
	e.buf = leb128.AppendUint32(e.buf, idx)
	return nil
}

func (e *Expression) emitMemArg(op wasm.Opcode, align, offset uint32) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(op))
	e.buf = leb128.AppendUint32(e.buf, align)
	e.buf = leb128.AppendUint32(e.buf, offset)
	return nil
}

func (e *Expression) emit0x(op wasm.Opcode, reserved byte) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(op), reserved)
	return nil
}

func (e *Expression) emitMisc1(m wasm.OpcodeMisc, idx wasm.Index) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeMiscPrefix))
	e.buf = leb128.AppendUint32(e.buf, uint32(m))
	e.buf = leb128.AppendUint32(e.buf, idx)
	return nil
}

func (e *Expression) emitMisc2(m wasm.OpcodeMisc, a, b wasm.Index) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeMiscPrefix))
	e.buf = leb128.AppendUint32(e.buf, uint32(m))
	e.buf = leb128.AppendUint32(e.buf, a)
	e.buf = leb128.AppendUint32(e.buf, b)
	return nil
}

// emitMiscIdxAndZero emits a misc opcode with an index immediate followed
// by the reserved memory-index-0 byte (memory.init y 0x00).
func (e *Expression) emitMiscIdxAndZero(m wasm.OpcodeMisc, idx wasm.Index) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeMiscPrefix))
	e.buf = leb128.AppendUint32(e.buf, uint32(m))
	e.buf = leb128.AppendUint32(e.buf, idx)
	e.buf = append(e.buf, 0x00)
	return nil
}

// emitMisc00 emits a misc opcode with two reserved memory-index-0 bytes
// (memory.copy 0x00 0x00).
func (e *Expression) emitMisc00(m wasm.OpcodeMisc) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeMiscPrefix))
	e.buf = leb128.AppendUint32(e.buf, uint32(m))
	e.buf = append(e.buf, 0x00, 0x00)
	return nil
}

// emitMisc0 emits a misc opcode with a single reserved memory-index-0 byte
// (memory.fill 0x00).
func (e *Expression) emitMisc0(m wasm.OpcodeMisc) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeMiscPrefix))
	e.buf = leb128.AppendUint32(e.buf, uint32(m))
	e.buf = append(e.buf, 0x00)
	return nil
}

// Finalize appends the terminating `end` and returns the accumulated
// bytes. It fails with ErrStructure if already finalized or if a block,
// loop, or if is still open.
func (e *Expression) Finalize() ([]byte, error) {
	if e.final {
		return nil, e.fail("finalize called twice")
	}
	if e.depth != 0 {
		return nil, e.fail("finalize called with an open block (depth %d)", e.depth)
	}
	e.buf = append(e.buf, byte(wasm.OpcodeEnd))
	e.final = true
	return e.buf, nil
}
