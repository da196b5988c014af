package wasmforge

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// This file holds the immediate-free numeric instructions: comparisons,
// arithmetic, conversions, and sign extensions. None of these can fail
// structurally, so each method's only possible error is ErrStructure from
// emitting into a finalized Expression.

func (e *Expression) I32Eqz() error { return e.emit0(wasm.OpcodeI32Eqz) }
func (e *Expression) I32Eq() error  { return e.emit0(wasm.OpcodeI32Eq) }
func (e *Expression) I32Ne() error  { return e.emit0(wasm.OpcodeI32Ne) }
func (e *Expression) I32LtS() error { return e.emit0(wasm.OpcodeI32LtS) }
func (e *Expression) I32LtU() error { return e.emit0(wasm.OpcodeI32LtU) }
func (e *Expression) I32GtS() error { return e.emit0(wasm.OpcodeI32GtS) }
func (e *Expression) I32GtU() error { return e.emit0(wasm.OpcodeI32GtU) }
func (e *Expression) I32LeS() error { return e.emit0(wasm.OpcodeI32LeS) }
func (e *Expression) I32LeU() error { return e.emit0(wasm.OpcodeI32LeU) }
func (e *Expression) I32GeS() error { return e.emit0(wasm.OpcodeI32GeS) }
func (e *Expression) I32GeU() error { return e.emit0(wasm.OpcodeI32GeU) }

func (e *Expression) I64Eqz() error { return e.emit0(wasm.OpcodeI64Eqz) }
func (e *Expression) I64Eq() error  { return e.emit0(wasm.OpcodeI64Eq) }
func (e *Expression) I64Ne() error  { return e.emit0(wasm.OpcodeI64Ne) }
func (e *Expression) I64LtS() error { return e.emit0(wasm.OpcodeI64LtS) }
func (e *Expression) I64LtU() error { return e.emit0(wasm.OpcodeI64LtU) }
func (e *Expression) I64GtS() error { return e.emit0(wasm.OpcodeI64GtS) }
func (e *Expression) I64GtU() error { return e.emit0(wasm.OpcodeI64GtU) }
func (e *Expression) I64LeS() error { return e.emit0(wasm.OpcodeI64LeS) }
func (e *Expression) I64LeU() error { return e.emit0(wasm.OpcodeI64LeU) }
func (e *Expression) I64GeS() error { return e.emit0(wasm.OpcodeI64GeS) }
func (e *Expression) I64GeU() error { return e.emit0(wasm.OpcodeI64GeU) }

func (e *Expression) F32Eq() error { return e.emit0(wasm.OpcodeF32Eq) }
func (e *Expression) F32Ne() error { return e.emit0(wasm.OpcodeF32Ne) }
func (e *Expression) F32Lt() error { return e.emit0(wasm.OpcodeF32Lt) }
func (e *Expression) F32Gt() error { return e.emit0(wasm.OpcodeF32Gt) }
func (e *Expression) F32Le() error { return e.emit0(wasm.OpcodeF32Le) }
func (e *Expression) F32Ge() error { return e.emit0(wasm.OpcodeF32Ge) }

func (e *Expression) F64Eq() error { return e.emit0(wasm.OpcodeF64Eq) }
func (e *Expression) F64Ne() error { return e.emit0(wasm.OpcodeF64Ne) }
func (e *Expression) F64Lt() error { return e.emit0(wasm.OpcodeF64Lt) }
func (e *Expression) F64Gt() error { return e.emit0(wasm.OpcodeF64Gt) }
func (e *Expression) F64Le() error { return e.emit0(wasm.OpcodeF64Le) }
func (e *Expression) F64Ge() error { return e.emit0(wasm.OpcodeF64Ge) }

func (e *Expression) I32Clz() error    { return e.emit0(wasm.OpcodeI32Clz) }
func (e *Expression) I32Ctz() error    { return e.emit0(wasm.OpcodeI32Ctz) }
func (e *Expression) I32Popcnt() error { return e.emit0(wasm.OpcodeI32Popcnt) }
func (e *Expression) I32Add() error    { return e.emit0(wasm.OpcodeI32Add) }
func (e *Expression) I32Sub() error    { return e.emit0(wasm.OpcodeI32Sub) }
func (e *Expression) I32Mul() error    { return e.emit0(wasm.OpcodeI32Mul) }
func (e *Expression) I32DivS() error   { return e.emit0(wasm.OpcodeI32DivS) }
func (e *Expression) I32DivU() error   { return e.emit0(wasm.OpcodeI32DivU) }
func (e *Expression) I32RemS() error   { return e.emit0(wasm.OpcodeI32RemS) }
func (e *Expression) I32RemU() error   { return e.emit0(wasm.OpcodeI32RemU) }
func (e *Expression) I32And() error    { return e.emit0(wasm.OpcodeI32And) }
func (e *Expression) I32Or() error     { return e.emit0(wasm.OpcodeI32Or) }
func (e *Expression) I32Xor() error    { return e.emit0(wasm.OpcodeI32Xor) }
func (e *Expression) I32Shl() error    { return e.emit0(wasm.OpcodeI32Shl) }
func (e *Expression) I32ShrS() error   { return e.emit0(wasm.OpcodeI32ShrS) }
func (e *Expression) I32ShrU() error   { return e.emit0(wasm.OpcodeI32ShrU) }
func (e *Expression) I32Rotl() error   { return e.emit0(wasm.OpcodeI32Rotl) }
func (e *Expression) I32Rotr() error   { return e.emit0(wasm.OpcodeI32Rotr) }

func (e *Expression) I64Clz() error    { return e.emit0(wasm.OpcodeI64Clz) }
func (e *Expression) I64Ctz() error    { return e.emit0(wasm.OpcodeI64Ctz) }
func (e *Expression) I64Popcnt() error { return e.emit0(wasm.OpcodeI64Popcnt) }
func (e *Expression) I64Add() error    { return e.emit0(wasm.OpcodeI64Add) }
func (e *Expression) I64Sub() error    { return e.emit0(wasm.OpcodeI64Sub) }
func (e *Expression) I64Mul() error    { return e.emit0(wasm.OpcodeI64Mul) }
func (e *Expression) I64DivS() error   { return e.emit0(wasm.OpcodeI64DivS) }
func (e *Expression) I64DivU() error   { return e.emit0(wasm.OpcodeI64DivU) }
func (e *Expression) I64RemS() error   { return e.emit0(wasm.OpcodeI64RemS) }
func (e *Expression) I64RemU() error   { return e.emit0(wasm.OpcodeI64RemU) }
func (e *Expression) I64And() error    { return e.emit0(wasm.OpcodeI64And) }
func (e *Expression) I64Or() error     { return e.emit0(wasm.OpcodeI64Or) }
func (e *Expression) I64Xor() error    { return e.emit0(wasm.OpcodeI64Xor) }
func (e *Expression) I64Shl() error    { return e.emit0(wasm.OpcodeI64Shl) }
func (e *Expression) I64ShrS() error   { return e.emit0(wasm.OpcodeI64ShrS) }
func (e *Expression) I64ShrU() error   { return e.emit0(wasm.OpcodeI64ShrU) }
func (e *Expression) I64Rotl() error   { return e.emit0(wasm.OpcodeI64Rotl) }
func (e *Expression) I64Rotr() error   { return e.emit0(wasm.OpcodeI64Rotr) }

func (e *Expression) F32Abs() error      { return e.emit0(wasm.OpcodeF32Abs) }
func (e *Expression) F32Neg() error      { return e.emit0(wasm.OpcodeF32Neg) }
func (e *Expression) F32Ceil() error     { return e.emit0(wasm.OpcodeF32Ceil) }
func (e *Expression) F32Floor() error    { return e.emit0(wasm.OpcodeF32Floor) }
func (e *Expression) F32Trunc() error    { return e.emit0(wasm.OpcodeF32Trunc) }
func (e *Expression) F32Nearest() error  { return e.emit0(wasm.OpcodeF32Nearest) }
func (e *Expression) F32Sqrt() error     { return e.emit0(wasm.OpcodeF32Sqrt) }
func (e *Expression) F32Add() error      { return e.emit0(wasm.OpcodeF32Add) }
func (e *Expression) F32Sub() error      { return e.emit0(wasm.OpcodeF32Sub) }
func (e *Expression) F32Mul() error      { return e.emit0(wasm.OpcodeF32Mul) }
func (e *Expression) F32Div() error      { return e.emit0(wasm.OpcodeF32Div) }
func (e *Expression) F32Min() error      { return e.emit0(wasm.OpcodeF32Min) }
func (e *Expression) F32Max() error      { return e.emit0(wasm.OpcodeF32Max) }
func (e *Expression) F32Copysign() error { return e.emit0(wasm.OpcodeF32Copysign) }

func (e *Expression) F64Abs() error      { return e.emit0(wasm.OpcodeF64Abs) }
func (e *Expression) F64Neg() error      { return e.emit0(wasm.OpcodeF64Neg) }
func (e *Expression) F64Ceil() error     { return e.emit0(wasm.OpcodeF64Ceil) }
func (e *Expression) F64Floor() error    { return e.emit0(wasm.OpcodeF64Floor) }
func (e *Expression) F64Trunc() error    { return e.emit0(wasm.OpcodeF64Trunc) }
func (e *Expression) F64Nearest() error  { return e.emit0(wasm.OpcodeF64Nearest) }
func (e *Expression) F64Sqrt() error     { return e.emit0(wasm.OpcodeF64Sqrt) }
func (e *Expression) F64Add() error      { return e.emit0(wasm.OpcodeF64Add) }
func (e *Expression) F64Sub() error      { return e.emit0(wasm.OpcodeF64Sub) }
func (e *Expression) F64Mul() error      { return e.emit0(wasm.OpcodeF64Mul) }
func (e *Expression) F64Div() error      { return e.emit0(wasm.OpcodeF64Div) }
func (e *Expression) F64Min() error      { return e.emit0(wasm.OpcodeF64Min) }
func (e *Expression) F64Max() error      { return e.emit0(wasm.OpcodeF64Max) }
func (e *Expression) F64Copysign() error { return e.emit0(wasm.OpcodeF64Copysign) }

func (e *Expression) I32WrapI64() error        { return e.emit0(wasm.OpcodeI32WrapI64) }
func (e *Expression) I32TruncF32S() error      { return e.emit0(wasm.OpcodeI32TruncF32S) }
func (e *Expression) I32TruncF32U() error      { return e.emit0(wasm.OpcodeI32TruncF32U) }
func (e *Expression) I32TruncF64S() error      { return e.emit0(wasm.OpcodeI32TruncF64S) }
func (e *Expression) I32TruncF64U() error      { return e.emit0(wasm.OpcodeI32TruncF64U) }
func (e *Expression) I64ExtendI32S() error     { return e.emit0(wasm.OpcodeI64ExtendI32S) }
func (e *Expression) I64ExtendI32U() error     { return e.emit0(wasm.OpcodeI64ExtendI32U) }
func (e *Expression) I64TruncF32S() error      { return e.emit0(wasm.OpcodeI64TruncF32S) }
func (e *Expression) I64TruncF32U() error      { return e.emit0(wasm.OpcodeI64TruncF32U) }
func (e *Expression) I64TruncF64S() error      { return e.emit0(wasm.OpcodeI64TruncF64S) }
func (e *Expression) I64TruncF64U() error      { return e.emit0(wasm.OpcodeI64TruncF64U) }
func (e *Expression) F32ConvertI32S() error    { return e.emit0(wasm.OpcodeF32ConvertI32S) }
func (e *Expression) F32ConvertI32U() error    { return e.emit0(wasm.OpcodeF32ConvertI32U) }
func (e *Expression) F32ConvertI64S() error    { return e.emit0(wasm.OpcodeF32ConvertI64S) }
func (e *Expression) F32ConvertI64U() error    { return e.emit0(wasm.OpcodeF32ConvertI64U) }
func (e *Expression) F32DemoteF64() error      { return e.emit0(wasm.OpcodeF32DemoteF64) }
func (e *Expression) F64ConvertI32S() error    { return e.emit0(wasm.OpcodeF64ConvertI32S) }
func (e *Expression) F64ConvertI32U() error    { return e.emit0(wasm.OpcodeF64ConvertI32U) }
func (e *Expression) F64ConvertI64S() error    { return e.emit0(wasm.OpcodeF64ConvertI64S) }
func (e *Expression) F64ConvertI64U() error    { return e.emit0(wasm.OpcodeF64ConvertI64U) }
func (e *Expression) F64PromoteF32() error     { return e.emit0(wasm.OpcodeF64PromoteF32) }
func (e *Expression) I32ReinterpretF32() error { return e.emit0(wasm.OpcodeI32ReinterpretF32) }
func (e *Expression) I64ReinterpretF64() error { return e.emit0(wasm.OpcodeI64ReinterpretF64) }
func (e *Expression) F32ReinterpretI32() error { return e.emit0(wasm.OpcodeF32ReinterpretI32) }
func (e *Expression) F64ReinterpretI64() error { return e.emit0(wasm.OpcodeF64ReinterpretI64) }

func (e *Expression) I32Extend8S() error  { return e.emit0(wasm.OpcodeI32Extend8S) }
func (e *Expression) I32Extend16S() error { return e.emit0(wasm.OpcodeI32Extend16S) }
func (e *Expression) I64Extend8S() error  { return e.emit0(wasm.OpcodeI64Extend8S) }
func (e *Expression) I64Extend16S() error { return e.emit0(wasm.OpcodeI64Extend16S) }
func (e *Expression) I64Extend32S() error { return e.emit0(wasm.OpcodeI64Extend32S) }

// Saturating truncation: two-byte instructions prefixed by OpcodeMiscPrefix.

func (e *Expression) I32TruncSatF32S() error { return e.emitMisc0Only(wasm.OpcodeMiscI32TruncSatF32S) }
func (e *Expression) I32TruncSatF32U() error { return e.emitMisc0Only(wasm.OpcodeMiscI32TruncSatF32U) }
func (e *Expression) I32TruncSatF64S() error { return e.emitMisc0Only(wasm.OpcodeMiscI32TruncSatF64S) }
func (e *Expression) I32TruncSatF64U() error { return e.emitMisc0Only(wasm.OpcodeMiscI32TruncSatF64U) }
func (e *Expression) I64TruncSatF32S() error { return e.emitMisc0Only(wasm.OpcodeMiscI64TruncSatF32S) }
func (e *Expression) I64TruncSatF32U() error { return e.emitMisc0Only(wasm.OpcodeMiscI64TruncSatF32U) }
func (e *Expression) I64TruncSatF64S() error { return e.emitMisc0Only(wasm.OpcodeMiscI64TruncSatF64S) }
func (e *Expression) I64TruncSatF64U() error { return e.emitMisc0Only(wasm.OpcodeMiscI64TruncSatF64U) }

func (e *Expression) emitMisc0Only(m wasm.OpcodeMisc) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.buf = append(e.buf, byte(wasm.OpcodeMiscPrefix))
	e.buf = leb128.AppendUint32(e.buf, uint32(m))
	return nil
}
