package wasmforge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

func TestExpression_simpleConst(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.I32Const(42))
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{byte(wasm.OpcodeI32Const), 42, byte(wasm.OpcodeEnd)}, body)
}

func TestExpression_blockLoopIfElse(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.Block([]byte{wasm.BlockTypeEmpty}))
	require.NoError(t, e.Loop([]byte{wasm.BlockTypeEmpty}))
	require.NoError(t, e.I32Const(1))
	require.NoError(t, e.If([]byte{wasm.BlockTypeEmpty}))
	require.NoError(t, e.Nop())
	require.NoError(t, e.Else())
	require.NoError(t, e.Nop())
	require.NoError(t, e.End()) // closes if
	require.NoError(t, e.End()) // closes loop
	require.NoError(t, e.End()) // closes block
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeBlock), wasm.BlockTypeEmpty,
		byte(wasm.OpcodeLoop), wasm.BlockTypeEmpty,
		byte(wasm.OpcodeI32Const), 1,
		byte(wasm.OpcodeIf), wasm.BlockTypeEmpty,
		byte(wasm.OpcodeNop),
		byte(wasm.OpcodeElse),
		byte(wasm.OpcodeNop),
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeEnd),
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_elseOutsideIf(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.Block([]byte{wasm.BlockTypeEmpty}))
	err := e.Else()
	require.True(t, errors.Is(err, ErrStructure))
}

func TestExpression_endWithoutOpener(t *testing.T) {
	e := NewExpression()
	err := e.End()
	require.True(t, errors.Is(err, ErrStructure))
}

func TestExpression_brTargetExceedsDepth(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.Block([]byte{wasm.BlockTypeEmpty}))
	err := e.Br(2)
	require.True(t, errors.Is(err, ErrStructure))
}

func TestExpression_brWithinDepth(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.Block([]byte{wasm.BlockTypeEmpty}))
	require.NoError(t, e.Br(0))
	require.NoError(t, e.End())
	_, err := e.Finalize()
	require.NoError(t, err)
}

func TestExpression_brTableValidatesAllTargets(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.Block([]byte{wasm.BlockTypeEmpty}))
	require.NoError(t, e.Block([]byte{wasm.BlockTypeEmpty}))
	require.NoError(t, e.BrTable([]wasm.Index{0, 1}, 0))
	err := e.BrTable([]wasm.Index{0, 5}, 0)
	require.True(t, errors.Is(err, ErrStructure))
}

func TestExpression_finalizeWithOpenBlock(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.Block([]byte{wasm.BlockTypeEmpty}))
	_, err := e.Finalize()
	require.True(t, errors.Is(err, ErrStructure))
}

func TestExpression_finalizeTwice(t *testing.T) {
	e := NewExpression()
	_, err := e.Finalize()
	require.NoError(t, err)
	_, err = e.Finalize()
	require.True(t, errors.Is(err, ErrStructure))
}

func TestExpression_emitAfterFinalize(t *testing.T) {
	e := NewExpression()
	_, err := e.Finalize()
	require.NoError(t, err)
	err = e.Nop()
	require.True(t, errors.Is(err, ErrStructure))
}

func TestExpression_callIndirect(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.I32Const(0))
	require.NoError(t, e.CallIndirect(3, 0))
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeI32Const), 0,
		byte(wasm.OpcodeCallIndirect), 3, 0,
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_memoryLoadStore(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.I32Const(0))
	require.NoError(t, e.I32Load(2, 4))
	require.NoError(t, e.Drop())
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeI32Const), 0,
		byte(wasm.OpcodeI32Load), 2, 4,
		byte(wasm.OpcodeDrop),
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_memoryBulkOps(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.MemoryCopy())
	require.NoError(t, e.MemoryFill())
	require.NoError(t, e.DataDrop(2))
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeMiscPrefix), byte(wasm.OpcodeMiscMemoryCopy), 0x00, 0x00,
		byte(wasm.OpcodeMiscPrefix), byte(wasm.OpcodeMiscMemoryFill), 0x00,
		byte(wasm.OpcodeMiscPrefix), byte(wasm.OpcodeMiscDataDrop), 2,
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_tableBulkOps(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.TableInit(1, 0))
	require.NoError(t, e.ElemDrop(1))
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeMiscPrefix), byte(wasm.OpcodeMiscTableInit), 1, 0,
		byte(wasm.OpcodeMiscPrefix), byte(wasm.OpcodeMiscElemDrop), 1,
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_satTruncation(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.I32TruncSatF32S())
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeMiscPrefix), byte(wasm.OpcodeMiscI32TruncSatF32S),
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_numericArithmeticAndComparison(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.I32Const(1))
	require.NoError(t, e.I32Const(2))
	require.NoError(t, e.I32Add())
	require.NoError(t, e.I32Const(0))
	require.NoError(t, e.I32GtS())
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeI32Const), 1,
		byte(wasm.OpcodeI32Const), 2,
		byte(wasm.OpcodeI32Add),
		byte(wasm.OpcodeI32Const), 0,
		byte(wasm.OpcodeI32GtS),
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_conversionAndSignExtend(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.I64ExtendI32S())
	require.NoError(t, e.I32WrapI64())
	require.NoError(t, e.I32Extend8S())
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeI64ExtendI32S),
		byte(wasm.OpcodeI32WrapI64),
		byte(wasm.OpcodeI32Extend8S),
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_refAndSelect(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.RefNull(wasm.ValueTypeFuncref))
	require.NoError(t, e.RefIsNull())
	require.NoError(t, e.SelectWithType([]wasm.ValueType{wasm.ValueTypeI32}))
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(wasm.OpcodeRefNull), byte(wasm.ValueTypeFuncref),
		byte(wasm.OpcodeRefIsNull),
		byte(wasm.OpcodeTypedSelect), 1, byte(wasm.ValueTypeI32),
		byte(wasm.OpcodeEnd),
	}, body)
}

func TestExpression_floatConstants(t *testing.T) {
	e := NewExpression()
	require.NoError(t, e.F32Const(1.5))
	require.NoError(t, e.F64Const(2.5))
	body, err := e.Finalize()
	require.NoError(t, err)
	require.Equal(t, byte(wasm.OpcodeF32Const), body[0])
	require.Equal(t, byte(wasm.OpcodeF64Const), body[5])
	require.Equal(t, byte(wasm.OpcodeEnd), body[len(body)-1])
}
