package binary

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// encodeElement encodes a single element segment using the flag byte 0-7
// that selects the combination of {active|passive|declarative,
// default-table-0|explicit-table-index, funcref-by-index|ref-type-by-expr}
// defined by the Wasm 2.0 binary format.
func encodeElement(e *wasm.Element) []byte {
	byIndex := e.RefType == wasm.ValueTypeFuncref && e.FuncIndices != nil

	switch e.Mode {
	case wasm.ElementModeActive:
		if byIndex && e.TableIndex == 0 {
			ret := []byte{0}
			ret = append(ret, e.Offset.Bytes...)
			return append(ret, encodeFuncIndexVec(e.FuncIndices)...)
		}
		if byIndex {
			ret := []byte{2}
			ret = leb128.AppendUint32(ret, e.TableIndex)
			ret = append(ret, e.Offset.Bytes...)
			ret = append(ret, wasm.ElemKindFuncRef)
			return append(ret, encodeFuncIndexVec(e.FuncIndices)...)
		}
		if e.TableIndex == 0 && e.RefType == wasm.ValueTypeFuncref {
			ret := []byte{4}
			ret = append(ret, e.Offset.Bytes...)
			return append(ret, encodeExprVec(e.InitExprs)...)
		}
		ret := []byte{6}
		ret = leb128.AppendUint32(ret, e.TableIndex)
		ret = append(ret, e.Offset.Bytes...)
		ret = append(ret, byte(e.RefType))
		return append(ret, encodeExprVec(e.InitExprs)...)

	case wasm.ElementModePassive:
		if byIndex {
			ret := []byte{1, wasm.ElemKindFuncRef}
			return append(ret, encodeFuncIndexVec(e.FuncIndices)...)
		}
		ret := []byte{5, byte(e.RefType)}
		return append(ret, encodeExprVec(e.InitExprs)...)

	default: // wasm.ElementModeDeclarative
		if byIndex {
			ret := []byte{3, wasm.ElemKindFuncRef}
			return append(ret, encodeFuncIndexVec(e.FuncIndices)...)
		}
		ret := []byte{7, byte(e.RefType)}
		return append(ret, encodeExprVec(e.InitExprs)...)
	}
}

func encodeFuncIndexVec(indices []wasm.Index) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(indices)))
	for _, idx := range indices {
		ret = leb128.AppendUint32(ret, idx)
	}
	return ret
}

func encodeExprVec(exprs []wasm.ConstantExpression) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(exprs)))
	for _, e := range exprs {
		ret = append(ret, e.Bytes...)
	}
	return ret
}

func encodeElementSection(elements []wasm.Element) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(elements)))
	for i := range elements {
		ret = append(ret, encodeElement(&elements[i])...)
	}
	return ret
}
