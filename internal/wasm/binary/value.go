// Package binary flattens the wasm package's data model into the
// WebAssembly binary format. Every function here is a pure, allocating
// encoder: none perform I/O, and none decode.
package binary

import (
	"math"

	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// AppendFloat32 appends v to dst as 4 little-endian bytes.
func AppendFloat32(dst []byte, v float32) []byte {
	bits := math.Float32bits(v)
	return append(dst, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
}

// AppendFloat64 appends v to dst as 8 little-endian bytes.
func AppendFloat64(dst []byte, v float64) []byte {
	bits := math.Float64bits(v)
	return append(dst,
		byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24),
		byte(bits>>32), byte(bits>>40), byte(bits>>48), byte(bits>>56))
}

// EncodeName encodes a name as its UTF-8 bytes prefixed by their unsigned
// LEB128 length.
func EncodeName(name string) []byte {
	return append(leb128.EncodeUint32(uint32(len(name))), name...)
}

// EncodeValueType encodes a single value type as its opcode byte.
func EncodeValueType(v wasm.ValueType) byte { return byte(v) }

// EncodeValTypes encodes a vector of value types: an unsigned LEB128 count
// followed by one byte per type.
func EncodeValTypes(vt []wasm.ValueType) []byte {
	count := len(vt)
	ret := make([]byte, 0, 1+count)
	ret = leb128.AppendUint32(ret, uint32(count))
	for _, v := range vt {
		ret = append(ret, byte(v))
	}
	return ret
}

// EncodeLimits encodes a Limits as a flag byte (0x00 min-only, 0x01
// min+max) followed by the unsigned LEB128 bound(s).
func EncodeLimits(l wasm.Limits) []byte {
	if l.HasMax {
		ret := []byte{0x01}
		ret = leb128.AppendUint32(ret, l.Min)
		ret = leb128.AppendUint32(ret, l.Max)
		return ret
	}
	ret := []byte{0x00}
	return leb128.AppendUint32(ret, l.Min)
}

// EncodeFunctionType encodes a function type: opcode 0x60 followed by the
// parameter vector then the result vector.
func EncodeFunctionType(ft wasm.FunctionType) []byte {
	ret := []byte{0x60}
	ret = append(ret, EncodeValTypes(ft.Params)...)
	ret = append(ret, EncodeValTypes(ft.Results)...)
	return ret
}

// EncodeGlobalType encodes a value type byte followed by a mutability byte
// (0x00 const, 0x01 var).
func EncodeGlobalType(gt wasm.GlobalType) []byte {
	mut := byte(0x00)
	if gt.Mutable {
		mut = 0x01
	}
	return []byte{byte(gt.ValType), mut}
}

// EncodeTableType encodes a reference type byte followed by its Limits.
func EncodeTableType(tt wasm.TableType) []byte {
	return append([]byte{byte(tt.RefType)}, EncodeLimits(tt.Limits)...)
}

// EncodeMemoryType encodes a memory's Limits.
func EncodeMemoryType(mt wasm.MemoryType) []byte {
	return EncodeLimits(mt.Limits)
}

// EncodeBlockType encodes a block signature: 0x40 for empty, a single value
// type byte for a one-result block, or a signed 33-bit type index
// otherwise.
func EncodeBlockType(ft *wasm.FunctionType, typeIndex wasm.Index) []byte {
	if ft == nil {
		return []byte{wasm.BlockTypeEmpty}
	}
	if len(ft.Params) == 0 && len(ft.Results) == 1 {
		return []byte{byte(ft.Results[0])}
	}
	return leb128.AppendInt33(nil, int64(typeIndex))
}
