package binary

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// encodeGlobal encodes a global's type followed by its initializer
// expression bytes (already terminated by OpcodeEnd).
func encodeGlobal(g *wasm.Global) []byte {
	ret := EncodeGlobalType(g.Type)
	return append(ret, g.Init.Bytes...)
}

func encodeGlobalSection(globals []wasm.Global) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(globals)))
	for i := range globals {
		ret = append(ret, encodeGlobal(&globals[i])...)
	}
	return ret
}

func encodeTableSection(tables []wasm.Table) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(tables)))
	for _, t := range tables {
		ret = append(ret, EncodeTableType(t.Type)...)
	}
	return ret
}

func encodeMemorySection(mems []wasm.Memory) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(mems)))
	for _, m := range mems {
		ret = append(ret, EncodeMemoryType(m.Type)...)
	}
	return ret
}

func encodeTypeSection(types []wasm.FunctionType) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(types)))
	for _, ft := range types {
		ret = append(ret, EncodeFunctionType(ft)...)
	}
	return ret
}

// EncodeFunctionSection encodes the Function section payload: a vector of
// type indices, one per function declaration, in order.
func EncodeFunctionSection(typeIndices []wasm.Index) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(typeIndices)))
	for _, idx := range typeIndices {
		ret = leb128.AppendUint32(ret, idx)
	}
	return ret
}
