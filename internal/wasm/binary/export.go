package binary

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// encodeExport encodes a single export: name, kind byte, index.
func encodeExport(e *wasm.Export) []byte {
	ret := EncodeName(e.Name)
	ret = append(ret, byte(e.Type))
	return leb128.AppendUint32(ret, e.Index)
}

func encodeExports(exports []wasm.Export) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(exports)))
	for i := range exports {
		ret = append(ret, encodeExport(&exports[i])...)
	}
	return ret
}
