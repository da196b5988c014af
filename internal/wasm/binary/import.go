package binary

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// encodeImport encodes a single import: module name, entity name, kind
// byte, then the variant-specific descriptor.
func encodeImport(im *wasm.Import) []byte {
	ret := EncodeName(im.Module)
	ret = append(ret, EncodeName(im.Name)...)
	ret = append(ret, byte(im.Type))
	switch im.Type {
	case wasm.ExternTypeFunc:
		ret = leb128.AppendUint32(ret, im.DescFunc)
	case wasm.ExternTypeTable:
		ret = append(ret, EncodeTableType(im.DescTable)...)
	case wasm.ExternTypeMemory:
		ret = append(ret, EncodeMemoryType(im.DescMemory)...)
	case wasm.ExternTypeGlobal:
		ret = append(ret, EncodeGlobalType(im.DescGlobal)...)
	}
	return ret
}

// encodeImports encodes the vector of function-imports ⧺ table-imports ⧺
// memory-imports ⧺ global-imports, in that fixed order.
func encodeImports(m *wasm.Module) []byte {
	count := len(m.FuncImports) + len(m.TableImports) + len(m.MemImports) + len(m.GlobalImports)
	ret := leb128.AppendUint32(nil, uint32(count))
	for i := range m.FuncImports {
		ret = append(ret, encodeImport(&m.FuncImports[i])...)
	}
	for i := range m.TableImports {
		ret = append(ret, encodeImport(&m.TableImports[i])...)
	}
	for i := range m.MemImports {
		ret = append(ret, encodeImport(&m.MemImports[i])...)
	}
	for i := range m.GlobalImports {
		ret = append(ret, encodeImport(&m.GlobalImports[i])...)
	}
	return ret
}
