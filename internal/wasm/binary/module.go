package binary

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// section encodes id, the LEB128 length of content, and content itself, and
// appends the result to dst.
func section(dst []byte, id wasm.SectionID, content []byte) []byte {
	dst = append(dst, byte(id))
	dst = leb128.AppendUint32(dst, uint32(len(content)))
	return append(dst, content...)
}

// EncodeModule flattens m into a complete Wasm binary: the fixed preamble
// followed by each non-empty section in canonical order.
//
// The DataCount section is emitted whenever there is at least one data
// segment, and always precedes the Code section: the Wasm 2.0 validator
// needs the data-segment count in hand before it can check memory.init and
// data.drop operands in function bodies.
func EncodeModule(m *wasm.Module) []byte {
	ret := append([]byte{}, wasm.Magic...)
	ret = append(ret, wasm.Version...)

	if len(m.TypeSection) > 0 {
		ret = section(ret, wasm.SectionIDType, encodeTypeSection(m.TypeSection))
	}
	if n := len(m.FuncImports) + len(m.TableImports) + len(m.MemImports) + len(m.GlobalImports); n > 0 {
		ret = section(ret, wasm.SectionIDImport, encodeImports(m))
	}
	if len(m.FunctionSection) > 0 {
		ret = section(ret, wasm.SectionIDFunction, EncodeFunctionSection(m.FunctionSection))
	}
	if len(m.TableSection) > 0 {
		ret = section(ret, wasm.SectionIDTable, encodeTableSection(m.TableSection))
	}
	if len(m.MemorySection) > 0 {
		ret = section(ret, wasm.SectionIDMemory, encodeMemorySection(m.MemorySection))
	}
	if len(m.GlobalSection) > 0 {
		ret = section(ret, wasm.SectionIDGlobal, encodeGlobalSection(m.GlobalSection))
	}
	if len(m.ExportSection) > 0 {
		ret = section(ret, wasm.SectionIDExport, encodeExports(m.ExportSection))
	}
	if len(m.ElementSection) > 0 {
		ret = section(ret, wasm.SectionIDElement, encodeElementSection(m.ElementSection))
	}
	if len(m.DataSection) > 0 {
		ret = section(ret, wasm.SectionIDDataCount, leb128.AppendUint32(nil, uint32(len(m.DataSection))))
	}
	if len(m.CodeSection) > 0 {
		ret = section(ret, wasm.SectionIDCode, encodeCodeSection(m.CodeSection))
	}
	if len(m.DataSection) > 0 {
		ret = section(ret, wasm.SectionIDData, encodeDataSection(m.DataSection))
	}
	return ret
}
