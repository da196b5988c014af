package binary

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// encodeData encodes a single data segment: `0x00 expr bytes` for
// active-in-memory-0, `0x01 bytes` for passive, `0x02 memidx expr bytes`
// for active-in-other-memory.
func encodeData(d *wasm.Data) []byte {
	if d.Mode == wasm.DataModePassive {
		ret := []byte{1}
		return append(ret, encodeByteVec(d.Init)...)
	}
	if d.MemIndex == 0 {
		ret := []byte{0}
		ret = append(ret, d.Offset.Bytes...)
		return append(ret, encodeByteVec(d.Init)...)
	}
	ret := []byte{2}
	ret = leb128.AppendUint32(ret, d.MemIndex)
	ret = append(ret, d.Offset.Bytes...)
	return append(ret, encodeByteVec(d.Init)...)
}

func encodeByteVec(b []byte) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(b)))
	return append(ret, b...)
}

func encodeDataSection(data []wasm.Data) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(data)))
	for i := range data {
		ret = append(ret, encodeData(&data[i])...)
	}
	return ret
}
