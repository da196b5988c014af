package binary

import (
	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// encodeCode encodes a function body: its own byte length, then the locals
// vector, then the already-terminated instruction bytes.
//
// Locals are run-length encoded per the binary format: a vector of (count,
// value-type) pairs. Adjacent locals of the same type in c.LocalTypes are
// folded into a single pair.
func encodeCode(c *wasm.Code) []byte {
	localGroups := groupLocals(c.LocalTypes)

	content := leb128.AppendUint32(nil, uint32(len(localGroups)))
	for _, g := range localGroups {
		content = leb128.AppendUint32(content, g.count)
		content = append(content, byte(g.valType))
	}
	content = append(content, c.Body...)

	ret := leb128.AppendUint32(nil, uint32(len(content)))
	return append(ret, content...)
}

type localGroup struct {
	count   uint32
	valType wasm.ValueType
}

func groupLocals(locals []wasm.ValueType) []localGroup {
	var groups []localGroup
	for _, v := range locals {
		if n := len(groups); n > 0 && groups[n-1].valType == v {
			groups[n-1].count++
			continue
		}
		groups = append(groups, localGroup{count: 1, valType: v})
	}
	return groups
}

func encodeCodeSection(codes []wasm.Code) []byte {
	ret := leb128.AppendUint32(nil, uint32(len(codes)))
	for i := range codes {
		ret = append(ret, encodeCode(&codes[i])...)
	}
	return ret
}
