package wasmforge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// finalizeExpr builds and finalizes an expression, for use as a function
// body (which the module never type-checks, per the spec's structural-only
// validation at assembly time).
func finalizeExpr(t *testing.T, build func(e *Expression) error) []byte {
	t.Helper()
	e := NewExpression()
	require.NoError(t, build(e))
	body, err := e.Finalize()
	require.NoError(t, err)
	return body
}

// buildExpr returns an unfinalized expression, for use as a global/element/
// data initializer that the module itself finalizes after type-checking.
func buildExpr(t *testing.T, build func(e *Expression) error) *Expression {
	t.Helper()
	e := NewExpression()
	require.NoError(t, build(e))
	return e
}

func TestModule_empty(t *testing.T) {
	mod := NewModule()
	bytes, err := mod.Assemble()
	require.NoError(t, err)
	expected := append(append([]byte{}, wasm.Magic...), wasm.Version...)
	require.Equal(t, expected, bytes)
}

func TestModule_typeDeduplication(t *testing.T) {
	mod := NewModule()
	ft := FunctionType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	i1, err := mod.TypeIndex(ft)
	require.NoError(t, err)
	i2, err := mod.TypeIndex(ft)
	require.NoError(t, err)
	i3, err := mod.TypeIndex(FunctionType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}})
	require.NoError(t, err)
	require.Equal(t, i1, i2)
	require.Equal(t, i1, i3)

	other, err := mod.TypeIndex(FunctionType{Results: []ValueType{ValueTypeI64}})
	require.NoError(t, err)
	require.NotEqual(t, i1, other)
}

func TestModule_importAfterDeclarationIsOrderingError(t *testing.T) {
	mod := NewModule()
	ft := FunctionType{}
	_, err := mod.DeclareFunction(ft, nil, finalizeExpr(t, func(e *Expression) error { return nil }))
	require.NoError(t, err)

	_, err = mod.ImportFunction("env", "f", ft)
	require.True(t, errors.Is(err, ErrOrdering))
}

func TestModule_functionIndexSpaceMonotonic(t *testing.T) {
	mod := NewModule()
	ft := FunctionType{}
	imported, err := mod.ImportFunction("env", "a", ft)
	require.NoError(t, err)
	require.Equal(t, Index(0), imported)

	body := finalizeExpr(t, func(e *Expression) error { return nil })
	declared1, err := mod.DeclareFunction(ft, nil, body)
	require.NoError(t, err)
	require.Equal(t, Index(1), declared1)

	declared2, err := mod.DeclareFunction(ft, nil, body)
	require.NoError(t, err)
	require.Equal(t, Index(2), declared2)
}

func TestModule_exportIndexOutOfRange(t *testing.T) {
	mod := NewModule()
	err := mod.ExportFunction("missing", 0)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestModule_duplicateExportRejected(t *testing.T) {
	mod := NewModule()
	ft := FunctionType{}
	body := finalizeExpr(t, func(e *Expression) error { return nil })
	f0, err := mod.DeclareFunction(ft, nil, body)
	require.NoError(t, err)
	f1, err := mod.DeclareFunction(ft, nil, body)
	require.NoError(t, err)

	require.NoError(t, mod.ExportFunction("run", f0))
	err = mod.ExportFunction("run", f1)
	require.True(t, errors.Is(err, ErrDuplicateExport))
}

func TestModule_assembleFreezesFurtherInsertions(t *testing.T) {
	mod := NewModule()
	_, err := mod.Assemble()
	require.NoError(t, err)

	_, err = mod.ImportFunction("env", "f", FunctionType{})
	require.True(t, errors.Is(err, ErrFrozen))

	_, err = mod.DeclareMemory(MemoryType{Limits: Limits{Min: 1}})
	require.True(t, errors.Is(err, ErrFrozen))
}

func TestModule_activeDataMemoryIndexOutOfRange(t *testing.T) {
	mod := NewModule()
	offset := buildExpr(t, func(e *Expression) error { return e.I32Const(0) })
	_, err := mod.ActiveData(0, offset, []byte("x"))
	require.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestModule_passiveDataAndElements(t *testing.T) {
	mod := NewModule()
	_, err := mod.PassiveData([]byte("hi"))
	require.NoError(t, err)

	ft := FunctionType{}
	body := finalizeExpr(t, func(e *Expression) error { return nil })
	f0, err := mod.DeclareFunction(ft, nil, body)
	require.NoError(t, err)

	_, err = mod.PassiveElements([]Index{f0})
	require.NoError(t, err)
	_, err = mod.DeclarativeElements([]Index{f0})
	require.NoError(t, err)
}

func TestModule_globalTypeMismatch(t *testing.T) {
	mod := NewModule()
	init := buildExpr(t, func(e *Expression) error { return e.I64Const(0) })
	_, err := mod.DeclareGlobal(GlobalType{ValType: ValueTypeI32}, init)
	require.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestModule_globalMatchingTypeOK(t *testing.T) {
	mod := NewModule()
	init := buildExpr(t, func(e *Expression) error { return e.I32Const(7) })
	idx, err := mod.DeclareGlobal(GlobalType{ValType: ValueTypeI32, Mutable: true}, init)
	require.NoError(t, err)
	require.Equal(t, Index(0), idx)
}

func TestModule_activeElementsTableIndexOutOfRange(t *testing.T) {
	mod := NewModule()
	offset := buildExpr(t, func(e *Expression) error { return e.I32Const(0) })
	_, err := mod.ActiveElements(0, offset, []Index{0})
	require.True(t, errors.Is(err, ErrIndexOutOfRange))
}

// TestModule_helloWorldWASI builds the spec's canonical WASI "hello world"
// scenario entirely through the public API and checks the result's preamble
// and section framing and ordering.
func TestModule_helloWorldWASI(t *testing.T) {
	mod := NewModule()

	fdWrite := FunctionType{
		Params:  []ValueType{ValueTypeI32, ValueTypeI32, ValueTypeI32, ValueTypeI32},
		Results: []ValueType{ValueTypeI32},
	}
	fdWriteIdx, err := mod.ImportFunction("wasi_unstable", "fd_write", fdWrite)
	require.NoError(t, err)
	require.Equal(t, Index(0), fdWriteIdx)

	memIdx, err := mod.DeclareMemory(MemoryType{Limits: Limits{Min: 1}})
	require.NoError(t, err)

	iovecOffset := buildExpr(t, func(e *Expression) error { return e.I32Const(8) })
	_, err = mod.ActiveData(memIdx, iovecOffset, []byte("hello world\n"))
	require.NoError(t, err)

	start := FunctionType{}
	body := finalizeExpr(t, func(e *Expression) error {
		if err := e.I32Const(0); err != nil {
			return err
		}
		if err := e.I32Const(8); err != nil {
			return err
		}
		if err := e.I32Store(2, 0); err != nil {
			return err
		}
		if err := e.I32Const(4); err != nil {
			return err
		}
		if err := e.I32Const(12); err != nil {
			return err
		}
		if err := e.I32Store(2, 0); err != nil {
			return err
		}
		if err := e.I32Const(1); err != nil {
			return err
		}
		if err := e.I32Const(0); err != nil {
			return err
		}
		if err := e.I32Const(1); err != nil {
			return err
		}
		if err := e.I32Const(20); err != nil {
			return err
		}
		if err := e.Call(fdWriteIdx); err != nil {
			return err
		}
		return e.Drop()
	})
	startIdx, err := mod.DeclareFunction(start, nil, body)
	require.NoError(t, err)

	require.NoError(t, mod.ExportMemory("memory", memIdx))
	require.NoError(t, mod.ExportFunction("_start", startIdx))

	bytes, err := mod.Assemble()
	require.NoError(t, err)
	require.Equal(t, wasm.Magic, bytes[:4])
	require.Equal(t, wasm.Version, bytes[4:8])

	lastID := -1
	i := 8
	for i < len(bytes) {
		id := int(bytes[i])
		// Section 10 (Code) is the sole exception to strict increase: it is
		// required to follow section 12 (DataCount) when both are present.
		if !(lastID == int(wasm.SectionIDDataCount) && id == int(wasm.SectionIDCode)) {
			require.Greater(t, id, lastID)
		}
		lastID = id
		i++
		size, n := decodeULEB128(t, bytes[i:])
		i += n + int(size)
	}
	require.Equal(t, len(bytes), i)
}

func decodeULEB128(t *testing.T, b []byte) (value uint64, n int) {
	t.Helper()
	var shift uint
	for {
		c := b[n]
		n++
		value |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return value, n
		}
		shift += 7
	}
}
