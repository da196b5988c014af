// Package wasm holds the data model for a WebAssembly 2.0 module: value
// types, the entity kinds a module declares, and the in-memory
// representation the encoder packages flatten to bytes.
//
// This package never decodes a binary: it only models what a client
// assembles and hands to the binary encoder.
package wasm

// ValueType is the encoding of a value's type, a single byte in the binary
// format.
type ValueType byte

const (
	ValueTypeI32       ValueType = 0x7F
	ValueTypeI64       ValueType = 0x7E
	ValueTypeF32       ValueType = 0x7D
	ValueTypeF64       ValueType = 0x7C
	ValueTypeV128      ValueType = 0x7B // reserved: no instruction in this package emits v128 values.
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6F
)

// IsReference returns true if v is one of the two reference types.
func (v ValueType) IsReference() bool {
	return v == ValueTypeFuncref || v == ValueTypeExternref
}

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	default:
		return "unknown"
	}
}

// RefType is the value type of a table or a ref.null/ref.func result,
// restricted to the reference types.
type RefType = ValueType

// ExternType discriminates the four kinds of import/export, using the byte
// values the binary format assigns them.
type ExternType byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

func (e ExternType) String() string {
	switch e {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Index is an index into one of a module's combined index spaces.
type Index = uint32

// Limits is the minimum and optional maximum of a table or memory.
type Limits struct {
	Min     uint32
	Max     uint32
	HasMax  bool
}

// FunctionType is an ordered list of parameter types and an ordered list of
// result types. Two function types are structurally equal if both lists
// match element-for-element.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether ft and other declare the same parameter and result
// sequences.
func (ft FunctionType) Equal(other FunctionType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if other.Params[i] != p {
			return false
		}
	}
	for i, r := range ft.Results {
		if other.Results[i] != r {
			return false
		}
	}
	return true
}

// TableType is a reference type plus its size limits.
type TableType struct {
	RefType RefType
	Limits  Limits
}

// MemoryType is a memory's size limits, in units of 64KiB pages.
type MemoryType struct {
	Limits Limits
}

// GlobalType is a value type plus whether the global can be reassigned after
// instantiation.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Import describes a single imported entity. Exactly one of the Func/Table/
// Memory/Global fields is meaningful, selected by Type.
type Import struct {
	Module, Name string
	Type         ExternType

	DescFunc   Index // type index, valid when Type == ExternTypeFunc
	DescTable  TableType
	DescMemory MemoryType
	DescGlobal GlobalType
}

// Export binds a name to an index in the combined index space of Type.
type Export struct {
	Name  string
	Type  ExternType
	Index Index
}

// ConstantExpression is a finalized initializer expression: the raw
// instruction bytes terminated by OpcodeEnd, as produced by Expression.
type ConstantExpression struct {
	Bytes []byte
}

// Global is a module-declared global: its type and the initializer that
// supplies its starting value.
type Global struct {
	Type GlobalType
	Init ConstantExpression
}

// Table is a module-declared table.
type Table struct {
	Type TableType
}

// Memory is a module-declared memory.
type Memory struct {
	Type MemoryType
}

// Code is a function's locals declaration plus its finalized body.
type Code struct {
	TypeIndex  Index
	LocalTypes []ValueType
	Body       []byte
}

// ElementMode selects whether an element segment is copied into a table at
// instantiation (active), inert until explicitly copied (passive), or only
// usable via ref.func-style forward references (declarative).
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclarative
)

// Element is an element segment. Exactly one of FuncIndices or InitExprs is
// populated: FuncIndices is the compact encoding available only for
// RefType == ValueTypeFuncref, InitExprs is the general encoding for either
// reference type.
type Element struct {
	RefType     RefType
	Mode        ElementMode
	TableIndex  Index // meaningful only when Mode == ElementModeActive
	Offset      ConstantExpression
	FuncIndices []Index
	InitExprs   []ConstantExpression
}

// DataMode selects whether a data segment is copied into a memory at
// instantiation (active) or inert until explicitly copied (passive).
type DataMode byte

const (
	DataModeActive DataMode = iota
	DataModePassive
)

// Data is a data segment.
type Data struct {
	Mode      DataMode
	MemIndex  Index // meaningful only when Mode == DataModeActive
	Offset    ConstantExpression
	Init      []byte
}
