package wasmforge

import (
	"fmt"

	"github.com/wasmforge/wasmforge/internal/wasm"
	"github.com/wasmforge/wasmforge/internal/wasm/binary"
)

// Re-exported data-model types, so callers never need to import the
// internal wasm package directly.
type (
	ValueType  = wasm.ValueType
	RefType    = wasm.RefType
	ExternType = wasm.ExternType
	Index      = wasm.Index
	Limits     = wasm.Limits
	TableType  = wasm.TableType
	MemoryType = wasm.MemoryType
	GlobalType = wasm.GlobalType
)

const (
	ValueTypeI32       = wasm.ValueTypeI32
	ValueTypeI64       = wasm.ValueTypeI64
	ValueTypeF32       = wasm.ValueTypeF32
	ValueTypeF64       = wasm.ValueTypeF64
	ValueTypeFuncref   = wasm.ValueTypeFuncref
	ValueTypeExternref = wasm.ValueTypeExternref
)

// FunctionType is a function's parameter and result value-type lists.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func (ft FunctionType) internal() wasm.FunctionType {
	return wasm.FunctionType{Params: ft.Params, Results: ft.Results}
}

// Module assembles a WebAssembly 2.0 binary module one declaration at a
// time. Every import, declaration, and segment method appends to the index
// space of its entity kind and returns the index just assigned; the Export
// methods return only an error.
//
// A Module is a single-writer, single-owner object, like Expression: build
// it with its insertion methods, then call Assemble. Once Assemble has run,
// the module is frozen and every further insertion returns ErrFrozen.
type Module struct {
	m      wasm.Module
	frozen bool

	// funcDeclared, tableDeclared, memDeclared, and globalDeclared
	// remember, per entity kind, whether a declaration (as
	// opposed to an import) has been added yet, so a later import can be
	// rejected with ErrOrdering.
	funcDeclared, tableDeclared, memDeclared, globalDeclared bool
}

// NewModule returns an empty Module ready to accumulate declarations.
func NewModule() *Module {
	return &Module{}
}

func (mod *Module) checkOpen() error {
	if mod.frozen {
		return fmt.Errorf("%w", ErrFrozen)
	}
	return nil
}

// TypeIndex returns the index of ft in the module's type section, adding it
// if no structurally equal type has been added yet.
func (mod *Module) TypeIndex(ft FunctionType) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	internal := ft.internal()
	for i, existing := range mod.m.TypeSection {
		if existing.Equal(internal) {
			return Index(i), nil
		}
	}
	mod.m.TypeSection = append(mod.m.TypeSection, internal)
	return Index(len(mod.m.TypeSection) - 1), nil
}

// ImportFunction imports a function of type ft from module/name and returns
// its function index. It must be called before any function is declared
// with DeclareFunction.
func (mod *Module) ImportFunction(module, name string, ft FunctionType) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	if mod.funcDeclared {
		return 0, fmt.Errorf("%w: function import %s.%s after a function declaration", ErrOrdering, module, name)
	}
	typeIndex, err := mod.TypeIndex(ft)
	if err != nil {
		return 0, err
	}
	mod.m.FuncImports = append(mod.m.FuncImports, wasm.Import{
		Module: module, Name: name, Type: wasm.ExternTypeFunc, DescFunc: typeIndex,
	})
	return Index(len(mod.m.FuncImports) - 1), nil
}

// ImportTable imports a table from module/name and returns its table index.
func (mod *Module) ImportTable(module, name string, tt TableType) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	if mod.tableDeclared {
		return 0, fmt.Errorf("%w: table import %s.%s after a table declaration", ErrOrdering, module, name)
	}
	mod.m.TableImports = append(mod.m.TableImports, wasm.Import{
		Module: module, Name: name, Type: wasm.ExternTypeTable, DescTable: tt,
	})
	return Index(len(mod.m.TableImports) - 1), nil
}

// ImportMemory imports a memory from module/name and returns its memory
// index.
func (mod *Module) ImportMemory(module, name string, mt MemoryType) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	if mod.memDeclared {
		return 0, fmt.Errorf("%w: memory import %s.%s after a memory declaration", ErrOrdering, module, name)
	}
	mod.m.MemImports = append(mod.m.MemImports, wasm.Import{
		Module: module, Name: name, Type: wasm.ExternTypeMemory, DescMemory: mt,
	})
	return Index(len(mod.m.MemImports) - 1), nil
}

// ImportGlobal imports a global from module/name and returns its global
// index.
func (mod *Module) ImportGlobal(module, name string, gt GlobalType) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	if mod.globalDeclared {
		return 0, fmt.Errorf("%w: global import %s.%s after a global declaration", ErrOrdering, module, name)
	}
	mod.m.GlobalImports = append(mod.m.GlobalImports, wasm.Import{
		Module: module, Name: name, Type: wasm.ExternTypeGlobal, DescGlobal: gt,
	})
	return Index(len(mod.m.GlobalImports) - 1), nil
}

// DeclareFunction adds a module-defined function of type ft with the given
// locals and finalized body (produced by Expression.Finalize), and returns
// its function index in the combined index space.
func (mod *Module) DeclareFunction(ft FunctionType, locals []ValueType, body []byte) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	typeIndex, err := mod.TypeIndex(ft)
	if err != nil {
		return 0, err
	}
	mod.funcDeclared = true
	mod.m.FunctionSection = append(mod.m.FunctionSection, typeIndex)
	mod.m.CodeSection = append(mod.m.CodeSection, wasm.Code{
		TypeIndex: typeIndex, LocalTypes: locals, Body: body,
	})
	return mod.m.ImportFuncCount() + Index(len(mod.m.FunctionSection)-1), nil
}

// DeclareTable adds a module-defined table and returns its table index.
func (mod *Module) DeclareTable(tt TableType) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	mod.tableDeclared = true
	mod.m.TableSection = append(mod.m.TableSection, wasm.Table{Type: tt})
	return mod.m.ImportTableCount() + Index(len(mod.m.TableSection)-1), nil
}

// DeclareMemory adds a module-defined memory and returns its memory index.
func (mod *Module) DeclareMemory(mt MemoryType) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	mod.memDeclared = true
	mod.m.MemorySection = append(mod.m.MemorySection, wasm.Memory{Type: mt})
	return mod.m.ImportMemoryCount() + Index(len(mod.m.MemorySection)-1), nil
}

// DeclareGlobal adds a module-defined global, initialized by init, and
// returns its global index. init is finalized as a side effect; if its
// result type is statically known (every constant and reference instruction
// except global.get), it must match gt's value type or DeclareGlobal fails
// with ErrTypeMismatch.
func (mod *Module) DeclareGlobal(gt GlobalType, init *Expression) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	if rt, ok := init.ResultType(); ok && rt != gt.ValType {
		return 0, fmt.Errorf("%w: global initializer produces %s, declared type is %s", ErrTypeMismatch, rt, gt.ValType)
	}
	bytes, err := init.Finalize()
	if err != nil {
		return 0, err
	}
	mod.globalDeclared = true
	mod.m.GlobalSection = append(mod.m.GlobalSection, wasm.Global{
		Type: gt, Init: wasm.ConstantExpression{Bytes: bytes},
	})
	return mod.m.ImportGlobalCount() + Index(len(mod.m.GlobalSection)-1), nil
}

// ExportFunction binds name to the function at index funcIndex.
func (mod *Module) ExportFunction(name string, funcIndex Index) error {
	return mod.export(name, wasm.ExternTypeFunc, funcIndex, mod.m.FuncCount())
}

// ExportTable binds name to the table at index tableIndex.
func (mod *Module) ExportTable(name string, tableIndex Index) error {
	return mod.export(name, wasm.ExternTypeTable, tableIndex, mod.m.TableCount())
}

// ExportMemory binds name to the memory at index memIndex.
func (mod *Module) ExportMemory(name string, memIndex Index) error {
	return mod.export(name, wasm.ExternTypeMemory, memIndex, mod.m.MemoryCount())
}

// ExportGlobal binds name to the global at index globalIndex.
func (mod *Module) ExportGlobal(name string, globalIndex Index) error {
	return mod.export(name, wasm.ExternTypeGlobal, globalIndex, mod.m.GlobalCount())
}

func (mod *Module) export(name string, t wasm.ExternType, index, space Index) error {
	if err := mod.checkOpen(); err != nil {
		return err
	}
	if index >= space {
		return fmt.Errorf("%w: export %q index %d exceeds %s space of size %d", ErrIndexOutOfRange, name, index, t, space)
	}
	for _, e := range mod.m.ExportSection {
		if e.Name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateExport, name)
		}
	}
	mod.m.ExportSection = append(mod.m.ExportSection, wasm.Export{Name: name, Type: t, Index: index})
	return nil
}

// ActiveElements adds an active element segment copied into tableIndex at
// the offset evaluated by offset, populated with funcIndices. It returns the
// element segment's index.
func (mod *Module) ActiveElements(tableIndex Index, offset *Expression, funcIndices []Index) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	if tableIndex >= mod.m.TableCount() {
		return 0, fmt.Errorf("%w: element table index %d exceeds table space of size %d", ErrIndexOutOfRange, tableIndex, mod.m.TableCount())
	}
	if rt, ok := offset.ResultType(); ok && rt != wasm.ValueTypeI32 {
		return 0, fmt.Errorf("%w: element offset produces %s, want i32", ErrTypeMismatch, rt)
	}
	offsetBytes, err := offset.Finalize()
	if err != nil {
		return 0, err
	}
	mod.m.ElementSection = append(mod.m.ElementSection, wasm.Element{
		RefType: wasm.ValueTypeFuncref, Mode: wasm.ElementModeActive,
		TableIndex: tableIndex, Offset: wasm.ConstantExpression{Bytes: offsetBytes}, FuncIndices: funcIndices,
	})
	return Index(len(mod.m.ElementSection) - 1), nil
}

// PassiveElements adds a passive element segment, usable only via
// table.init, populated with funcIndices. It returns the element segment's
// index.
func (mod *Module) PassiveElements(funcIndices []Index) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	mod.m.ElementSection = append(mod.m.ElementSection, wasm.Element{
		RefType: wasm.ValueTypeFuncref, Mode: wasm.ElementModePassive, FuncIndices: funcIndices,
	})
	return Index(len(mod.m.ElementSection) - 1), nil
}

// DeclarativeElements adds a declarative element segment, which forward-
// declares funcIndices as legal ref.func targets without copying them into
// any table. It returns the element segment's index.
func (mod *Module) DeclarativeElements(funcIndices []Index) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	mod.m.ElementSection = append(mod.m.ElementSection, wasm.Element{
		RefType: wasm.ValueTypeFuncref, Mode: wasm.ElementModeDeclarative, FuncIndices: funcIndices,
	})
	return Index(len(mod.m.ElementSection) - 1), nil
}

// ActiveData adds an active data segment copied into memIndex at the offset
// evaluated by offset. It returns the data segment's index.
func (mod *Module) ActiveData(memIndex Index, offset *Expression, init []byte) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	if memIndex >= mod.m.MemoryCount() {
		return 0, fmt.Errorf("%w: data memory index %d exceeds memory space of size %d", ErrIndexOutOfRange, memIndex, mod.m.MemoryCount())
	}
	if rt, ok := offset.ResultType(); ok && rt != wasm.ValueTypeI32 {
		return 0, fmt.Errorf("%w: data offset produces %s, want i32", ErrTypeMismatch, rt)
	}
	offsetBytes, err := offset.Finalize()
	if err != nil {
		return 0, err
	}
	mod.m.DataSection = append(mod.m.DataSection, wasm.Data{
		Mode: wasm.DataModeActive, MemIndex: memIndex, Offset: wasm.ConstantExpression{Bytes: offsetBytes}, Init: init,
	})
	return Index(len(mod.m.DataSection) - 1), nil
}

// PassiveData adds a passive data segment, usable only via memory.init. It
// returns the data segment's index.
func (mod *Module) PassiveData(init []byte) (Index, error) {
	if err := mod.checkOpen(); err != nil {
		return 0, err
	}
	mod.m.DataSection = append(mod.m.DataSection, wasm.Data{Mode: wasm.DataModePassive, Init: init})
	return Index(len(mod.m.DataSection) - 1), nil
}

// Assemble freezes the module and flattens it to a complete WebAssembly 2.0
// binary. After Assemble returns, every insertion method on mod fails with
// ErrFrozen; Assemble itself may be called again and will re-encode the same
// frozen state.
func (mod *Module) Assemble() ([]byte, error) {
	if len(mod.m.FunctionSection) != len(mod.m.CodeSection) {
		return nil, fmt.Errorf("%w: %d declared functions but %d code entries", ErrStructure, len(mod.m.FunctionSection), len(mod.m.CodeSection))
	}
	mod.frozen = true
	return binary.EncodeModule(&mod.m), nil
}
