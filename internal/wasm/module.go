package wasm

// Module is the in-memory collection of a Wasm module's entities, held in
// the ordered, append-only vectors the binary format itself sections by
// kind. Imports are tracked per-kind (not as one shared vector) because
// each kind's combined index space places its imports before its
// declarations, and because the import section serializes the four kinds
// back-to-back in a fixed order.
//
// Module carries no synchronization: a single goroutine owns it for its
// entire construction-to-Assemble lifetime.
type Module struct {
	TypeSection []FunctionType

	FuncImports   []Import
	TableImports  []Import
	MemImports    []Import
	GlobalImports []Import

	FunctionSection []Index // type index per declared function, parallel to CodeSection
	TableSection    []Table
	MemorySection   []Memory
	GlobalSection   []Global
	ExportSection   []Export
	ElementSection  []Element
	CodeSection     []Code
	DataSection     []Data
}

// ImportFuncCount returns the number of function imports, i.e. the
// func-index of the first non-imported function declaration.
func (m *Module) ImportFuncCount() uint32 { return uint32(len(m.FuncImports)) }

// ImportTableCount returns the number of table imports.
func (m *Module) ImportTableCount() uint32 { return uint32(len(m.TableImports)) }

// ImportMemoryCount returns the number of memory imports.
func (m *Module) ImportMemoryCount() uint32 { return uint32(len(m.MemImports)) }

// ImportGlobalCount returns the number of global imports.
func (m *Module) ImportGlobalCount() uint32 { return uint32(len(m.GlobalImports)) }

// FuncCount is the size of the combined function index space.
func (m *Module) FuncCount() uint32 { return m.ImportFuncCount() + uint32(len(m.FunctionSection)) }

// TableCount is the size of the combined table index space.
func (m *Module) TableCount() uint32 { return m.ImportTableCount() + uint32(len(m.TableSection)) }

// MemoryCount is the size of the combined memory index space.
func (m *Module) MemoryCount() uint32 { return m.ImportMemoryCount() + uint32(len(m.MemorySection)) }

// GlobalCount is the size of the combined global index space.
func (m *Module) GlobalCount() uint32 { return m.ImportGlobalCount() + uint32(len(m.GlobalSection)) }
