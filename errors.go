package wasmforge

import "errors"

// Sentinel errors identifying the kinds of mistake the assembler and
// expression builder detect. Use errors.Is to test for a specific kind;
// every error returned by this package wraps one of these.
var (
	// ErrIndexOutOfRange means a function, table, memory, or global index
	// passed to a Module export, element, or data method exceeded the
	// currently known space of its kind. Index immediates of instructions
	// (function, type, table, global, data, element, local) are not
	// range-checked; a branch label beyond the nesting depth fails with
	// ErrStructure instead.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrOrdering means an import operation was attempted after a
	// declaration of the same entity kind.
	ErrOrdering = errors.New("import after declaration of the same kind")

	// ErrStructure means an expression builder was misused: end without
	// a matching opener, else outside an if, a branch target beyond the
	// current nesting depth, an emit after finalization, finalizing
	// twice, or finalizing with a block, loop, or if still open.
	ErrStructure = errors.New("malformed instruction structure")

	// ErrTypeMismatch means a global or element initializer's evaluated
	// type does not match its declared type.
	ErrTypeMismatch = errors.New("initializer type mismatch")

	// ErrEncode means an integer operand fell outside its representable
	// range.
	ErrEncode = errors.New("value out of encodable range")

	// ErrDuplicateExport means two exports share a name.
	ErrDuplicateExport = errors.New("duplicate export name")

	// ErrFrozen means an insertion was attempted after Assemble froze
	// the module.
	ErrFrozen = errors.New("module is frozen")
)
