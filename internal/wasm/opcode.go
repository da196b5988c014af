package wasm

// Opcode is a single-byte WebAssembly instruction opcode. A handful of
// instructions (the saturating truncation family and the bulk memory and
// table operations) are prefixed by
// OpcodeMiscPrefix and a second, LEB128-encoded opcode; those live in
// OpcodeMisc below rather than in this byte-sized enumeration.
type Opcode byte

// Control instructions.
const (
	OpcodeUnreachable  Opcode = 0x00
	OpcodeNop          Opcode = 0x01
	OpcodeBlock        Opcode = 0x02
	OpcodeLoop         Opcode = 0x03
	OpcodeIf           Opcode = 0x04
	OpcodeElse         Opcode = 0x05
	OpcodeEnd          Opcode = 0x0B
	OpcodeBr           Opcode = 0x0C
	OpcodeBrIf         Opcode = 0x0D
	OpcodeBrTable      Opcode = 0x0E
	OpcodeReturn       Opcode = 0x0F
	OpcodeCall         Opcode = 0x10
	OpcodeCallIndirect Opcode = 0x11
)

// Reference instructions.
const (
	OpcodeRefNull   Opcode = 0xD0
	OpcodeRefIsNull Opcode = 0xD1
	OpcodeRefFunc   Opcode = 0xD2
)

// Parametric instructions.
const (
	OpcodeDrop   Opcode = 0x1A
	OpcodeSelect Opcode = 0x1B
	// OpcodeTypedSelect is `select t*`, the form that carries an explicit
	// result-type immediate.
	OpcodeTypedSelect Opcode = 0x1C
)

// Variable instructions.
const (
	OpcodeLocalGet  Opcode = 0x20
	OpcodeLocalSet  Opcode = 0x21
	OpcodeLocalTee  Opcode = 0x22
	OpcodeGlobalGet Opcode = 0x23
	OpcodeGlobalSet Opcode = 0x24
)

// Table instructions (single-byte forms; the multi-table-op family is
// prefixed, see OpcodeMisc below).
const (
	OpcodeTableGet Opcode = 0x25
	OpcodeTableSet Opcode = 0x26
)

// Memory instructions.
const (
	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Load    Opcode = 0x29
	OpcodeF32Load    Opcode = 0x2A
	OpcodeF64Load    Opcode = 0x2B
	OpcodeI32Load8S  Opcode = 0x2C
	OpcodeI32Load8U  Opcode = 0x2D
	OpcodeI32Load16S Opcode = 0x2E
	OpcodeI32Load16U Opcode = 0x2F
	OpcodeI64Load8S  Opcode = 0x30
	OpcodeI64Load8U  Opcode = 0x31
	OpcodeI64Load16S Opcode = 0x32
	OpcodeI64Load16U Opcode = 0x33
	OpcodeI64Load32S Opcode = 0x34
	OpcodeI64Load32U Opcode = 0x35
	OpcodeI32Store   Opcode = 0x36
	OpcodeI64Store   Opcode = 0x37
	OpcodeF32Store   Opcode = 0x38
	OpcodeF64Store   Opcode = 0x39
	OpcodeI32Store8  Opcode = 0x3A
	OpcodeI32Store16 Opcode = 0x3B
	OpcodeI64Store8  Opcode = 0x3C
	OpcodeI64Store16 Opcode = 0x3D
	OpcodeI64Store32 Opcode = 0x3E
	OpcodeMemorySize Opcode = 0x3F
	OpcodeMemoryGrow Opcode = 0x40
)

// Numeric constant instructions.
const (
	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44
)

// Numeric comparison and arithmetic instructions. No immediates.
const (
	OpcodeI32Eqz  Opcode = 0x45
	OpcodeI32Eq   Opcode = 0x46
	OpcodeI32Ne   Opcode = 0x47
	OpcodeI32LtS  Opcode = 0x48
	OpcodeI32LtU  Opcode = 0x49
	OpcodeI32GtS  Opcode = 0x4A
	OpcodeI32GtU  Opcode = 0x4B
	OpcodeI32LeS  Opcode = 0x4C
	OpcodeI32LeU  Opcode = 0x4D
	OpcodeI32GeS  Opcode = 0x4E
	OpcodeI32GeU  Opcode = 0x4F
	OpcodeI64Eqz  Opcode = 0x50
	OpcodeI64Eq   Opcode = 0x51
	OpcodeI64Ne   Opcode = 0x52
	OpcodeI64LtS  Opcode = 0x53
	OpcodeI64LtU  Opcode = 0x54
	OpcodeI64GtS  Opcode = 0x55
	OpcodeI64GtU  Opcode = 0x56
	OpcodeI64LeS  Opcode = 0x57
	OpcodeI64LeU  Opcode = 0x58
	OpcodeI64GeS  Opcode = 0x59
	OpcodeI64GeU  Opcode = 0x5A
	OpcodeF32Eq   Opcode = 0x5B
	OpcodeF32Ne   Opcode = 0x5C
	OpcodeF32Lt   Opcode = 0x5D
	OpcodeF32Gt   Opcode = 0x5E
	OpcodeF32Le   Opcode = 0x5F
	OpcodeF32Ge   Opcode = 0x60
	OpcodeF64Eq   Opcode = 0x61
	OpcodeF64Ne   Opcode = 0x62
	OpcodeF64Lt   Opcode = 0x63
	OpcodeF64Gt   Opcode = 0x64
	OpcodeF64Le   Opcode = 0x65
	OpcodeF64Ge   Opcode = 0x66
)

const (
	OpcodeI32Clz    Opcode = 0x67
	OpcodeI32Ctz    Opcode = 0x68
	OpcodeI32Popcnt Opcode = 0x69
	OpcodeI32Add    Opcode = 0x6A
	OpcodeI32Sub    Opcode = 0x6B
	OpcodeI32Mul    Opcode = 0x6C
	OpcodeI32DivS   Opcode = 0x6D
	OpcodeI32DivU   Opcode = 0x6E
	OpcodeI32RemS   Opcode = 0x6F
	OpcodeI32RemU   Opcode = 0x70
	OpcodeI32And    Opcode = 0x71
	OpcodeI32Or     Opcode = 0x72
	OpcodeI32Xor    Opcode = 0x73
	OpcodeI32Shl    Opcode = 0x74
	OpcodeI32ShrS   Opcode = 0x75
	OpcodeI32ShrU   Opcode = 0x76
	OpcodeI32Rotl   Opcode = 0x77
	OpcodeI32Rotr   Opcode = 0x78

	OpcodeI64Clz    Opcode = 0x79
	OpcodeI64Ctz    Opcode = 0x7A
	OpcodeI64Popcnt Opcode = 0x7B
	OpcodeI64Add    Opcode = 0x7C
	OpcodeI64Sub    Opcode = 0x7D
	OpcodeI64Mul    Opcode = 0x7E
	OpcodeI64DivS   Opcode = 0x7F
	OpcodeI64DivU   Opcode = 0x80
	OpcodeI64RemS   Opcode = 0x81
	OpcodeI64RemU   Opcode = 0x82
	OpcodeI64And    Opcode = 0x83
	OpcodeI64Or     Opcode = 0x84
	OpcodeI64Xor    Opcode = 0x85
	OpcodeI64Shl    Opcode = 0x86
	OpcodeI64ShrS   Opcode = 0x87
	OpcodeI64ShrU   Opcode = 0x88
	OpcodeI64Rotl   Opcode = 0x89
	OpcodeI64Rotr   Opcode = 0x8A

	OpcodeF32Abs      Opcode = 0x8B
	OpcodeF32Neg      Opcode = 0x8C
	OpcodeF32Ceil     Opcode = 0x8D
	OpcodeF32Floor    Opcode = 0x8E
	OpcodeF32Trunc    Opcode = 0x8F
	OpcodeF32Nearest  Opcode = 0x90
	OpcodeF32Sqrt     Opcode = 0x91
	OpcodeF32Add      Opcode = 0x92
	OpcodeF32Sub      Opcode = 0x93
	OpcodeF32Mul      Opcode = 0x94
	OpcodeF32Div      Opcode = 0x95
	OpcodeF32Min      Opcode = 0x96
	OpcodeF32Max      Opcode = 0x97
	OpcodeF32Copysign Opcode = 0x98

	OpcodeF64Abs      Opcode = 0x99
	OpcodeF64Neg      Opcode = 0x9A
	OpcodeF64Ceil     Opcode = 0x9B
	OpcodeF64Floor    Opcode = 0x9C
	OpcodeF64Trunc    Opcode = 0x9D
	OpcodeF64Nearest  Opcode = 0x9E
	OpcodeF64Sqrt     Opcode = 0x9F
	OpcodeF64Add      Opcode = 0xA0
	OpcodeF64Sub      Opcode = 0xA1
	OpcodeF64Mul      Opcode = 0xA2
	OpcodeF64Div      Opcode = 0xA3
	OpcodeF64Min      Opcode = 0xA4
	OpcodeF64Max      Opcode = 0xA5
	OpcodeF64Copysign Opcode = 0xA6
)

// Numeric conversion instructions.
const (
	OpcodeI32WrapI64       Opcode = 0xA7
	OpcodeI32TruncF32S     Opcode = 0xA8
	OpcodeI32TruncF32U     Opcode = 0xA9
	OpcodeI32TruncF64S     Opcode = 0xAA
	OpcodeI32TruncF64U     Opcode = 0xAB
	OpcodeI64ExtendI32S    Opcode = 0xAC
	OpcodeI64ExtendI32U    Opcode = 0xAD
	OpcodeI64TruncF32S     Opcode = 0xAE
	OpcodeI64TruncF32U     Opcode = 0xAF
	OpcodeI64TruncF64S     Opcode = 0xB0
	OpcodeI64TruncF64U     Opcode = 0xB1
	OpcodeF32ConvertI32S   Opcode = 0xB2
	OpcodeF32ConvertI32U   Opcode = 0xB3
	OpcodeF32ConvertI64S   Opcode = 0xB4
	OpcodeF32ConvertI64U   Opcode = 0xB5
	OpcodeF32DemoteF64     Opcode = 0xB6
	OpcodeF64ConvertI32S   Opcode = 0xB7
	OpcodeF64ConvertI32U   Opcode = 0xB8
	OpcodeF64ConvertI64S   Opcode = 0xB9
	OpcodeF64ConvertI64U   Opcode = 0xBA
	OpcodeF64PromoteF32    Opcode = 0xBB
	OpcodeI32ReinterpretF32 Opcode = 0xBC
	OpcodeI64ReinterpretF64 Opcode = 0xBD
	OpcodeF32ReinterpretI32 Opcode = 0xBE
	OpcodeF64ReinterpretI64 Opcode = 0xBF
)

// Sign extension instructions (the "sign-extension operators" proposal,
// folded into the Wasm 2.0 baseline).
const (
	OpcodeI32Extend8S  Opcode = 0xC0
	OpcodeI32Extend16S Opcode = 0xC1
	OpcodeI64Extend8S  Opcode = 0xC2
	OpcodeI64Extend16S Opcode = 0xC3
	OpcodeI64Extend32S Opcode = 0xC4
)

// OpcodeMiscPrefix introduces the two-byte instructions: saturating
// truncation, and the bulk-memory/reference-types table and memory
// operations. The second byte is an unsigned LEB128 opcode from OpcodeMisc.
const OpcodeMiscPrefix Opcode = 0xFC

// OpcodeMisc is the second, LEB128-encoded opcode of an OpcodeMiscPrefix
// instruction.
type OpcodeMisc uint32

const (
	OpcodeMiscI32TruncSatF32S OpcodeMisc = 0
	OpcodeMiscI32TruncSatF32U OpcodeMisc = 1
	OpcodeMiscI32TruncSatF64S OpcodeMisc = 2
	OpcodeMiscI32TruncSatF64U OpcodeMisc = 3
	OpcodeMiscI64TruncSatF32S OpcodeMisc = 4
	OpcodeMiscI64TruncSatF32U OpcodeMisc = 5
	OpcodeMiscI64TruncSatF64S OpcodeMisc = 6
	OpcodeMiscI64TruncSatF64U OpcodeMisc = 7

	OpcodeMiscMemoryInit OpcodeMisc = 8
	OpcodeMiscDataDrop   OpcodeMisc = 9
	OpcodeMiscMemoryCopy OpcodeMisc = 10
	OpcodeMiscMemoryFill OpcodeMisc = 11
	OpcodeMiscTableInit  OpcodeMisc = 12
	OpcodeMiscElemDrop   OpcodeMisc = 13
	OpcodeMiscTableCopy  OpcodeMisc = 14
	OpcodeMiscTableGrow  OpcodeMisc = 15
	OpcodeMiscTableSize  OpcodeMisc = 16
	OpcodeMiscTableFill  OpcodeMisc = 17
)

// BlockTypeEmpty is the block-type immediate byte for a block with no
// parameters and no results.
const BlockTypeEmpty byte = 0x40

// ElemKindFuncRef is the only defined "elemkind" byte used by the compact
// element-segment encodings that carry one (flags 1-3 in the binary format;
// flag 0 implies funcref).
const ElemKindFuncRef byte = 0x00
