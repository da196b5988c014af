package wasm

// SectionID identifies a top-level module section. Values and canonical
// order are fixed by the Wasm binary format.
type SectionID byte

const (
	SectionIDCustom    SectionID = 0
	SectionIDType      SectionID = 1
	SectionIDImport    SectionID = 2
	SectionIDFunction  SectionID = 3
	SectionIDTable     SectionID = 4
	SectionIDMemory    SectionID = 5
	SectionIDGlobal    SectionID = 6
	SectionIDExport    SectionID = 7
	SectionIDStart     SectionID = 8
	SectionIDElement   SectionID = 9
	SectionIDCode      SectionID = 10
	SectionIDData      SectionID = 11
	SectionIDDataCount SectionID = 12
)

// Magic is the fixed 4-byte preamble of every Wasm binary module.
var Magic = []byte{0x00, 0x61, 0x73, 0x6D}

// Version is the fixed binary format version emitted after Magic.
var Version = []byte{0x01, 0x00, 0x00, 0x00}
