// Package leb128 implements the LEB128 variable-length integer encoding used
// throughout the WebAssembly binary format.
//
// Only encoding is implemented here: this module never decodes a Wasm
// binary, so no Load/Decode counterparts exist.
package leb128

// AppendUint32 appends v to dst using unsigned LEB128 and returns the
// extended slice.
func AppendUint32(dst []byte, v uint32) []byte {
	return appendUint64(dst, uint64(v))
}

// AppendUint64 appends v to dst using unsigned LEB128 and returns the
// extended slice.
func AppendUint64(dst []byte, v uint64) []byte {
	return appendUint64(dst, v)
}

func appendUint64(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}

// AppendInt32 appends v to dst using signed LEB128 and returns the extended
// slice.
func AppendInt32(dst []byte, v int32) []byte {
	return appendInt64(dst, int64(v))
}

// AppendInt64 appends v to dst using signed LEB128 and returns the extended
// slice.
func AppendInt64(dst []byte, v int64) []byte {
	return appendInt64(dst, v)
}

// AppendInt33 appends v, a value known to fit a signed 33-bit range, using
// signed LEB128. This is used for block-type immediates that encode a type
// index as a positive s33.
func AppendInt33(dst []byte, v int64) []byte {
	return appendInt64(dst, v)
}

func appendInt64(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			dst = append(dst, b)
			return dst
		}
		dst = append(dst, b|0x80)
	}
}

// EncodeUint32 returns v encoded as unsigned LEB128 in a freshly allocated
// slice.
func EncodeUint32(v uint32) []byte { return AppendUint32(nil, v) }

// EncodeUint64 returns v encoded as unsigned LEB128 in a freshly allocated
// slice.
func EncodeUint64(v uint64) []byte { return AppendUint64(nil, v) }

// EncodeInt32 returns v encoded as signed LEB128 in a freshly allocated
// slice.
func EncodeInt32(v int32) []byte { return AppendInt32(nil, v) }

// EncodeInt64 returns v encoded as signed LEB128 in a freshly allocated
// slice.
func EncodeInt64(v int64) []byte { return AppendInt64(nil, v) }
