// Package varbyte implements the variable-byte integer codec used by the
// compressed postings file: seven payload bits per byte, least significant
// group first, high bit set on every byte except the last.
//
// The byte layout is identical to encoding/binary's unsigned varint, which
// does the actual work here.
package varbyte

import "encoding/binary"

// MaxLen is the longest encoding of a uint32.
const MaxLen = 5

// Append appends the encoding of n to dst.
func Append(dst []byte, n uint32) []byte {
	return binary.AppendUvarint(dst, uint64(n))
}

// Encode returns the encoding of n.
func Encode(n uint32) []byte {
	return Append(make([]byte, 0, MaxLen), n)
}

// Len returns the encoded length of n in bytes.
func Len(n uint32) int {
	l := 1
	for n >= 0x80 {
		n >>= 7
		l++
	}
	return l
}

// Decode reads one value starting at *pos and advances *pos past it.
//
// Reading past the end of buf is not an error: Decode returns 0 and leaves
// *pos at len(buf). Callers bound their loops by block length.
func Decode(buf []byte, pos *int) uint32 {
	if *pos >= len(buf) {
		return 0
	}
	v, n := binary.Uvarint(buf[*pos:])
	switch {
	case n > 0:
		*pos += n
		return uint32(v)
	case n == 0:
		// truncated group
		*pos = len(buf)
		return 0
	default:
		*pos += -n
		return 0
	}
}

// CompressList encodes each value independently and concatenates the results.
func CompressList(values []uint32) []byte {
	out := make([]byte, 0, len(values))
	for _, v := range values {
		out = Append(out, v)
	}
	return out
}

// DecompressList decodes buf until it is exhausted.
func DecompressList(buf []byte) []uint32 {
	out := make([]uint32, 0, len(buf))
	pos := 0
	for pos < len(buf) {
		out = append(out, Decode(buf, &pos))
	}
	return out
}

// DeltaEncode converts an ascending sequence into gaps, the first relative
// to zero.
func DeltaEncode(ids []uint32) []uint32 {
	out := make([]uint32, len(ids))
	var prev uint32
	for i, id := range ids {
		out[i] = id - prev
		prev = id
	}
	return out
}

// DeltaDecode reverses DeltaEncode with a running sum.
func DeltaDecode(gaps []uint32) []uint32 {
	out := make([]uint32, len(gaps))
	var cur uint32
	for i, g := range gaps {
		cur += g
		out[i] = cur
	}
	return out
}
