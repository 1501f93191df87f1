package wasm

import (
	"github.com/wippyai/simple-wasm/wasm/internal/binary"
)

// LEB128 encoding/decoding utilities for WebAssembly binary format

// ErrOverflow is returned when a LEB128 value exceeds the maximum bit width.
var ErrOverflow = binary.ErrOverflow

// ReadLEB128u decodes an unsigned 32-bit LEB128 value from the front of data
// and returns it with the number of bytes consumed.
func ReadLEB128u(data []byte) (uint32, int, error) {
	r := binary.NewReader(data)
	v, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	return v, r.Position(), nil
}

// ReadLEB128s decodes a signed 32-bit LEB128 value from the front of data
// and returns it with the number of bytes consumed.
func ReadLEB128s(data []byte) (int32, int, error) {
	r := binary.NewReader(data)
	v, err := r.ReadS32()
	if err != nil {
		return 0, 0, err
	}
	return v, r.Position(), nil
}

// AppendLEB128u appends an unsigned LEB128 value to dst.
func AppendLEB128u(dst []byte, v uint32) []byte {
	return binary.AppendU32(dst, v)
}

// AppendLEB128s appends a signed LEB128 value to dst.
func AppendLEB128s(dst []byte, v int32) []byte {
	return binary.AppendS32(dst, v)
}

// EncodeLEB128u encodes an unsigned 32-bit LEB128 value to bytes.
func EncodeLEB128u(v uint32) []byte {
	return binary.AppendU32(nil, v)
}

// EncodeLEB128s encodes a signed 32-bit LEB128 value to bytes.
func EncodeLEB128s(v int32) []byte {
	return binary.AppendS32(nil, v)
}
