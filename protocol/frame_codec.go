// File: protocol/frame_codec.go
// Package protocol implements the outbound frame encoder.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server frames are always final and never masked. The masked variant
// exists so tests and tools can script a client peer.

package protocol

import (
	"encoding/binary"
	"io"
)

// FrameHeaderLen returns the header size of a frame carrying n payload
// bytes, excluding any mask key.
func FrameHeaderLen(n int) int {
	switch {
	case n <= 125:
		return 2
	case n <= 0xFFFF:
		return 4
	default:
		return 10
	}
}

// AppendFrame appends an unmasked final frame to dst using the minimal
// length representation and returns the extended slice.
func AppendFrame(dst []byte, op Opcode, payload []byte) []byte {
	dst = appendHeader(dst, true, op, len(payload), false)
	return append(dst, payload...)
}

// EncodeFrame returns a freshly allocated unmasked final frame.
func EncodeFrame(op Opcode, payload []byte) []byte {
	buf := make([]byte, 0, FrameHeaderLen(len(payload))+len(payload))
	return AppendFrame(buf, op, payload)
}

// WriteFrame encodes a server frame and hands it to w in a single Write.
func WriteFrame(w io.Writer, op Opcode, payload []byte) error {
	_, err := w.Write(EncodeFrame(op, payload))
	return err
}

// AppendMaskedFrame appends a client-role frame masked with key. The
// payload slice is left untouched.
func AppendMaskedFrame(dst []byte, op Opcode, fin bool, payload []byte, key [4]byte) []byte {
	dst = appendHeader(dst, fin, op, len(payload), true)
	dst = append(dst, key[:]...)
	start := len(dst)
	dst = append(dst, payload...)
	Mask(dst[start:], key)
	return dst
}

func appendHeader(dst []byte, fin bool, op Opcode, n int, masked bool) []byte {
	b0 := byte(op) & OpcodeBits
	if fin {
		b0 |= FinBit
	}
	var maskBit byte
	if masked {
		maskBit = MaskBit
	}

	switch {
	case n <= 125:
		return append(dst, b0, byte(n)|maskBit)
	case n <= 0xFFFF:
		dst = append(dst, b0, len16Marker|maskBit)
		return binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, b0, len64Marker|maskBit)
		return binary.BigEndian.AppendUint64(dst, uint64(n))
	}
}
