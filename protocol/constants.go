// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket wire protocol constants and the opcode table.

package protocol

import "fmt"

// Opcode is the 4-bit tag identifying the purpose of a frame.
type Opcode byte

const (
	OpcodeContinuation Opcode = 0x0
	OpcodeText         Opcode = 0x1
	OpcodeBinary       Opcode = 0x2
	OpcodeClose        Opcode = 0x8
	OpcodePing         Opcode = 0x9
	OpcodePong         Opcode = 0xA
)

const (
	// Frame limit settings
	MaxControlPayloadLen = 125
	MaxFrameHeaderLen    = 14 // for extended payloads with masking

	// Bit masks
	FinBit     = 0x80
	RsvBits    = 0x70
	OpcodeBits = 0x0F
	MaskBit    = 0x80
	LenBits    = 0x7F

	// Length markers in the 7-bit length field
	len16Marker = 126
	len64Marker = 127

	// Close codes
	CloseNormalClosure     = 1000
	CloseGoingAway         = 1001
	CloseProtocolError     = 1002
	CloseNoStatusRcvd      = 1005
	ClosePolicyViolation   = 1008
	CloseMessageTooBig     = 1009
	CloseInternalServerErr = 1011
)

var opcodeNames = [16]string{
	OpcodeContinuation: "CONTINUATION",
	OpcodeText:         "TEXT",
	OpcodeBinary:       "BINARY",
	OpcodeClose:        "CLOSE",
	OpcodePing:         "PING",
	OpcodePong:         "PONG",
}

// GetOpcode maps a wire value to its Opcode. Reserved and out-of-range
// values yield a FramingError.
func GetOpcode(code byte) (Opcode, error) {
	if code > OpcodeBits || opcodeNames[code] == "" {
		return 0, framingErrorf(ErrUnknownOpcode, "opcode %d", code)
	}
	return Opcode(code), nil
}

// IsControl reports whether o is a control opcode (CLOSE, PING, PONG).
func (o Opcode) IsControl() bool { return o&0x8 != 0 }

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return fmt.Sprintf("Opcode(%d)", byte(o))
}
