// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket frame decoding and masking logic.
//
// Decoding reads straight from the connection's buffered reader, one frame
// at a time, and accepts both masked and unmasked frames.

package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/momentics/wsengine/api"
)

// MaxFramePayload is the largest payload a single frame may declare. Larger
// 64-bit lengths are rejected before any buffer is allocated.
const MaxFramePayload = math.MaxInt32

// directReadLimit bounds the payload size read into an exactly sized
// buffer. Longer payloads grow as bytes arrive so a peer announcing a huge
// length cannot force a huge allocation up front.
const directReadLimit = 64 << 10

// FrameHeader is the decoded fixed part of a frame.
type FrameHeader struct {
	Fin        bool
	Opcode     Opcode
	Masked     bool
	MaskKey    [4]byte
	PayloadLen int64
}

// Frame is a decoded WebSocket frame with an unmasked payload.
type Frame struct {
	FrameHeader
	Payload []byte
}

// ReadFrameHeader decodes the header of the next frame from r. maxPayload
// caps the declared length; values <= 0 mean MaxFramePayload.
func ReadFrameHeader(r io.Reader, maxPayload int64) (FrameHeader, error) {
	var h FrameHeader
	if maxPayload <= 0 || maxPayload > MaxFramePayload {
		maxPayload = MaxFramePayload
	}

	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return h, readError(err, "frame header", false)
	}

	h.Fin = hdr[0]&FinBit != 0
	if rsv := hdr[0] & RsvBits; rsv != 0 {
		return h, framingErrorf(ErrReservedBits, "rsv %#x", rsv>>4)
	}
	op, err := GetOpcode(hdr[0] & OpcodeBits)
	if err != nil {
		return h, err
	}
	h.Opcode = op
	h.Masked = hdr[1]&MaskBit != 0

	switch n := hdr[1] & LenBits; n {
	case len16Marker:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return h, readError(err, "extended length", true)
		}
		h.PayloadLen = int64(binary.BigEndian.Uint16(ext[:]))
	case len64Marker:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return h, readError(err, "extended length", true)
		}
		v := binary.BigEndian.Uint64(ext[:])
		if v > uint64(maxPayload) {
			return h, framingErrorf(ErrPayloadTooLarge, "length %d", v)
		}
		h.PayloadLen = int64(v)
	default:
		h.PayloadLen = int64(n)
	}
	if h.PayloadLen > maxPayload {
		return h, framingErrorf(ErrPayloadTooLarge, "length %d", h.PayloadLen)
	}

	if h.Masked {
		if _, err := io.ReadFull(r, h.MaskKey[:]); err != nil {
			return h, readError(err, "mask key", true)
		}
	}
	return h, nil
}

// ReadFrame decodes one complete frame from r, positioned at a frame
// boundary. The returned payload is unmasked and owned by the caller.
func ReadFrame(r io.Reader, maxPayload int64) (*Frame, error) {
	h, err := ReadFrameHeader(r, maxPayload)
	if err != nil {
		return nil, err
	}
	payload, err := readPayload(r, h.PayloadLen)
	if err != nil {
		return nil, readError(err, "payload", true)
	}
	if h.Masked {
		Mask(payload, h.MaskKey)
	}
	return &Frame{FrameHeader: h, Payload: payload}, nil
}

func readPayload(r io.Reader, n int64) ([]byte, error) {
	if n <= directReadLimit {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	var b bytes.Buffer
	b.Grow(directReadLimit)
	if _, err := io.CopyN(&b, r, n); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return b.Bytes(), nil
}

// Mask XORs payload byte i with key[i%4] in place. Applying it twice with
// the same key restores the input.
func Mask(payload []byte, key [4]byte) {
	for i := range payload {
		payload[i] ^= key[i&3]
	}
}

// readError classifies a failed read. A clean EOF at a frame boundary is
// the peer going away; running dry inside a frame is a framing violation.
func readError(err error, what string, midFrame bool) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || (midFrame && errors.Is(err, io.EOF)) {
		return framingErrorf(ErrShortRead, "%s", what)
	}
	return api.NewIOError("read "+what, err)
}
