// File: protocol/fragments.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reassembly buffer for fragmented messages. Owned by exactly one
// receive loop; it is never shared and needs no locking.

package protocol

import "github.com/eapache/queue"

// pendingFragments keeps fragment payloads in arrival order until the
// final frame of the message shows up.
type pendingFragments struct {
	q     *queue.Queue
	first Opcode
	size  int64
}

func newPendingFragments() *pendingFragments {
	return &pendingFragments{q: queue.New()}
}

// push records one fragment. The opcode of the first fragment decides how
// the finished message is delivered.
func (p *pendingFragments) push(op Opcode, payload []byte) {
	if p.q.Length() == 0 {
		p.first = op
	}
	p.q.Add(payload)
	p.size += int64(len(payload))
}

func (p *pendingFragments) length() int { return p.q.Length() }

func (p *pendingFragments) bytes() int64 { return p.size }

// drain concatenates all fragments in order and resets the buffer.
func (p *pendingFragments) drain() (Opcode, []byte) {
	op := p.first
	out := make([]byte, 0, p.size)
	for p.q.Length() > 0 {
		out = append(out, p.q.Remove().([]byte)...)
	}
	p.reset()
	return op, out
}

// reset discards buffered fragments.
func (p *pendingFragments) reset() {
	for p.q.Length() > 0 {
		p.q.Remove()
	}
	p.first = OpcodeContinuation
	p.size = 0
}
