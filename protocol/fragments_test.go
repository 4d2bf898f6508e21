package protocol

import "testing"

func TestPendingFragmentsDrain(t *testing.T) {
	p := newPendingFragments()
	p.push(OpcodeBinary, []byte("ab"))
	p.push(OpcodeContinuation, []byte("cd"))
	p.push(OpcodeContinuation, []byte("ef"))

	if p.length() != 3 || p.bytes() != 6 {
		t.Fatalf("length=%d bytes=%d, want 3 and 6", p.length(), p.bytes())
	}
	op, data := p.drain()
	if op != OpcodeBinary || string(data) != "abcdef" {
		t.Fatalf("drain = %v %q", op, data)
	}
	if p.length() != 0 || p.bytes() != 0 {
		t.Fatal("drain did not reset the buffer")
	}

	// A message that starts with CONTINUATION keeps that opcode.
	p.push(OpcodeContinuation, []byte("x"))
	if op, _ := p.drain(); op != OpcodeContinuation {
		t.Fatalf("first opcode = %v", op)
	}
}

func TestPendingFragmentsReset(t *testing.T) {
	p := newPendingFragments()
	p.push(OpcodeText, []byte("hello"))
	p.reset()
	if p.length() != 0 || p.bytes() != 0 || p.first != OpcodeContinuation {
		t.Fatal("reset left state behind")
	}
}
