package api_test

import (
	"errors"
	"io"
	"net"
	"testing"

	"github.com/momentics/wsengine/api"
)

func TestSocketInterfaceCompliance(t *testing.T) {
	var _ api.Socket = (net.Conn)(nil)
}

func TestTypedErrorsUnwrap(t *testing.T) {
	err := error(api.NewIOError("read frame", io.ErrUnexpectedEOF))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("IOError does not unwrap to its cause: %v", err)
	}
	var ioe *api.IOError
	if !errors.As(err, &ioe) || ioe.Op != "read frame" {
		t.Fatalf("errors.As failed for IOError: %v", err)
	}
	if ioe.Code() != api.ErrCodeIO {
		t.Errorf("Code() = %v, want %v", ioe.Code(), api.ErrCodeIO)
	}
	if got, want := err.Error(), "read frame: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsProtocolError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{api.NewHandshakeError("not an upgrade request", nil), true},
		{api.NewFramingError("unknown opcode", nil), true},
		{api.NewIOError("write", io.ErrClosedPipe), false},
		{api.NewCallbackError("onMessage", errors.New("boom")), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := api.IsProtocolError(c.err); got != c.want {
			t.Errorf("IsProtocolError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestStructuredErrorContext(t *testing.T) {
	e := api.NewError(api.ErrCodeInvalidArgument, "bad port").WithContext("port", -1)
	if got, want := e.Error(), "bad port (context: map[port:-1])"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConnStateString(t *testing.T) {
	if api.StateOpen.String() != "open" || api.StateClosed.String() != "closed" {
		t.Fatal("unexpected ConnState names")
	}
	if api.ConnState(42).String() != "unknown" {
		t.Fatal("out-of-range ConnState must stringify as unknown")
	}
}
