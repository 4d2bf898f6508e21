// File: protocol/handler.go
// Package protocol defines the connection event contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

// EventListener receives connection lifecycle events. All three methods
// run on the connection's receive goroutine, so events for one connection
// are delivered in order and never concurrently.
type EventListener interface {
	// OnOpen runs after the 101 response was flushed and before the first
	// frame is read. A non-nil error aborts the connection.
	OnOpen(c *Connection) error
	// OnMessage receives every completed text message.
	OnMessage(c *Connection, text string)
	// OnClose runs exactly once after an opened connection closed.
	OnClose(c *Connection)
}

// ListenerFuncs adapts plain functions to EventListener. Nil fields are
// no-ops.
type ListenerFuncs struct {
	Open    func(c *Connection) error
	Message func(c *Connection, text string)
	Close   func(c *Connection)
}

func (f ListenerFuncs) OnOpen(c *Connection) error {
	if f.Open == nil {
		return nil
	}
	return f.Open(c)
}

func (f ListenerFuncs) OnMessage(c *Connection, text string) {
	if f.Message != nil {
		f.Message(c, text)
	}
}

func (f ListenerFuncs) OnClose(c *Connection) {
	if f.Close != nil {
		f.Close(c)
	}
}
