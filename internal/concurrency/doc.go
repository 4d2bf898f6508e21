// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for the WebSocket engine. The Executor is the
// default api.Executor the server listener submits connection tasks to;
// applications may inject their own implementation instead.
package concurrency
