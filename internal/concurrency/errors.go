// File: internal/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "github.com/momentics/wsengine/api"

// ErrExecutorClosed is returned by Submit after Close.
var ErrExecutorClosed = api.ErrExecutorClosed
