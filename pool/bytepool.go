// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync/atomic"

// BytePool recycles byte slices used to encode outbound frames. Buffers
// that grew beyond maxCap are dropped rather than kept alive in the pool.
type BytePool struct {
	pool   *SyncPool[*[]byte]
	maxCap int

	gets    atomic.Int64
	dropped atomic.Int64
}

// NewBytePool returns a pool of buffers with initial capacity size.
func NewBytePool(size, maxCap int) *BytePool {
	if maxCap < size {
		maxCap = size
	}
	return &BytePool{
		pool: NewSyncPool(func() *[]byte {
			b := make([]byte, 0, size)
			return &b
		}),
		maxCap: maxCap,
	}
}

// GetBuffer returns an empty buffer from the pool.
func (b *BytePool) GetBuffer() *[]byte {
	b.gets.Add(1)
	buf := b.pool.Get()
	*buf = (*buf)[:0]
	return buf
}

// PutBuffer returns a buffer to the pool. The caller must not touch it
// afterwards.
func (b *BytePool) PutBuffer(buf *[]byte) {
	if buf == nil {
		return
	}
	if cap(*buf) > b.maxCap {
		b.dropped.Add(1)
		return
	}
	b.pool.Put(buf)
}

// Stats reports how many buffers were handed out and how many were too
// large to recycle.
func (b *BytePool) Stats() (gets, dropped int64) {
	return b.gets.Load(), b.dropped.Load()
}
