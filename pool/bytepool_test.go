package pool_test

import (
	"testing"

	"github.com/momentics/wsengine/pool"
)

func TestBytePoolReturnsEmptyBuffers(t *testing.T) {
	p := pool.NewBytePool(64, 1024)
	buf := p.GetBuffer()
	if len(*buf) != 0 || cap(*buf) < 64 {
		t.Fatalf("len=%d cap=%d", len(*buf), cap(*buf))
	}
	*buf = append(*buf, "payload"...)
	p.PutBuffer(buf)

	again := p.GetBuffer()
	if len(*again) != 0 {
		t.Fatalf("recycled buffer not reset: len=%d", len(*again))
	}
}

func TestBytePoolDropsOversizedBuffers(t *testing.T) {
	p := pool.NewBytePool(16, 32)
	buf := p.GetBuffer()
	*buf = make([]byte, 0, 4096)
	p.PutBuffer(buf)
	p.PutBuffer(nil)

	gets, dropped := p.Stats()
	if gets != 1 || dropped != 1 {
		t.Fatalf("gets=%d dropped=%d", gets, dropped)
	}
}

func TestSyncPool(t *testing.T) {
	created := 0
	sp := pool.NewSyncPool(func() *int {
		created++
		v := 0
		return &v
	})
	v := sp.Get()
	*v = 7
	sp.Put(v)
	_ = sp.Get()
	if created < 1 {
		t.Fatal("creator never called")
	}
}
