// ABOUTME: Single-producer single-consumer lock-free ring buffer
// ABOUTME: Decouples decode-rate production from render-rate consumption
package ringbuf

import "sync/atomic"

// Buffer is a fixed-capacity circular store of interleaved float32 samples
// with exactly one producer (the decode worker) and one consumer (the render
// callback). Read and write positions are free-running counters so no
// blocking primitive is needed anywhere: the consumer sees at most a
// slightly stale write position and vice versa, which only ever
// under-reports availability, never corrupts it.
//
// Capacity is fixed at construction and the backing slice is never
// reallocated while playing.
type Buffer struct {
	buf      []float32
	capacity int64

	readPos  atomic.Int64 // total samples ever read
	writePos atomic.Int64 // total samples ever written
}

// New creates a buffer holding up to capacity samples.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &Buffer{
		buf:      make([]float32, capacity),
		capacity: int64(capacity),
	}
}

// Capacity returns the fixed sample capacity.
func (b *Buffer) Capacity() int {
	return int(b.capacity)
}

// Available returns the number of samples ready to read.
func (b *Buffer) Available() int {
	return int(b.writePos.Load() - b.readPos.Load())
}

// Free returns the number of samples that can be written without
// overtaking the read cursor.
func (b *Buffer) Free() int {
	return int(b.capacity - (b.writePos.Load() - b.readPos.Load()))
}

// Write copies as many samples from p as fit and returns the count.
// Producer-side only.
func (b *Buffer) Write(p []float32) int {
	w := b.writePos.Load()
	free := b.capacity - (w - b.readPos.Load())
	n := int64(len(p))
	if n > free {
		n = free
	}
	if n <= 0 {
		return 0
	}

	start := w % b.capacity
	first := b.capacity - start
	if first > n {
		first = n
	}
	copy(b.buf[start:start+first], p[:first])
	copy(b.buf[:n-first], p[first:n])

	b.writePos.Store(w + n)
	return int(n)
}

// Read copies up to len(p) samples into p and returns the count. It never
// blocks; a short read is the caller's signal to degrade (emit silence).
// Consumer-side only.
func (b *Buffer) Read(p []float32) int {
	r := b.readPos.Load()
	avail := b.writePos.Load() - r
	n := int64(len(p))
	if n > avail {
		n = avail
	}
	if n <= 0 {
		return 0
	}

	start := r % b.capacity
	first := b.capacity - start
	if first > n {
		first = n
	}
	copy(p[:first], b.buf[start:start+first])
	copy(p[first:n], b.buf[:n-first])

	b.readPos.Store(r + n)
	return int(n)
}

// Reset discards all buffered samples. It is NOT safe against a concurrent
// Read or Write; the engine serializes resets with the render path through
// its reset critical section so that a clock reset and a buffer reset are
// observed as a unit.
func (b *Buffer) Reset() {
	b.readPos.Store(0)
	b.writePos.Store(0)
}
