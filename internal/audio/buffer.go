// Package audio provides the bounded buffer that decouples socket message
// arrival from recognizer consumption. The dispatcher is the producer, the
// transcription pipeline the consumer; closing the buffer is the explicit
// end-of-input signal for the recognizer stream.
package audio

import (
	"sync"

	"github.com/eleven-am/relay-backend/internal/shared"
)

// Silence is a minimal payload written by the inactivity monitor to keep the
// recognizer's network stream from idling out during quiet periods.
var Silence = []byte{0xF8, 0xFF, 0xFE}

const defaultCapacity = 256

type Buffer struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
	// dropped counts chunks discarded because the consumer fell behind.
	dropped int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{ch: make(chan []byte, capacity)}
}

// Write enqueues one audio chunk. Chunks are delivered in write order. When
// the consumer falls behind and the queue is full the chunk is dropped rather
// than blocking the socket read loop.
func (b *Buffer) Write(chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return shared.ErrBufferClosed
	}

	select {
	case b.ch <- chunk:
	default:
		b.dropped++
	}
	return nil
}

// Chunks is the consumer side. The channel is closed when the buffer is
// closed and all pending chunks have been drained.
func (b *Buffer) Chunks() <-chan []byte {
	return b.ch
}

// Close ends the input. Safe to call multiple times and concurrently with
// Write.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}

func (b *Buffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
