package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that drops the oldest entry when full.
// Not safe for concurrent use; callers hold their own lock.
type ringBuffer[T any] struct {
	name     string
	buf      []T
	capacity int
	head     int // next write position
	count    int
	dropped  int
	overflow bool // true if any entry was dropped since last drain
}

func newRingBuffer[T any](name string, capacity int) *ringBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer[T]{
		name:     name,
		buf:      make([]T, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer[T]) push(v T) {
	if r.count == r.capacity {
		if !r.overflow {
			log.Printf("mqtt: %s full (%d entries), dropping oldest", r.name, r.capacity)
			r.overflow = true
		}
		// head already points at the oldest entry
		r.buf[r.head] = v
		r.head = (r.head + 1) % r.capacity
		r.dropped++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % r.capacity
	r.count++
}

func (r *ringBuffer[T]) drainAll() []T {
	if r.count == 0 {
		return nil
	}

	result := make([]T, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	var zero T
	for i := 0; i < r.count; i++ {
		idx := (start + i) % r.capacity
		result[i] = r.buf[idx]
		r.buf[idx] = zero
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer[T]) len() int {
	return r.count
}
