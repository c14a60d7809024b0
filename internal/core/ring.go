package core

import "github.com/dkeye/Duet/internal/domain"

const DefaultHistorySize = 100

// MessageRing keeps the most recent messages, dropping the oldest on overflow.
type MessageRing struct {
	buf   []domain.Message
	start int
	size  int
}

func NewMessageRing(capacity int) *MessageRing {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &MessageRing{buf: make([]domain.Message, capacity)}
}

// Push appends m and reports whether the oldest entry was evicted.
func (r *MessageRing) Push(m domain.Message) bool {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = m
		r.size++
		return false
	}
	r.buf[r.start] = m
	r.start = (r.start + 1) % len(r.buf)
	return true
}

// Items returns a copy, oldest first.
func (r *MessageRing) Items() []domain.Message {
	return r.Last(r.size)
}

// Last returns up to n most recent messages, oldest first.
func (r *MessageRing) Last(n int) []domain.Message {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return []domain.Message{}
	}
	out := make([]domain.Message, 0, n)
	for i := r.size - n; i < r.size; i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}
