// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pool

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned by Put once the queue has been closed and by Recv
	// once it is closed and drained.
	ErrClosed = errors.New("queue closed")
	// ErrPoisoned is returned by Recv after a panic unwound while the queue lock was held.
	ErrPoisoned = errors.New("queue poisoned")
)

// noCopy may be embedded into structs which must not be copied after first use.
// go vet will warn on accidental copies (it looks for Lock methods).
type noCopy struct{}

func (*noCopy) Lock() {}

// node for single-lock queue (plain pointer; protected by mu)
type node[T any] struct {
	val  T
	seq  uint64
	next *node[T]
}

// Queue is an unbounded, single-mutex MPMC FIFO queue.
// The mutex is only held while an item is appended or removed. Receivers waiting
// on an empty queue release it through the condition variable.
type Queue[T any] struct {
	noCopy noCopy

	mu       sync.Mutex
	cond     *sync.Cond
	head     *node[T] // sentinel
	tail     *node[T]
	closed   bool
	poisoned bool
	lastSeq  uint64
	size     int64 // queued count, read atomically by Len

	// observer is called under mu for every dequeued item
	observer func(receiver int, seq uint64)
}

// NewQueue constructs a new queue.
func NewQueue[T any]() *Queue[T] {
	s := &node[T]{}
	q := &Queue[T]{head: s, tail: s}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// SetObserver installs fn as the receive observer. fn runs while the queue lock is held,
// so it sees items in exact dequeue order. A panic in fn poisons the queue.
func (q *Queue[T]) SetObserver(fn func(receiver int, seq uint64)) {
	q.mu.Lock()
	q.observer = fn
	q.mu.Unlock()
}

// Put appends v to the tail of the queue and returns its sequence number.
func (q *Queue[T]) Put(v T) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrClosed
	}
	q.lastSeq++
	n := &node[T]{val: v, seq: q.lastSeq}
	q.tail.next = n
	q.tail = n
	atomic.AddInt64(&q.size, 1)
	// signal one waiter (consumer checks under mu)
	q.cond.Signal()
	return n.seq, nil
}

// Recv removes the head of the queue, blocking while the queue is empty and open.
// receiver identifies the caller to the observer.
func (q *Queue[T]) Recv(receiver int) (v T, seq uint64, err error) {
	q.mu.Lock()
	clean := false
	defer q.unlock(&clean)

	for q.head.next == nil && !q.closed && !q.poisoned {
		q.cond.Wait()
	}
	if q.poisoned {
		clean = true
		return v, 0, ErrPoisoned
	}
	// empty + closed => done
	if q.head.next == nil {
		clean = true
		return v, 0, ErrClosed
	}

	n := q.head.next
	q.head.next = n.next
	if q.head.next == nil {
		q.tail = q.head
	}
	atomic.AddInt64(&q.size, -1)
	if q.observer != nil {
		q.observer(receiver, n.seq)
	}
	clean = true
	return n.val, n.seq, nil
}

// unlock releases mu. If the critical section did not complete, a panic is
// unwinding through it and the queue state can no longer be trusted.
func (q *Queue[T]) unlock(clean *bool) {
	if !*clean {
		q.poisoned = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return int(atomic.LoadInt64(&q.size))
}

// Close marks the queue closed. Queued items remain receivable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Poisoned reports whether the queue has been poisoned.
func (q *Queue[T]) Poisoned() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.poisoned
}
