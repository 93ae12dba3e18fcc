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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[string]()
	for _, s := range []string{"a", "b", "c"} {
		if _, err := q.Put(s); err != nil {
			t.Fatal(err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}
	q.Close()

	var got []string
	var seqs []uint64
	for {
		v, seq, err := q.Recv(0)
		if errors.Is(err, ErrClosed) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
		seqs = append(seqs, seq)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint64{1, 2, 3}, seqs); diff != "" {
		t.Fatalf("unexpected sequence numbers (-want +got):\n%s", diff)
	}
}

func TestQueue_PutAfterClose(t *testing.T) {
	q := NewQueue[int]()
	q.Close()
	// closing twice is harmless
	q.Close()
	if _, err := q.Put(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestQueue_RecvBlocksUntilClose(t *testing.T) {
	q := NewQueue[int]()
	done := make(chan error, 1)
	go func() {
		_, _, err := q.Recv(0)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("Recv returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	q.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Recv did not observe close")
	}
}

func TestQueue_ObserverPanicPoisons(t *testing.T) {
	q := NewQueue[int]()
	q.SetObserver(func(int, uint64) { panic("boom") })
	if _, err := q.Put(1); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Put(2); err != nil {
		t.Fatal(err)
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected observer panic to propagate")
			}
		}()
		_, _, _ = q.Recv(0)
	}()

	if !q.Poisoned() {
		t.Fatal("expected queue to be poisoned")
	}
	if _, _, err := q.Recv(1); !errors.Is(err, ErrPoisoned) {
		t.Fatalf("expected ErrPoisoned, got %v", err)
	}
}

func TestQueue_PoisonWakesWaiters(t *testing.T) {
	q := NewQueue[int]()

	const waiters = 4
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func(id int) {
			_, _, err := q.Recv(id)
			errs <- err
		}(i)
	}

	// unwind a panic through the critical section
	func() {
		defer func() { _ = recover() }()
		q.mu.Lock()
		clean := false
		defer q.unlock(&clean)
		panic("boom")
	}()

	for i := 0; i < waiters; i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, ErrPoisoned) {
				t.Fatalf("expected ErrPoisoned, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("waiter was not woken by poisoning")
		}
	}
}

// Stress test: every item put by concurrent producers is received exactly once.
func TestQueue_Stress(t *testing.T) {
	q := NewQueue[int]()
	const producers = 8
	const consumers = 32
	const perProducer = 10000
	total := int64(producers * perProducer)

	var putErrors int64
	var consumed int64
	seen := make([]int32, total)

	var wg sync.WaitGroup
	wg.Add(consumers)
	for i := 0; i < consumers; i++ {
		go func(id int) {
			defer wg.Done()
			for {
				v, _, err := q.Recv(id)
				if err != nil {
					return
				}
				atomic.AddInt32(&seen[v], 1)
				atomic.AddInt64(&consumed, 1)
			}
		}(i)
	}

	var pwg sync.WaitGroup
	pwg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(base int) {
			defer pwg.Done()
			for i := 0; i < perProducer; i++ {
				if _, err := q.Put(base*perProducer + i); err != nil {
					atomic.AddInt64(&putErrors, 1)
				}
			}
		}(p)
	}
	pwg.Wait()

	// consumers drain everything queued before they observe the close
	q.Close()
	wg.Wait()

	if pe := atomic.LoadInt64(&putErrors); pe != 0 {
		t.Fatalf("Put returned errors: %d", pe)
	}
	if c := atomic.LoadInt64(&consumed); c != total {
		t.Fatalf("consumed %d, want %d", c, total)
	}
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("item %d received %d times", i, n)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got len %d", q.Len())
	}
}
