package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalLockerSerializes(t *testing.T) {
	l := NewLocalLocker()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Acquire(context.Background(), "student:1")
			if err != nil {
				t.Error(err)
				return
			}
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max holders = %d, want 1", maxInside)
	}
	if len(l.locks) != 0 {
		t.Errorf("released locks should be forgotten, %d left", len(l.locks))
	}
}

func TestLocalLockerTimeout(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Acquire(context.Background(), "session:7")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "session:7"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	other, err := l.Acquire(context.Background(), "session:8")
	if err != nil {
		t.Fatalf("different keys must not block: %v", err)
	}
	other()

	unlock()
	unlock()
	again, err := l.Acquire(context.Background(), "session:7")
	if err != nil {
		t.Fatal(err)
	}
	again()
}
