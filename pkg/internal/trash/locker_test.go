package trash_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/trashbin/pkg/internal/trash"
)

func TestLockerSerializesSameUser(t *testing.T) {
	l := trash.NewLocker(0)

	unlock := l.Lock("alice")

	if _, ok := l.TryLock("alice"); ok {
		t.Fatal("TryLock succeeded while alice is locked")
	}

	unlock()

	unlock, ok := l.TryLock("alice")
	if !ok {
		t.Fatal("TryLock failed after unlock")
	}

	unlock()
}

func TestLockerConcurrentCounter(t *testing.T) {
	l := trash.NewLocker(4)

	var (
		wg      sync.WaitGroup
		counter int
	)

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := l.Lock("bob")
			defer unlock()

			counter++
		}()
	}

	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestGuardRateLimit(t *testing.T) {
	g := trash.NewGuard(trash.GuardOptions{RPS: 1, Burst: 1})

	if err := g.Do(context.Background(), func() error { return nil }); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	called := false

	err := g.Do(ctx, func() error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Errorf("second call within the same second: err = %v, called = %v", err, called)
	}
}

func TestGuardPassesErrorsThrough(t *testing.T) {
	g := trash.NewGuard(trash.GuardOptions{})
	want := errors.New("boom")

	if err := g.Do(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("err = %v", err)
	}

	if g.Open() {
		t.Error("guard without breaker reports open")
	}
}
