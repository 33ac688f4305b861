package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	logger := zerolog.Nop()

	s, err := scheduler.NewScheduler(&logger)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("condition not met before deadline")
}

func TestRunNow(t *testing.T) {
	s := newScheduler(t)

	var calls atomic.Int32

	err := s.AddCron(context.Background(), "expire", "0 0 1 1 *", func(context.Context) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.RunNow("expire"); err != nil {
		t.Fatalf("run now: %v", err)
	}

	waitFor(t, func() bool {
		info, _ := s.GetJobInfoByName("expire")
		return calls.Load() == 1 && info.Runs == 1
	})

	info, err := s.GetJobInfoByName("expire")
	if err != nil {
		t.Fatal(err)
	}

	if info.Status != scheduler.StatusScheduled || info.LastSuccess.IsZero() {
		t.Errorf("info = %+v", info)
	}
}

func TestJobErrorRecorded(t *testing.T) {
	s := newScheduler(t)

	if err := s.AddCron(context.Background(), "broken", "0 0 1 1 *", func(context.Context) error {
		return errors.New("boom")
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.RunNow("broken"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		info, _ := s.GetJobInfoByName("broken")
		return info.Status == scheduler.StatusError && info.Error == "boom"
	})
}

func TestDuplicateAndMissing(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	if err := s.AddCron(context.Background(), "a", "*/5 * * * *", noop); err != nil {
		t.Fatal(err)
	}

	if err := s.AddCron(context.Background(), "a", "*/5 * * * *", noop); err == nil {
		t.Error("duplicate job name accepted")
	}

	if err := s.AddCron(context.Background(), "bad", "not a cron", noop); err == nil {
		t.Error("invalid cron accepted")
	}

	if err := s.RunNow("missing"); !errors.Is(err, scheduler.ErrJobNotFound) {
		t.Errorf("RunNow(missing) = %v", err)
	}

	if err := s.RemoveJobByName("a"); err != nil {
		t.Fatal(err)
	}

	if got := s.GetJobInfos(); len(got) != 0 {
		t.Errorf("jobs after remove = %v", got)
	}
}
