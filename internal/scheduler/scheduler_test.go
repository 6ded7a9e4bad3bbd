package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	n atomic.Int32
}

func (c *countingRefresher) Refresh() { c.n.Add(1) }

func TestRegisterRefresh_InvalidSpec(t *testing.T) {
	s := NewScheduler()
	if err := s.RegisterRefresh("dashboard", "not a cron spec", &countingRefresher{}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if s.RunNow("dashboard") {
		t.Error("failed registration must not leave a target behind")
	}
}

func TestRunNow(t *testing.T) {
	s := NewScheduler()
	r := &countingRefresher{}
	if err := s.RegisterRefresh("dashboard", "0 0 * * * *", r); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !s.RunNow("dashboard") {
		t.Fatal("expected registered target")
	}
	if r.n.Load() != 1 {
		t.Errorf("expected 1 refresh, got %d", r.n.Load())
	}
	if s.RunNow("unknown") {
		t.Error("unknown target should report false")
	}
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	s := NewScheduler()
	r := &countingRefresher{}
	if err := s.RegisterRefresh("dashboard", "* * * * * *", r); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for r.n.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if r.n.Load() == 0 {
		t.Error("expected at least one scheduled refresh")
	}
}
