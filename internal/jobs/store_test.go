package jobs

import (
	"errors"
	"sync"
	"testing"
)

func TestLifecycle(t *testing.T) {
	s := NewStore()
	id := s.Create()

	snap, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if snap.Status != StatusPending || snap.Progress != nil {
		t.Fatalf("new job = %#v, want pending without progress", snap)
	}

	if err := s.Start(id); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.SetProgress(id, "Generating brand name", 10); err != nil {
		t.Fatalf("SetProgress returned error: %v", err)
	}
	snap, _ = s.Get(id)
	if snap.Status != StatusProcessing {
		t.Fatalf("status = %s, want processing", snap.Status)
	}
	if snap.Progress == nil || snap.Progress.Step != "Generating brand name" || snap.Progress.Percent != 10 {
		t.Fatalf("progress = %#v", snap.Progress)
	}

	result := Result{
		BrandName: "TrailCraft",
		Images:    []Image{{AspectRatio: "1:1", Path: "x/1_1/banner_japan.png", URL: "/outputs/x/1_1/banner_japan.png"}},
		OutputDir: "trailcraft_20260830_120000",
	}
	if err := s.Complete(id, result); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	snap, _ = s.Get(id)
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", snap.Status)
	}
	if snap.Progress.Percent != 100 || snap.Progress.Step != "Complete" {
		t.Fatalf("terminal progress = %#v", snap.Progress)
	}
	if snap.Result == nil || snap.Result.BrandName != "TrailCraft" {
		t.Fatalf("result = %#v", snap.Result)
	}
}

func TestGetUnknownJob(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.Start("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Start err = %v, want ErrNotFound", err)
	}
}

func TestStartRequiresPending(t *testing.T) {
	s := NewStore()
	id := s.Create()
	if err := s.Start(id); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.Start(id); err == nil {
		t.Fatalf("second Start must fail")
	}
}

func TestTerminalStatesRequireProcessing(t *testing.T) {
	s := NewStore()
	id := s.Create()

	if err := s.Complete(id, Result{}); err == nil {
		t.Fatalf("Complete on a pending job must be rejected")
	}
	if err := s.Fail(id, "boom"); err == nil {
		t.Fatalf("Fail on a pending job must be rejected")
	}
	snap, _ := s.Get(id)
	if snap.Status != StatusPending {
		t.Fatalf("status = %s, want pending", snap.Status)
	}
}

func TestTerminalJobsAreImmutable(t *testing.T) {
	s := NewStore()
	id := s.Create()
	mustStart(t, s, id)
	if err := s.Fail(id, "all generations failed"); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}

	if err := s.Complete(id, Result{}); err == nil {
		t.Fatalf("Complete after Fail must error")
	}
	if err := s.Fail(id, "again"); err == nil {
		t.Fatalf("Fail after Fail must error")
	}
	if err := s.SetProgress(id, "late step", 90); err != nil {
		t.Fatalf("late progress must be dropped, not error: %v", err)
	}

	snap, _ := s.Get(id)
	if snap.Status != StatusFailed || snap.Error != "all generations failed" {
		t.Fatalf("snapshot = %#v", snap)
	}
	if snap.Progress != nil && snap.Progress.Step == "late step" {
		t.Fatalf("progress recorded after failure")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	id := s.Create()
	mustStart(t, s, id)
	if err := s.Complete(id, Result{Images: []Image{{AspectRatio: "1:1"}}}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	snap, _ := s.Get(id)
	snap.Result.Images[0].AspectRatio = "mutated"
	snap.Progress.Percent = -1

	again, _ := s.Get(id)
	if again.Result.Images[0].AspectRatio != "1:1" {
		t.Fatalf("snapshot mutation leaked into the store")
	}
	if again.Progress.Percent != 100 {
		t.Fatalf("progress mutation leaked into the store")
	}
}

func TestConcurrentProgress(t *testing.T) {
	s := NewStore()
	id := s.Create()
	mustStart(t, s, id)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.SetProgress(id, "step", n)
			_, _ = s.Get(id)
		}(i)
	}
	wg.Wait()

	snap, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if snap.Status != StatusProcessing || snap.Progress == nil {
		t.Fatalf("snapshot = %#v", snap)
	}
}

func mustStart(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.Start(id); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
}
