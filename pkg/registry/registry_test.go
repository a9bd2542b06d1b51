package registry

import (
	"errors"
	"testing"
)

func TestSubmitAndGet(t *testing.T) {
	r := New()
	job := r.Submit("/data/run1/sample.mzML", "#")
	if job.Status != StatusQueued {
		t.Errorf("new job status = %v, want StatusQueued", job.Status)
	}

	got, err := r.Get(job.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("Get returned job %q, want %q", got.ID, job.ID)
	}
}

func TestGetUnknownJob(t *testing.T) {
	r := New()
	if _, err := r.Get("nonexistent"); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestJobLifecycleTransitions(t *testing.T) {
	r := New()
	job := r.Submit("in.mzML", "#")

	job.SetRunning()
	if snap := job.Snapshot(); snap.Status != StatusRunning {
		t.Errorf("status after SetRunning = %v, want StatusRunning", snap.Status)
	}

	job.SetSucceeded(Result{SpectraProcessed: 10, FeaturesEmitted: 3, ExitCode: 0})
	snap := job.Snapshot()
	if snap.Status != StatusSucceeded {
		t.Errorf("status after SetSucceeded = %v, want StatusSucceeded", snap.Status)
	}
	if snap.Result.FeaturesEmitted != 3 {
		t.Errorf("Result.FeaturesEmitted = %d, want 3", snap.Result.FeaturesEmitted)
	}
}

func TestJobSetFailedRecordsError(t *testing.T) {
	r := New()
	job := r.Submit("in.mzML", "#")
	job.SetFailed(errors.New("boom"))
	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %v, want StatusFailed", snap.Status)
	}
	if snap.Error != "boom" {
		t.Errorf("Error = %q, want %q", snap.Error, "boom")
	}
}

func TestListReturnsAllJobs(t *testing.T) {
	r := New()
	r.Submit("a.mzML", "#")
	r.Submit("b.mzML", "#")
	jobs := r.List()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestCancelOnlyAllowedWhileQueued(t *testing.T) {
	r := New()
	job := r.Submit("a.mzML", "#")
	if err := r.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel on queued job returned error: %v", err)
	}
	if snap := job.Snapshot(); snap.Status != StatusFailed {
		t.Errorf("status after Cancel = %v, want StatusFailed", snap.Status)
	}

	job2 := r.Submit("b.mzML", "#")
	job2.SetRunning()
	if err := r.Cancel(job2.ID); err == nil {
		t.Fatal("expected error cancelling a running job")
	}
}

func TestDelete(t *testing.T) {
	r := New()
	job := r.Submit("a.mzML", "#")
	if err := r.Delete(job.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := r.Get(job.ID); err == nil {
		t.Fatal("expected error getting a deleted job")
	}
	if err := r.Delete(job.ID); err == nil {
		t.Fatal("expected error deleting an already-deleted job")
	}
}
