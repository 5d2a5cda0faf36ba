package failures

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipforge/fault"
)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := Init(filepath.Join(t.TempDir(), "failures.db")); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		if err := Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		db = nil
	})
}

func TestStoreAndGet(t *testing.T) {
	openTestStore(t)

	failure := fault.New(fault.TransformFailed, "ffmpeg exited with status 1")
	if err := Store("job-1", "ENCODING", failure); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	record, err := Get("job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record == nil {
		t.Fatal("record is nil")
	}
	if record.Kind != fault.TransformFailed {
		t.Errorf("kind = %s, want %s", record.Kind, fault.TransformFailed)
	}
	if record.Task != "ENCODING" {
		t.Errorf("task = %s", record.Task)
	}
}

func TestGetUnknownID(t *testing.T) {
	openTestStore(t)

	record, err := Get("never-stored")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record != nil {
		t.Errorf("record = %+v, want nil", record)
	}
}

func TestStoreOverwritesSameID(t *testing.T) {
	openTestStore(t)

	if err := Store("job-1", "ENCODING", fault.New(fault.TransferFailed, "first")); err != nil {
		t.Fatal(err)
	}
	if err := Store("job-1", "ENCODING", fault.New(fault.TransformFailed, "second")); err != nil {
		t.Fatal(err)
	}

	record, err := Get("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Kind != fault.TransformFailed || !strings.Contains(record.Error, "second") {
		t.Errorf("record = %+v, want the latest failure", record)
	}
}

func TestListLimit(t *testing.T) {
	openTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := Store(id, "AUDIO_TRIM", fault.New(fault.TransferFailed, "x")); err != nil {
			t.Fatal(err)
		}
	}

	records, err := List(2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len = %d, want 2", len(records))
	}

	records, err = List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("len = %d, want 3", len(records))
	}
}

func TestCleanupOldRecords(t *testing.T) {
	openTestStore(t)

	if err := Store("recent", "ENCODING", fault.New(fault.TransferFailed, "x")); err != nil {
		t.Fatal(err)
	}

	// Records newer than the cutoff survive.
	if err := CleanupOldRecords(time.Hour); err != nil {
		t.Fatalf("CleanupOldRecords failed: %v", err)
	}
	record, err := Get("recent")
	if err != nil || record == nil {
		t.Fatalf("recent record lost: %v, %v", record, err)
	}

	// A zero max age treats everything as stale.
	if err := CleanupOldRecords(0); err != nil {
		t.Fatal(err)
	}
	record, err = Get("recent")
	if err != nil {
		t.Fatal(err)
	}
	if record != nil {
		t.Errorf("record = %+v, want nil after cleanup", record)
	}
}

func TestUninitializedStoreErrors(t *testing.T) {
	if err := Store("x", "ENCODING", fault.New(fault.TransferFailed, "x")); err == nil {
		t.Error("Store must fail before Init")
	}
	if _, err := Get("x"); err == nil {
		t.Error("Get must fail before Init")
	}
	if _, err := List(0); err == nil {
		t.Error("List must fail before Init")
	}
}
