package filewatch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatchRequiresArguments(t *testing.T) {
	if _, err := Watch("", Options{OnChange: func() {}}); err == nil {
		t.Fatal("Watch(\"\") error = nil, want error")
	}
	if _, err := Watch(t.TempDir(), Options{}); err == nil {
		t.Fatal("Watch without OnChange error = nil, want error")
	}
}

func TestWatchFiresOnMatchingWrite(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := Watch(dir, Options{Suffix: ".yaml", Debounce: 20 * time.Millisecond, OnChange: func() { calls.Add(1) }})
	if err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "fr.yaml"), []byte("a: b\n"), 0o600); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := Watch(dir, Options{Name: "config.yaml", Debounce: 20 * time.Millisecond, OnChange: func() { calls.Add(1) }})
	if err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("OnChange calls = %d, want 0", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := Watch(t.TempDir(), Options{OnChange: func() {}})
	if err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close error = %v", err)
	}
}

func TestCallbackPanicDoesNotStopWatcher(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := Watch(dir, Options{Debounce: 20 * time.Millisecond, OnChange: func() {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}})
	if err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "a.yaml")
	if err := os.WriteFile(path, []byte("1"), 0o600); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("2"), 0o600); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	waitFor(t, func() bool { return calls.Load() >= 2 })
}
