//go:build unix && !windows

package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestAcquireInstanceLockContentionAndRelease(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	configDir := t.TempDir()

	lock1, err := AcquireInstanceLock("dsrelay", configDir)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}

	lock2, err := AcquireInstanceLock("dsrelay", configDir)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected %v, got %v", ErrAlreadyRunning, err)
	}
	if lock2 != nil {
		t.Fatalf("expected second lock to be nil, got %#v", lock2)
	}

	other, err := AcquireInstanceLock("dsrelay", t.TempDir())
	if err != nil {
		t.Fatalf("expected another config dir to be lockable: %v", err)
	}
	if err := other.Release(); err != nil {
		t.Fatalf("release other lock: %v", err)
	}

	if err := lock1.Release(); err != nil {
		t.Fatalf("release first lock: %v", err)
	}
	if err := lock1.Release(); err != nil {
		t.Fatalf("second release must be a no-op: %v", err)
	}

	lock3, err := AcquireInstanceLock("dsrelay", configDir)
	if err != nil {
		t.Fatalf("acquire lock after release: %v", err)
	}
	if err := lock3.Release(); err != nil {
		t.Fatalf("release third lock: %v", err)
	}
}

func TestUnixLockPathPrefersXDGRuntimeDir(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	path, err := unixLockPath("dsrelay-abc")
	if err != nil {
		t.Fatalf("resolve lock path: %v", err)
	}
	if want := filepath.Join(runtimeDir, "dsrelay", "dsrelay-abc.lock"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

func TestUnixLockPathFallsBackToTemp(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	path, err := unixLockPath("dsrelay")
	if err != nil {
		t.Fatalf("resolve lock path: %v", err)
	}
	if fragment := "dsrelay-" + strconv.Itoa(os.Getuid()); !strings.Contains(path, fragment) {
		t.Fatalf("expected path to contain %q, got %q", fragment, path)
	}
}
