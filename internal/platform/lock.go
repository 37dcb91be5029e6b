package platform

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
)

// ErrAlreadyRunning means another process controls the board from the same config dir.
var ErrAlreadyRunning = errors.New("another dsrelay instance is already running for this config")

// ErrLockUnsupported indicates the current platform has no lock backend implementation.
var ErrLockUnsupported = errors.New("instance lock unsupported")

// InstanceLock is held for as long as the process owns the board connection.
type InstanceLock interface {
	Release() error
}

// AcquireInstanceLock takes a non-blocking per-user lock for appID and the given config dir.
func AcquireInstanceLock(appID, configDir string) (InstanceLock, error) {
	return acquireInstanceLock(lockName(appID, configDir))
}

func lockName(appID, configDir string) string {
	name := normalizeLockComponent(appID, "app")
	if configDir = strings.TrimSpace(configDir); configDir == "" {
		return name
	}
	sum := sha256.Sum256([]byte(filepath.Clean(configDir)))

	return name + "-" + hex.EncodeToString(sum[:6])
}

func normalizeLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	normalized := strings.Trim(b.String(), "_-.")
	if normalized == "" {
		return fallback
	}

	return normalized
}
