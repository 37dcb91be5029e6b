package app

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

// Release builds set these with
//
//	-ldflags "-X github.com/skobkin/dsrelay/internal/app.Version=v1.0.0
//	          -X github.com/skobkin/dsrelay/internal/app.Commit=$(git rev-parse HEAD)
//	          -X github.com/skobkin/dsrelay/internal/app.BuildDate=$(date -u +%FT%TZ)"
//
// BuildDate also accepts a SOURCE_DATE_EPOCH style Unix timestamp.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

const shortCommitLen = 7

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// BuildVersion prefers the linked version and falls back to the module
// version recorded by `go install`.
func BuildVersion() string {
	if version := strings.TrimSpace(Version); version != "" && version != "dev" {
		return version
	}
	if info, ok := readBuildInfo(); ok && info != nil {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}

	return "dev"
}

// BuildCommit returns the short revision from ldflags or VCS stamping.
func BuildCommit() string {
	commit := strings.TrimSpace(Commit)
	if commit == "" {
		if info, ok := readBuildInfo(); ok && info != nil {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
				}
			}
		}
	}
	if len(commit) > shortCommitLen {
		commit = commit[:shortCommitLen]
	}

	return commit
}

func BuildDateYMD() string {
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return ""
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC().Format(time.DateOnly)
	}
	if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil && epoch > 0 {
		return time.Unix(epoch, 0).UTC().Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		if date := raw[:len(time.DateOnly)]; isDate(date) {
			return date
		}
	}

	return raw
}

func isDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)

	return err == nil
}

// BuildVersionWithDate renders e.g. "v1.2.0 (2026-01-30, 3f2a9c1)".
func BuildVersionWithDate() string {
	var details []string
	if date := BuildDateYMD(); date != "" {
		details = append(details, date)
	}
	if commit := BuildCommit(); commit != "" {
		details = append(details, commit)
	}
	if len(details) == 0 {
		return BuildVersion()
	}

	return fmt.Sprintf("%s (%s)", BuildVersion(), strings.Join(details, ", "))
}
