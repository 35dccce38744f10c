package hive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	// MarkerDir is the subdirectory whose presence makes an ancestor
	// directory a hive root.
	MarkerDir = ".hive"
	// FeaturesDir is the subdirectory under the marker where features live.
	FeaturesDir = "features"
	// ActiveFeatureFile is the pointer file naming the active feature.
	ActiveFeatureFile = "active-feature"
	// FeatureConfigFile is the filename for feature records.
	FeatureConfigFile = "feature.json"
	// PlanFile is the filename for a feature's plan document.
	PlanFile = "plan.md"
	// ApprovedSentinel is the zero-byte file marking an approved plan.
	ApprovedSentinel = "APPROVED"
	// TasksDir and ContextDir are per-feature subdirectories.
	TasksDir   = "tasks"
	ContextDir = "context"
	// DocExt is the extension every plan/context/spec document carries.
	DocExt = ".md"
)

// FindRoot walks from startDir up to the filesystem root and returns the
// first ancestor (inclusive) that contains the marker subdirectory. The
// second return is false if no hive exists on the path. The result is
// never cached — the directory layout can change between operations.
func FindRoot(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, MarkerDir)); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// --- Path helpers ---

// HivePath joins segments under a root's marker directory.
func HivePath(root string, segments ...string) string {
	return filepath.Join(append([]string{root, MarkerDir}, segments...)...)
}

// FeaturePath joins segments under a specific feature's directory.
func FeaturePath(root, feature string, segments ...string) string {
	return HivePath(root, append([]string{FeaturesDir, feature}, segments...)...)
}

// --- Document primitives ---

// DocState distinguishes why a structured read produced no value.
// Callers that only care about "did I get data" can compare against
// DocValid; callers that care about data loss can check for DocCorrupt.
type DocState int

const (
	// DocMissing means the file does not exist (or could not be read).
	DocMissing DocState = iota
	// DocCorrupt means the file exists but did not parse; the value is
	// left untouched. Corrupt documents are deliberately treated like
	// absent ones on the read path so a partially written file never
	// wedges the store.
	DocCorrupt
	// DocValid means v was populated from the file.
	DocValid
)

// readJSONDoc reads path into v and reports how the read went. It never
// returns an error: missing and corrupt both leave v at its fallback
// (zero or caller-initialized) value.
func readJSONDoc(path string, v any) DocState {
	data, err := os.ReadFile(path)
	if err != nil {
		return DocMissing
	}
	if err := json.Unmarshal(data, v); err != nil {
		return DocCorrupt
	}
	return DocValid
}

// writeJSONDoc marshals v with two-space indentation and writes it to
// path, creating parent directories as needed. The whole file is
// replaced — there are no partial/merge semantics.
func writeJSONDoc(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// readTextDoc reads path as text. ok is false when the file is absent
// or unreadable.
func readTextDoc(path string) (content string, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// writeTextDoc writes content to path, creating parent directories as
// needed.
func writeTextDoc(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// --- Per-path write serialization ---

// pathLocker hands out one mutex per absolute file path so that
// read-modify-write sequences over the same document cannot interleave.
// Locks are never released from the map; a hive holds a handful of
// documents, so the map stays tiny.
type pathLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocker() *pathLocker {
	return &pathLocker{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for path and returns its unlock function.
func (l *pathLocker) lock(path string) func() {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	l.mu.Lock()
	m, found := l.locks[abs]
	if !found {
		m = &sync.Mutex{}
		l.locks[abs] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
