package hive

import (
	"fmt"
	"os"
	"path/filepath"
)

// SyncTasks derives the task graph from a feature's plan document.
//
// Re-running sync is idempotent: a task folder that already exists on
// disk is skipped, never duplicated or overwritten — even when the plan
// text has since changed that task's title (the on-disk task goes stale
// rather than being clobbered). Newly created tasks start pending with
// origin plan and their resolved dependency folder names.
//
// Side effect: when at least one heading parsed and the feature is
// still in planning or approved, its status moves to executing. A plan
// with zero headings returns {0, 0} and leaves the status untouched.
func (s *Store) SyncTasks(root, feature string) (*SyncResult, error) {
	content, ok := readTextDoc(FeaturePath(root, feature, PlanFile))
	if !ok || content == "" {
		return nil, preconditionf("no plan to sync from for feature %q", feature)
	}

	tasks := ParsePlan(content)
	if len(tasks) == 0 {
		return &SyncResult{Created: 0, Total: 0}, nil
	}

	tasksDir := FeaturePath(root, feature, TasksDir)
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating tasks directory: %w", err)
	}

	existing := map[string]bool{}
	if entries, err := os.ReadDir(tasksDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				existing[entry.Name()] = true
			}
		}
	}

	created := 0
	for _, task := range tasks {
		folder := task.Folder()
		if existing[folder] {
			continue
		}
		existing[folder] = true

		rec := TaskRecord{
			SchemaVersion: 1,
			Status:        TaskPending,
			Origin:        OriginPlan,
			PlanTitle:     task.Title,
		}
		for _, dep := range task.Depends {
			rec.DependsOn = append(rec.DependsOn, dep.Ref())
		}
		if err := writeJSONDoc(filepath.Join(tasksDir, folder, "status.json"), &rec); err != nil {
			return nil, err
		}
		created++
	}

	// Move the feature into execution now that it has a task graph.
	path := FeaturePath(root, feature, FeatureConfigFile)
	unlock := s.locks.lock(path)
	defer unlock()

	var f Feature
	if readJSONDoc(path, &f) == DocValid && (f.Status == StatusApproved || f.Status == StatusPlanning) {
		f.Status = StatusExecuting
		if err := writeJSONDoc(path, &f); err != nil {
			return nil, err
		}
	}

	return &SyncResult{Created: created, Total: len(tasks)}, nil
}
