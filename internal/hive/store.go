package hive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Store provides the read/write operations over a hive directory. It is
// safe for concurrent use: every read-modify-write over a document runs
// under a per-path mutex, so a double-click approve and a poll tick can
// never interleave destructively.
//
// Every operation takes the hive root explicitly; roots are resolved
// per call with FindRoot and never cached here.
type Store struct {
	locks *pathLocker
}

// NewStore creates a filesystem-backed hive store.
func NewStore() *Store {
	return &Store{locks: newPathLocker()}
}

// --- Status / provisioning ---

// GetStatus resolves the hive for a working directory. A missing hive
// is not an error — Exists is simply false.
func (s *Store) GetStatus(directory string) Status {
	root, found := FindRoot(directory)
	if !found {
		return Status{Exists: false}
	}
	active, _ := readTextDoc(HivePath(root, ActiveFeatureFile))
	return Status{Exists: true, ActiveFeature: strings.TrimSpace(active)}
}

// EnsureRoot lazily provisions the marker directory structure under
// directory. Feature creation is the only operation allowed to call
// this — all other writers require an existing root.
func (s *Store) EnsureRoot(directory string) error {
	if err := os.MkdirAll(HivePath(directory, FeaturesDir), 0o755); err != nil {
		return fmt.Errorf("creating hive directory: %w", err)
	}
	return nil
}

// --- Features ---

// ListFeatures returns every feature record under the root. Directories
// whose feature.json is missing or corrupt are skipped.
func (s *Store) ListFeatures(root string) []Feature {
	entries, err := os.ReadDir(HivePath(root, FeaturesDir))
	if err != nil {
		return []Feature{}
	}

	features := []Feature{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var f Feature
		if readJSONDoc(FeaturePath(root, entry.Name(), FeatureConfigFile), &f) != DocValid {
			continue
		}
		features = append(features, f)
	}
	return features
}

// GetFeature loads a single feature record by name.
func (s *Store) GetFeature(root, name string) (*Feature, error) {
	var f Feature
	if readJSONDoc(FeaturePath(root, name, FeatureConfigFile), &f) != DocValid {
		return nil, notFoundf("feature %q not found", name)
	}
	return &f, nil
}

// CreateFeature creates a feature directory with its tasks/ and
// context/ subdirectories, writes feature.json with status planning,
// and unconditionally points the active-feature file at it
// (last-created-wins).
func (s *Store) CreateFeature(root, name, ticket string) (*Feature, error) {
	slug := Slugify(name)
	if slug == "" {
		return nil, &ValidationError{Msg: "feature name must contain at least one alphanumeric character"}
	}

	dir := FeaturePath(root, slug)
	if _, err := os.Stat(dir); err == nil {
		return nil, preconditionf("feature %q already exists", slug)
	}

	for _, sub := range []string{TasksDir, ContextDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating feature directory: %w", err)
		}
	}

	feature := &Feature{
		Name:      slug,
		Status:    StatusPlanning,
		Ticket:    ticket,
		CreatedAt: nowRFC3339(),
	}
	if err := writeJSONDoc(filepath.Join(dir, FeatureConfigFile), feature); err != nil {
		return nil, err
	}

	if err := writeTextDoc(HivePath(root, ActiveFeatureFile), slug); err != nil {
		return nil, fmt.Errorf("setting active feature: %w", err)
	}
	return feature, nil
}

// UpdateFeatureStatus sets a feature's status directly. There are no
// transition guardrails here — this is the escape hatch the reconciler
// and the UI both use. approvedAt/completedAt are stamped when the
// corresponding status is set.
func (s *Store) UpdateFeatureStatus(root, name string, status FeatureStatus) (*Feature, error) {
	if err := ValidateFeatureStatus(status); err != nil {
		return nil, err
	}

	path := FeaturePath(root, name, FeatureConfigFile)
	unlock := s.locks.lock(path)
	defer unlock()

	var f Feature
	if readJSONDoc(path, &f) != DocValid {
		return nil, notFoundf("feature %q not found", name)
	}

	f.Status = status
	switch status {
	case StatusApproved:
		f.ApprovedAt = nowRFC3339()
	case StatusCompleted:
		f.CompletedAt = nowRFC3339()
	}

	if err := writeJSONDoc(path, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// --- Plans ---

// GetPlan returns a feature's plan, or nil if no plan.md exists yet.
func (s *Store) GetPlan(root, feature string) *Plan {
	content, ok := readTextDoc(FeaturePath(root, feature, PlanFile))
	if !ok {
		return nil
	}
	_, approved := os.Stat(FeaturePath(root, feature, ApprovedSentinel))
	return &Plan{Content: content, IsApproved: approved == nil}
}

// WritePlan replaces the plan document. Editing a plan invalidates any
// prior approval: the APPROVED sentinel is removed and, if the feature
// was approved, its status reverts to planning. A feature already past
// planning (executing, completed) keeps its status.
func (s *Store) WritePlan(root, feature, content string) error {
	if err := writeTextDoc(FeaturePath(root, feature, PlanFile), content); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}

	if err := os.Remove(FeaturePath(root, feature, ApprovedSentinel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing approval sentinel: %w", err)
	}

	path := FeaturePath(root, feature, FeatureConfigFile)
	unlock := s.locks.lock(path)
	defer unlock()

	var f Feature
	if readJSONDoc(path, &f) == DocValid && f.Status == StatusApproved {
		f.Status = StatusPlanning
		if err := writeJSONDoc(path, &f); err != nil {
			return err
		}
	}
	return nil
}

// ApprovePlan touches the APPROVED sentinel and moves the feature to
// approved. Fails if no plan document exists. Re-approving an already
// approved plan is allowed and re-stamps approvedAt — callers that
// care about the original timestamp must not call this twice.
//
// The "no approval while comments are outstanding" rule is enforced by
// the client cache, not here: a direct store-level approve bypasses it.
func (s *Store) ApprovePlan(root, feature string) error {
	if _, ok := readTextDoc(FeaturePath(root, feature, PlanFile)); !ok {
		return preconditionf("no plan to approve for feature %q", feature)
	}

	if err := writeTextDoc(FeaturePath(root, feature, ApprovedSentinel), ""); err != nil {
		return fmt.Errorf("writing approval sentinel: %w", err)
	}

	path := FeaturePath(root, feature, FeatureConfigFile)
	unlock := s.locks.lock(path)
	defer unlock()

	var f Feature
	if readJSONDoc(path, &f) == DocValid {
		f.Status = StatusApproved
		f.ApprovedAt = nowRFC3339()
		if err := writeJSONDoc(path, &f); err != nil {
			return err
		}
	}
	return nil
}

// --- Comments ---

// ListComments returns the plan comment thread, empty if none exists.
func (s *Store) ListComments(root, feature string) []Comment {
	doc := commentsDoc{Threads: []Comment{}}
	readJSONDoc(FeaturePath(root, feature, "comments.json"), &doc)
	if doc.Threads == nil {
		doc.Threads = []Comment{}
	}
	return doc.Threads
}

// AddComment appends a comment to the plan thread. IDs are derived from
// the current time in milliseconds.
func (s *Store) AddComment(root, feature string, line int, body, author string) (*Comment, error) {
	if author == "" {
		author = "You"
	}

	path := FeaturePath(root, feature, "comments.json")
	unlock := s.locks.lock(path)
	defer unlock()

	doc := commentsDoc{Threads: []Comment{}}
	readJSONDoc(path, &doc)

	comment := Comment{
		ID:        fmt.Sprintf("comment-%d", timeNow().UnixMilli()),
		Line:      line,
		Body:      body,
		Author:    author,
		Timestamp: nowRFC3339(),
	}
	doc.Threads = append(doc.Threads, comment)

	if err := writeJSONDoc(path, &doc); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment by id. Deleting a comment that does
// not exist is a no-op.
func (s *Store) DeleteComment(root, feature, commentID string) error {
	path := FeaturePath(root, feature, "comments.json")
	unlock := s.locks.lock(path)
	defer unlock()

	doc := commentsDoc{Threads: []Comment{}}
	if readJSONDoc(path, &doc) != DocValid {
		return nil
	}

	kept := doc.Threads[:0]
	for _, c := range doc.Threads {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	doc.Threads = kept
	return writeJSONDoc(path, &doc)
}

// --- Tasks ---

// taskFromRecord applies read-side defaults to an on-disk record.
func taskFromRecord(folder string, rec TaskRecord) Task {
	t := Task{
		Folder:        folder,
		Status:        rec.Status,
		Origin:        rec.Origin,
		PlanTitle:     rec.PlanTitle,
		Summary:       rec.Summary,
		StartedAt:     rec.StartedAt,
		CompletedAt:   rec.CompletedAt,
		DependsOn:     rec.DependsOn,
		WorkerSession: rec.WorkerSession,
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Origin == "" {
		t.Origin = OriginManual
	}
	if t.DependsOn == nil {
		t.DependsOn = []string{}
	}
	return t
}

// taskOrder extracts the numeric order prefix from an NN-slug folder
// name, or -1 if the folder has no prefix.
func taskOrder(folder string) int {
	idx := strings.IndexByte(folder, '-')
	if idx <= 0 {
		return -1
	}
	n, err := strconv.Atoi(folder[:idx])
	if err != nil {
		return -1
	}
	return n
}

// ListTasks returns a feature's tasks sorted by their numeric order
// prefix (02 before 10), falling back to lexicographic order for
// folders without one.
func (s *Store) ListTasks(root, feature string) []Task {
	entries, err := os.ReadDir(FeaturePath(root, feature, TasksDir))
	if err != nil {
		return []Task{}
	}

	tasks := []Task{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var rec TaskRecord
		readJSONDoc(FeaturePath(root, feature, TasksDir, entry.Name(), "status.json"), &rec)
		tasks = append(tasks, taskFromRecord(entry.Name(), rec))
	}

	sort.Slice(tasks, func(i, j int) bool {
		oi, oj := taskOrder(tasks[i].Folder), taskOrder(tasks[j].Folder)
		if oi != oj {
			return oi < oj
		}
		return tasks[i].Folder < tasks[j].Folder
	})
	return tasks
}

// GetTask loads one task with its spec and report documents.
func (s *Store) GetTask(root, feature, folder string) (*TaskDetail, error) {
	dir := FeaturePath(root, feature, TasksDir, folder)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, notFoundf("task %q not found", folder)
	}

	var rec TaskRecord
	readJSONDoc(filepath.Join(dir, "status.json"), &rec)

	detail := &TaskDetail{Task: taskFromRecord(folder, rec)}
	if spec, ok := readTextDoc(filepath.Join(dir, "spec"+DocExt)); ok {
		detail.Spec = &spec
	}
	if report, ok := readTextDoc(filepath.Join(dir, "report"+DocExt)); ok {
		detail.Report = &report
	}
	return detail, nil
}

// CreateTask adds a manual task. When order is nil the next free order
// number (max existing + 1) is assigned. Returns the new folder name.
func (s *Store) CreateTask(root, feature, name string, order *int) (string, error) {
	tasksDir := FeaturePath(root, feature, TasksDir)
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return "", fmt.Errorf("creating tasks directory: %w", err)
	}

	num := 0
	if order != nil {
		num = *order
	} else {
		entries, _ := os.ReadDir(tasksDir)
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if n := taskOrder(entry.Name()); n > num {
				num = n
			}
		}
		num++
	}

	folder := TaskFolder(num, name)
	rec := TaskRecord{
		SchemaVersion: 1,
		Status:        TaskPending,
		Origin:        OriginManual,
		PlanTitle:     name,
	}
	if err := writeJSONDoc(filepath.Join(tasksDir, folder, "status.json"), &rec); err != nil {
		return "", err
	}
	return folder, nil
}

// UpdateTask merges updates into a task's status record. Omitted fields
// are preserved. startedAt is stamped on the first transition into
// in_progress and completedAt on the first transition into done; both
// are one-shot — later transitions never overwrite them.
func (s *Store) UpdateTask(root, feature, folder string, updates TaskUpdate) (*TaskRecord, error) {
	path := FeaturePath(root, feature, TasksDir, folder, "status.json")
	unlock := s.locks.lock(path)
	defer unlock()

	var rec TaskRecord
	readJSONDoc(path, &rec)

	if updates.Status != nil {
		rec.Status = *updates.Status
		if rec.Status == TaskInProgress && rec.StartedAt == "" {
			rec.StartedAt = nowRFC3339()
		}
		if rec.Status == TaskDone && rec.CompletedAt == "" {
			rec.CompletedAt = nowRFC3339()
		}
	}
	if updates.Summary != nil {
		rec.Summary = *updates.Summary
	}

	if err := writeJSONDoc(path, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// --- Context files ---

// ListContextFiles returns the feature's Markdown context files sorted
// by name, with filesystem modification times.
func (s *Store) ListContextFiles(root, feature string) []ContextFile {
	dir := FeaturePath(root, feature, ContextDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []ContextFile{}
	}

	files := []ContextFile{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), DocExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, ContextFile{
			Name:      entry.Name(),
			UpdatedAt: info.ModTime().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// GetContextFile reads a context file's content. ok is false when the
// file does not exist.
func (s *Store) GetContextFile(root, feature, name string) (string, bool) {
	return readTextDoc(FeaturePath(root, feature, ContextDir, name))
}

// WriteContextFile creates or replaces a context file.
func (s *Store) WriteContextFile(root, feature, name, content string) error {
	return writeTextDoc(FeaturePath(root, feature, ContextDir, name), content)
}

// DeleteContextFile removes a context file; missing files are a no-op.
func (s *Store) DeleteContextFile(root, feature, name string) error {
	err := os.Remove(FeaturePath(root, feature, ContextDir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting context file: %w", err)
	}
	return nil
}

// --- Sessions ---

// ListSessions returns the chat sessions linked to a feature.
func (s *Store) ListSessions(root, feature string) []SessionLink {
	doc := sessionsDoc{Sessions: []SessionLink{}}
	readJSONDoc(FeaturePath(root, feature, "sessions.json"), &doc)
	if doc.Sessions == nil {
		doc.Sessions = []SessionLink{}
	}
	return doc.Sessions
}

// LinkSession associates a chat session with a feature. Re-linking an
// already linked sessionId updates lastActiveAt (and the task folder,
// when given) in place instead of appending a duplicate.
func (s *Store) LinkSession(root, feature, sessionID, taskFolder string) error {
	path := FeaturePath(root, feature, "sessions.json")
	unlock := s.locks.lock(path)
	defer unlock()

	doc := sessionsDoc{Sessions: []SessionLink{}}
	readJSONDoc(path, &doc)

	now := nowRFC3339()
	for i := range doc.Sessions {
		if doc.Sessions[i].SessionID == sessionID {
			if taskFolder != "" {
				doc.Sessions[i].TaskFolder = taskFolder
			}
			doc.Sessions[i].LastActiveAt = now
			return writeJSONDoc(path, &doc)
		}
	}

	doc.Sessions = append(doc.Sessions, SessionLink{
		SessionID:    sessionID,
		TaskFolder:   taskFolder,
		StartedAt:    now,
		LastActiveAt: now,
	})
	return writeJSONDoc(path, &doc)
}

// --- Summaries ---

// GetFeatureSummary computes the derived projection for one feature.
func (s *Store) GetFeatureSummary(root, name string) (*FeatureSummary, error) {
	feature, err := s.GetFeature(root, name)
	if err != nil {
		return nil, err
	}

	planStatus := PlanNone
	if _, ok := readTextDoc(FeaturePath(root, name, PlanFile)); ok {
		planStatus = PlanDraft
		if _, err := os.Stat(FeaturePath(root, name, ApprovedSentinel)); err == nil {
			planStatus = PlanApproved
		}
	}

	tasks := s.ListTasks(root, name)
	counts := TaskCounts{Total: len(tasks)}
	refs := make([]TaskRef, 0, len(tasks))
	for _, t := range tasks {
		switch t.Status {
		case TaskDone:
			counts.Done++
		case TaskInProgress:
			counts.InProgress++
		case TaskPending:
			counts.Pending++
		}
		refs = append(refs, TaskRef{Folder: t.Folder, Status: t.Status})
	}

	contextNames := []string{}
	for _, f := range s.ListContextFiles(root, name) {
		contextNames = append(contextNames, f.Name)
	}

	return &FeatureSummary{
		Name:         name,
		Status:       feature.Status,
		PlanStatus:   planStatus,
		CommentCount: len(s.ListComments(root, name)),
		TaskCounts:   counts,
		ContextFiles: contextNames,
		Tasks:        refs,
	}, nil
}

// ListFeatureSummaries computes summaries for every feature. Features
// that disappear between the listing and the summary read are skipped.
func (s *Store) ListFeatureSummaries(root string) []FeatureSummary {
	summaries := []FeatureSummary{}
	for _, f := range s.ListFeatures(root) {
		summary, err := s.GetFeatureSummary(root, f.Name)
		if err != nil {
			continue
		}
		summaries = append(summaries, *summary)
	}
	return summaries
}
