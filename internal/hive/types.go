// Package hive implements the file-backed feature-tracking store that
// coding agents and the desktop UI share through a .hive/ directory.
//
// A hive is a small hierarchical document store: each feature owns a
// plan document, a comment thread, an ordered task graph, free-form
// context files, and links to external chat sessions. The store layer
// is deliberately dumb — it maps entities to JSON/Markdown files and
// leaves policy (status transitions, plan approval, task sync) to the
// operations in store.go and sync.go.
//
// Design principles:
// - SRP: types, filesystem primitives, store operations, and the plan
//   parser live in separate files
// - every read is a whole-document re-read; writers serialize per path
// - corrupt documents degrade to their fallback value, they never fail a read
package hive

import (
	"fmt"
	"strings"
)

// --- Feature status enum ---

// FeatureStatus tracks the lifecycle of a feature.
type FeatureStatus string

const (
	StatusPlanning  FeatureStatus = "planning"
	StatusApproved  FeatureStatus = "approved"
	StatusExecuting FeatureStatus = "executing"
	StatusCompleted FeatureStatus = "completed"
)

// validFeatureStatuses is the set of allowed feature statuses.
var validFeatureStatuses = map[FeatureStatus]bool{
	StatusPlanning:  true,
	StatusApproved:  true,
	StatusExecuting: true,
	StatusCompleted: true,
}

// ValidateFeatureStatus returns an error if the status is not recognized.
func ValidateFeatureStatus(s FeatureStatus) error {
	if !validFeatureStatuses[s] {
		return &ValidationError{Msg: fmt.Sprintf("invalid feature status %q: must be one of: planning, approved, executing, completed", s)}
	}
	return nil
}

// --- Task status enum ---

// TaskStatus tracks the execution state of a single task. There is no
// enforced transition graph — any value can be set at any time; only
// the startedAt/completedAt stamps in UpdateTask are one-shot.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
	TaskBlocked    TaskStatus = "blocked"
	TaskFailed     TaskStatus = "failed"
	TaskPartial    TaskStatus = "partial"
)

// TaskOrigin records how a task came to exist.
type TaskOrigin string

const (
	OriginPlan   TaskOrigin = "plan"
	OriginManual TaskOrigin = "manual"
)

// --- Core data structures ---

// Feature is the root record for a unit of planned work, persisted as
// feature.json inside its own directory under features/.
type Feature struct {
	Name        string        `json:"name"`
	Status      FeatureStatus `json:"status"`
	Ticket      string        `json:"ticket,omitempty"`
	CreatedAt   string        `json:"createdAt"`
	ApprovedAt  string        `json:"approvedAt,omitempty"`
	CompletedAt string        `json:"completedAt,omitempty"`
}

// Plan is a feature's Markdown design document plus its approval state.
// Approval is a zero-byte APPROVED sentinel next to plan.md — presence
// is the whole semantic.
type Plan struct {
	Content    string `json:"content"`
	IsApproved bool   `json:"isApproved"`
}

// WorkerSession identifies the agent session currently working a task.
type WorkerSession struct {
	SessionID string `json:"sessionId"`
	Agent     string `json:"agent,omitempty"`
	Attempt   int    `json:"attempt,omitempty"`
}

// TaskRecord is the on-disk shape of a task's status.json. Every field
// is optional so that a partially written or hand-edited file still
// round-trips; readers apply defaults via Task.
type TaskRecord struct {
	SchemaVersion int            `json:"schemaVersion,omitempty"`
	Status        TaskStatus     `json:"status,omitempty"`
	Origin        TaskOrigin     `json:"origin,omitempty"`
	PlanTitle     string         `json:"planTitle,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	StartedAt     string         `json:"startedAt,omitempty"`
	CompletedAt   string         `json:"completedAt,omitempty"`
	DependsOn     []string       `json:"dependsOn,omitempty"`
	WorkerSession *WorkerSession `json:"workerSession,omitempty"`
}

// Task is the read-side view of a task: its folder name plus the
// status record with defaults applied (status pending, origin manual).
type Task struct {
	Folder        string         `json:"folder"`
	Status        TaskStatus     `json:"status"`
	Origin        TaskOrigin     `json:"origin"`
	PlanTitle     string         `json:"planTitle,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	StartedAt     string         `json:"startedAt,omitempty"`
	CompletedAt   string         `json:"completedAt,omitempty"`
	DependsOn     []string       `json:"dependsOn"`
	WorkerSession *WorkerSession `json:"workerSession,omitempty"`
}

// TaskDetail is a Task plus its spec and report documents. Spec and
// Report are nil when the corresponding file does not exist.
type TaskDetail struct {
	Task
	Spec   *string `json:"spec"`
	Report *string `json:"report"`
}

// TaskUpdate is a partial update over a task's status record. Nil
// fields are left untouched.
type TaskUpdate struct {
	Status  *TaskStatus `json:"status,omitempty"`
	Summary *string     `json:"summary,omitempty"`
}

// Comment is a single plan comment anchored to a 1-based line number.
type Comment struct {
	ID        string `json:"id"`
	Line      int    `json:"line"`
	Body      string `json:"body"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

// commentsDoc is the on-disk shape of comments.json.
type commentsDoc struct {
	Threads []Comment `json:"threads"`
}

// SessionLink associates a feature (and optionally one of its tasks)
// with an external chat session. The session id is opaque here — it is
// owned by the chat subsystem.
type SessionLink struct {
	SessionID    string `json:"sessionId"`
	TaskFolder   string `json:"taskFolder,omitempty"`
	StartedAt    string `json:"startedAt"`
	LastActiveAt string `json:"lastActiveAt"`
}

// sessionsDoc is the on-disk shape of sessions.json.
type sessionsDoc struct {
	Sessions []SessionLink `json:"sessions"`
}

// ContextFile describes one Markdown file in a feature's context/
// directory. UpdatedAt is the file's modification time.
type ContextFile struct {
	Name      string `json:"name"`
	UpdatedAt string `json:"updatedAt"`
}

// --- Derived projections ---

// PlanStatus summarizes a feature's plan for the sidebar.
type PlanStatus string

const (
	PlanNone     PlanStatus = "none"
	PlanDraft    PlanStatus = "draft"
	PlanApproved PlanStatus = "approved"
)

// TaskCounts aggregates task statuses for a feature.
type TaskCounts struct {
	Total      int `json:"total"`
	Done       int `json:"done"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
}

// TaskRef is the compact task view carried inside summaries.
type TaskRef struct {
	Folder string     `json:"folder"`
	Status TaskStatus `json:"status"`
}

// FeatureSummary is a derived, read-only projection of a feature plus
// counts over its children. It is computed on demand and never persisted.
type FeatureSummary struct {
	Name         string        `json:"name"`
	Status       FeatureStatus `json:"status"`
	PlanStatus   PlanStatus    `json:"planStatus"`
	CommentCount int           `json:"commentCount"`
	TaskCounts   TaskCounts    `json:"taskCounts"`
	ContextFiles []string      `json:"contextFiles"`
	Tasks        []TaskRef     `json:"tasks"`
}

// Status reports whether a hive exists for a directory and which
// feature is active.
type Status struct {
	Exists        bool   `json:"exists"`
	ActiveFeature string `json:"activeFeature,omitempty"`
}

// SyncResult reports the outcome of deriving tasks from a plan.
type SyncResult struct {
	Created int `json:"created"`
	Total   int `json:"total"`
}

// --- Slug generation ---

// Slugify converts a name into a filesystem-safe slug: lowercase, runs
// of non-alphanumeric characters collapse to a single hyphen, leading
// and trailing hyphens are trimmed. Total (never fails) and idempotent:
// Slugify(Slugify(x)) == Slugify(x). Empty input yields "".
func Slugify(name string) string {
	s := strings.ToLower(name)

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
