package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/openchamber/hive/internal/hive"
)

// Panel identifies which view of the hive a frontend is showing.
type Panel string

const (
	PanelFeature       Panel = "feature"
	PanelPlan          Panel = "plan"
	PanelTasks         Panel = "tasks"
	PanelTaskDetail    Panel = "task-detail"
	PanelContext       Panel = "context"
	PanelContextDetail Panel = "context-detail"
)

// FeatureDetail bundles everything a frontend shows for the selected
// feature.
type FeatureDetail struct {
	Feature  hive.Feature
	Plan     *hive.Plan
	Tasks    []hive.Task
	Context  []hive.ContextFile
	Sessions []hive.SessionLink
	Comments []hive.Comment
}

// TaskDocs holds the spec and report documents of the selected task.
// Nil pointers mean the document does not exist yet.
type TaskDocs struct {
	Spec   *string
	Report *string
}

// Cache mirrors hive state for one working directory. All reads of the
// cached state go through snapshot accessors; all mutations go through
// the server and then re-fetch whatever the mutation may have changed.
type Cache struct {
	client *Client

	mu              sync.Mutex
	hiveExists      bool
	activeFeature   string
	features        []hive.Feature
	summaries       []hive.FeatureSummary
	selectedFeature string
	selectedTask    string
	selectedContext string
	detail          *FeatureDetail
	taskDocs        *TaskDocs
	contextContent  string
	activePanel     Panel
	loading         bool
	lastErr         error
}

// NewCache creates an empty cache backed by the given client.
func NewCache(client *Client) *Cache {
	return &Cache{
		client:      client,
		activePanel: PanelFeature,
	}
}

// --- Snapshot accessors ---

func (c *Cache) HiveExists() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hiveExists
}

func (c *Cache) ActiveFeature() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeFeature
}

func (c *Cache) Features() []hive.Feature {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.features
}

func (c *Cache) Summaries() []hive.FeatureSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaries
}

func (c *Cache) SelectedFeature() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedFeature
}

func (c *Cache) SelectedTask() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedTask
}

func (c *Cache) Detail() *FeatureDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detail
}

func (c *Cache) TaskDocs() *TaskDocs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taskDocs
}

func (c *Cache) ContextContent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contextContent
}

func (c *Cache) ActivePanel() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activePanel
}

func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last fetch error, or nil.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// --- Selection ---

// SelectFeature changes the selected feature and drops every piece of
// detail state derived from the previous selection, so a stale plan or
// task list is never shown against the new feature.
func (c *Cache) SelectFeature(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedFeature = name
	c.selectedTask = ""
	c.selectedContext = ""
	c.detail = nil
	c.taskDocs = nil
	c.contextContent = ""
	c.activePanel = PanelFeature
}

func (c *Cache) SelectTask(folder string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedTask = folder
	c.taskDocs = nil
}

func (c *Cache) SelectContext(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedContext = name
	c.contextContent = ""
}

func (c *Cache) SetActivePanel(panel Panel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activePanel = panel
}

// --- Fetching ---

// FetchStatus updates hive existence and the active feature pointer. A
// failed status probe degrades to "no hive" rather than erroring.
func (c *Cache) FetchStatus(ctx context.Context) {
	status, err := c.client.Status(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.hiveExists = false
		return
	}
	c.hiveExists = status.Exists
	c.activeFeature = status.ActiveFeature
}

func (c *Cache) FetchFeatures(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	features, err := c.client.Features(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.lastErr = err
		return
	}
	c.features = features
	c.lastErr = nil
}

func (c *Cache) FetchSummaries(ctx context.Context) {
	summaries, err := c.client.Summaries(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.summaries = nil
		return
	}
	c.summaries = summaries
}

// FetchDetail loads the full bundle for a feature. The feature record
// itself is required; each sub-resource degrades to empty on failure so
// one broken document cannot blank the whole panel.
func (c *Cache) FetchDetail(ctx context.Context, feature string) {
	record, err := c.client.Feature(ctx, feature)
	if err != nil || record == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err == nil {
			err = fmt.Errorf("feature %q not found", feature)
		}
		c.lastErr = err
		return
	}

	detail := &FeatureDetail{Feature: *record}
	if plan, err := c.client.Plan(ctx, feature); err == nil {
		detail.Plan = plan
	}
	if tasks, err := c.client.Tasks(ctx, feature); err == nil {
		detail.Tasks = tasks
	}
	if files, err := c.client.ContextFiles(ctx, feature); err == nil {
		detail.Context = files
	}
	if sessions, err := c.client.Sessions(ctx, feature); err == nil {
		detail.Sessions = sessions
	}
	if comments, err := c.client.Comments(ctx, feature); err == nil {
		detail.Comments = comments
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedFeature != feature {
		// Selection moved on while we were fetching.
		return
	}
	c.detail = detail
	c.lastErr = nil
}

func (c *Cache) FetchTaskDocs(ctx context.Context, feature, folder string) {
	task, err := c.client.Task(ctx, feature, folder)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || task == nil {
		c.taskDocs = nil
		return
	}
	c.taskDocs = &TaskDocs{Spec: task.Spec, Report: task.Report}
}

func (c *Cache) FetchContextContent(ctx context.Context, feature, name string) {
	content, err := c.client.ContextFile(ctx, feature, name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.contextContent = ""
		return
	}
	c.contextContent = content
}

// Refresh re-fetches everything the cache currently cares about: hive
// status always, then lists and the selected feature's detail when the
// hive exists.
func (c *Cache) Refresh(ctx context.Context) {
	c.FetchStatus(ctx)
	if !c.HiveExists() {
		return
	}
	c.FetchFeatures(ctx)
	c.FetchSummaries(ctx)
	if selected := c.SelectedFeature(); selected != "" {
		c.FetchDetail(ctx, selected)
	}
}

// refreshAfterMutation re-fetches the detail bundle only when the
// mutated feature is still the selected one.
func (c *Cache) refreshAfterMutation(ctx context.Context, feature string) {
	if c.SelectedFeature() == feature {
		c.FetchDetail(ctx, feature)
	}
}

// --- Mutations ---

func (c *Cache) CreateFeature(ctx context.Context, name, ticket string) error {
	if _, err := c.client.CreateFeature(ctx, name, ticket); err != nil {
		return err
	}
	c.FetchFeatures(ctx)
	c.FetchStatus(ctx)
	return nil
}

func (c *Cache) UpdateFeatureStatus(ctx context.Context, name string, status hive.FeatureStatus) error {
	if err := c.client.UpdateFeatureStatus(ctx, name, status); err != nil {
		return err
	}
	c.FetchFeatures(ctx)
	c.refreshAfterMutation(ctx, name)
	return nil
}

func (c *Cache) SavePlan(ctx context.Context, feature, content string) error {
	if err := c.client.SavePlan(ctx, feature, content); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}

// ApprovePlan approves the feature's plan. Approval is refused while
// review comments are still open; resolve (delete) them first.
func (c *Cache) ApprovePlan(ctx context.Context, feature string) error {
	comments, err := c.client.Comments(ctx, feature)
	if err != nil {
		return err
	}
	if len(comments) > 0 {
		return fmt.Errorf("cannot approve plan for %q: %d unresolved comments", feature, len(comments))
	}
	if err := c.client.ApprovePlan(ctx, feature); err != nil {
		return err
	}
	c.FetchFeatures(ctx)
	c.refreshAfterMutation(ctx, feature)
	return nil
}

func (c *Cache) SyncTasks(ctx context.Context, feature string) (hive.SyncResult, error) {
	result, err := c.client.SyncTasks(ctx, feature)
	if err != nil {
		return result, err
	}
	c.FetchFeatures(ctx)
	c.refreshAfterMutation(ctx, feature)
	return result, nil
}

func (c *Cache) CreateTask(ctx context.Context, feature, name string) error {
	if err := c.client.CreateTask(ctx, feature, name); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, feature, folder string, updates hive.TaskUpdate) error {
	if err := c.client.UpdateTask(ctx, feature, folder, updates); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}

func (c *Cache) WriteContext(ctx context.Context, feature, name, content string) error {
	if err := c.client.WriteContext(ctx, feature, name, content); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}

func (c *Cache) DeleteContext(ctx context.Context, feature, name string) error {
	if err := c.client.DeleteContext(ctx, feature, name); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}

func (c *Cache) LinkSession(ctx context.Context, feature, sessionID, taskFolder string) error {
	if err := c.client.LinkSession(ctx, feature, sessionID, taskFolder); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}

func (c *Cache) AddComment(ctx context.Context, feature string, line int, body string) error {
	if err := c.client.AddComment(ctx, feature, line, body); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}

func (c *Cache) DeleteComment(ctx context.Context, feature, commentID string) error {
	if err := c.client.DeleteComment(ctx, feature, commentID); err != nil {
		return err
	}
	c.refreshAfterMutation(ctx, feature)
	return nil
}
