// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete store and index
// and injects them into the tools, prompts, and resources that depend
// on them. No business logic lives here — only wiring.
package server

import (
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/openchamber/hive/internal/hive"
	"github.com/openchamber/hive/internal/index"
	"github.com/openchamber/hive/internal/prompts"
	"github.com/openchamber/hive/internal/resources"
	"github.com/openchamber/hive/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the search index's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if index init failed.
func New(indexPath string) (*server.MCPServer, func(), error) {
	store := hive.NewStore()

	s := server.NewMCPServer(
		"hived",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register feature and plan tools ---

	statusTool := tools.NewStatusTool(store)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	featureCreateTool := tools.NewFeatureCreateTool(store)
	s.AddTool(featureCreateTool.Definition(), featureCreateTool.Handle)

	featureStatusTool := tools.NewFeatureStatusTool(store)
	s.AddTool(featureStatusTool.Definition(), featureStatusTool.Handle)

	planWriteTool := tools.NewPlanWriteTool(store)
	s.AddTool(planWriteTool.Definition(), planWriteTool.Handle)

	planApproveTool := tools.NewPlanApproveTool(store)
	s.AddTool(planApproveTool.Definition(), planApproveTool.Handle)

	// --- Register task tools ---

	tasksSyncTool := tools.NewTasksSyncTool(store)
	s.AddTool(tasksSyncTool.Definition(), tasksSyncTool.Handle)

	taskUpdateTool := tools.NewTaskUpdateTool(store)
	s.AddTool(taskUpdateTool.Definition(), taskUpdateTool.Handle)

	// --- Register context and session tools ---

	contextWriteTool := tools.NewContextWriteTool(store)
	s.AddTool(contextWriteTool.Definition(), contextWriteTool.Handle)

	sessionLinkTool := tools.NewSessionLinkTool(store)
	s.AddTool(sessionLinkTool.Definition(), sessionLinkTool.Handle)

	// --- Register search ---
	//
	// Search is an independent subsystem: if the SQLite index fails to
	// initialize, everything else keeps working. The search tool is
	// registered either way and reports unavailability itself.

	cleanup := noop
	ix, ixErr := index.Open(indexPath)
	if ixErr != nil {
		log.Printf("WARNING: search index disabled: %v", ixErr)
		ix = nil
	} else {
		cleanup = func() {
			if err := ix.Close(); err != nil {
				log.Printf("WARNING: search index close: %v", err)
			}
		}
	}
	searchTool := tools.NewSearchTool(store, ix)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	// --- Register prompts ---

	workflowPrompt := prompts.NewWorkflowPrompt()
	s.AddPrompt(workflowPrompt.Definition(), workflowPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the index
// is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the hive effectively.
func serverInstructions() string {
	return `You have access to the hive, a feature-tracking system for agent-driven development.

## What the hive is

The hive lives in a .hive/ directory inside the project. Every feature gets a
folder with a plan document, task folders, context notes, review comments, and
linked agent sessions. All state is plain files — users can read and edit them.

## Feature lifecycle

planning → approved → executing → completed

- planning: the plan is being drafted and reviewed
- approved: the plan is signed off (hive_plan_approve)
- executing: tasks exist and work is underway (set automatically by hive_tasks_sync)
- completed: all work is done (set it explicitly with hive_feature_status)

Editing the plan of an approved feature revokes the approval and moves the
feature back to planning. That is intentional: an edited plan needs a fresh
review.

## Typical workflow

1. hive_feature_create — create the feature (this provisions the hive on first use)
2. Discuss the feature with the user, capture research with hive_context_write
3. hive_plan_write — write the plan. Declare each unit of work as a
   "### N. Title" heading. Express ordering with "**Depends on**: 1, 2" lines
   under a heading.
4. Have the user review. If they leave comments, address every one before
   approving — approval is blocked while comments are open.
5. hive_plan_approve — sign off the plan
6. hive_tasks_sync — materialize one task folder per plan heading. Syncing is
   idempotent: re-running after a plan edit only creates folders for new
   headings and never touches existing ones.
7. Execute tasks in dependency order. For each task:
   - hive_session_link to bind your session to the task
   - hive_task_update status=in_progress before starting
   - hive_task_update status=done with a summary when finished
8. hive_feature_status status=completed when everything is done

## Rules

- NEVER renumber plan headings after tasks have been synced — task folders are
  named after the heading numbers, and renumbering orphans them.
- Write real plan content, never placeholders.
- Use hive_search to find prior plans, task reports, and context notes before
  re-deciding something — the hive is the project's memory.
- Task statuses: pending, in_progress, done, cancelled, blocked, failed,
  partial. Use blocked or failed honestly; do not mark a task done unless its
  work is actually complete.`
}
