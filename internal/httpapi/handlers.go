package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openchamber/hive/internal/hive"
)

// Context keys set by the requireDirectory middleware.
const (
	ctxRoot   = "hiveRoot"
	ctxExists = "hiveExists"
)

// requireDirectory rejects requests without a ?directory= parameter and
// resolves the hive root for the rest of the chain. A missing hive is
// not rejected here — read endpoints answer with empty collections and
// write endpoints (except feature creation) return 404.
func (s *Server) requireDirectory(c *gin.Context) {
	directory := c.Query("directory")
	if directory == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "directory parameter is required"})
		return
	}

	root, found := hive.FindRoot(directory)
	c.Set(ctxRoot, root)
	c.Set(ctxExists, found)
	c.Next()
}

func (s *Server) root(c *gin.Context) (string, bool) {
	return c.GetString(ctxRoot), c.GetBool(ctxExists)
}

// hiveMissing answers 404 when no hive exists for the directory.
func hiveMissing(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "hive not found"})
}

// fail maps domain errors onto status codes: validation 400, not-found
// 404, everything else 500. Bodies are always {"error": message}.
func fail(c *gin.Context, err error) {
	var ve *hive.ValidationError
	var nf *hive.NotFoundError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error("hive request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// --- Status ---

func (s *Server) handleStatus(c *gin.Context) {
	directory := c.Query("directory")
	if directory == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "directory parameter is required"})
		return
	}
	status := s.store.GetStatus(directory)
	c.JSON(http.StatusOK, gin.H{"exists": status.Exists, "activeFeature": status.ActiveFeature})
}

// --- Features ---

func (s *Server) handleListFeatures(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"features": []hive.Feature{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"features": s.store.ListFeatures(root)})
}

func (s *Server) handleSummaries(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"summaries": []hive.FeatureSummary{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": s.store.ListFeatureSummaries(root)})
}

func (s *Server) handleGetFeature(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	feature, err := s.store.GetFeature(root, c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feature": feature})
}

func (s *Server) handleCreateFeature(c *gin.Context) {
	var body struct {
		Name   string `json:"name"`
		Ticket string `json:"ticket"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	// Feature creation is the one writer allowed to provision the hive.
	root, exists := s.root(c)
	if !exists {
		root = c.Query("directory")
		if err := s.store.EnsureRoot(root); err != nil {
			fail(c, err)
			return
		}
	}

	feature, err := s.store.CreateFeature(root, body.Name, body.Ticket)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feature": feature})
}

func (s *Server) handleUpdateFeature(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	var body struct {
		Status hive.FeatureStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	feature, err := s.store.UpdateFeatureStatus(root, c.Param("name"), body.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feature": feature})
}

// --- Plans ---

func (s *Server) handleGetPlan(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	plan := s.store.GetPlan(root, c.Param("name"))
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

func (s *Server) handleWritePlan(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	var body struct {
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if err := s.store.WritePlan(root, c.Param("name"), *body.Content); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleApprovePlan(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	if err := s.store.ApprovePlan(root, c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Comments ---

func (s *Server) handleListComments(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"threads": []hive.Comment{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": s.store.ListComments(root, c.Param("name"))})
}

func (s *Server) handleAddComment(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	var body struct {
		Line   *int   `json:"line"`
		Body   string `json:"body"`
		Author string `json:"author"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Line == nil || body.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line and body are required"})
		return
	}
	author := body.Author
	if author == "" {
		author = s.author
	}
	comment, err := s.store.AddComment(root, c.Param("name"), *body.Line, body.Body, author)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	if err := s.store.DeleteComment(root, c.Param("name"), c.Param("commentId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Tasks ---

func (s *Server) handleListTasks(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"tasks": []hive.Task{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": s.store.ListTasks(root, c.Param("name"))})
}

func (s *Server) handleGetTask(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	task, err := s.store.GetTask(root, c.Param("name"), c.Param("task"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	var body struct {
		Name  string `json:"name"`
		Order *int   `json:"order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	folder, err := s.store.CreateTask(root, c.Param("name"), body.Name, body.Order)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"folder": folder})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	var updates hive.TaskUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task update"})
		return
	}
	rec, err := s.store.UpdateTask(root, c.Param("name"), c.Param("task"), updates)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleSyncTasks(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	result, err := s.store.SyncTasks(root, c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Context files ---

func (s *Server) handleListContext(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"files": []hive.ContextFile{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": s.store.ListContextFiles(root, c.Param("name"))})
}

func (s *Server) handleGetContext(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	content, ok := s.store.GetContextFile(root, c.Param("name"), c.Param("file"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "context file not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func (s *Server) handleWriteContext(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	var body struct {
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if err := s.store.WriteContextFile(root, c.Param("name"), c.Param("file"), *body.Content); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleDeleteContext(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	if err := s.store.DeleteContextFile(root, c.Param("name"), c.Param("file")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Sessions ---

func (s *Server) handleListSessions(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"sessions": []hive.SessionLink{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": s.store.ListSessions(root, c.Param("name"))})
}

func (s *Server) handleLinkSession(c *gin.Context) {
	root, exists := s.root(c)
	if !exists {
		hiveMissing(c)
		return
	}
	var body struct {
		SessionID  string `json:"sessionId"`
		TaskFolder string `json:"taskFolder"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}
	if err := s.store.LinkSession(root, c.Param("name"), body.SessionID, body.TaskFolder); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Search ---

func (s *Server) handleSearch(c *gin.Context) {
	if s.idx == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search index unavailable"})
		return
	}
	root, exists := s.root(c)
	if !exists {
		c.JSON(http.StatusOK, gin.H{"results": []any{}})
		return
	}

	// The index is rebuilt per query; the corpus is a handful of small
	// Markdown files, so a full rebuild stays cheap and always fresh.
	if err := s.idx.Rebuild(root, s.store); err != nil {
		fail(c, err)
		return
	}
	results, err := s.idx.Search(c.Query("q"), 20)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
