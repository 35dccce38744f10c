// Package httpapi exposes the hive store over HTTP. The routes mirror
// the desktop client's API surface: every endpoint takes the working
// directory as a ?directory= query parameter and resolves the hive
// root per request — the root is never cached server-side.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/openchamber/hive/internal/hive"
	"github.com/openchamber/hive/internal/index"
)

// Server is the hive HTTP server.
type Server struct {
	store  *hive.Store
	idx    *index.Index
	author string
	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithIndex attaches a search index. Without one, the search endpoint
// reports the index as unavailable; everything else works normally.
func WithIndex(idx *index.Index) Option {
	return func(s *Server) { s.idx = idx }
}

// WithDefaultAuthor sets the author used for comments whose request
// body omits one.
func WithDefaultAuthor(author string) Option {
	return func(s *Server) { s.author = author }
}

// New creates the hive HTTP server and registers all routes.
func New(store *hive.Store, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:  store,
		router: router,
	}
	for _, opt := range opts {
		opt(s)
	}

	api := router.Group("/api/hive")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/search", s.requireDirectory, s.handleSearch)

		api.GET("/features", s.requireDirectory, s.handleListFeatures)
		api.POST("/features", s.requireDirectory, s.handleCreateFeature)
		api.GET("/summaries", s.requireDirectory, s.handleSummaries)
		api.GET("/features/:name", s.requireDirectory, s.handleGetFeature)
		api.PATCH("/features/:name", s.requireDirectory, s.handleUpdateFeature)

		api.GET("/features/:name/plan", s.requireDirectory, s.handleGetPlan)
		api.PUT("/features/:name/plan", s.requireDirectory, s.handleWritePlan)
		api.POST("/features/:name/plan/approve", s.requireDirectory, s.handleApprovePlan)

		api.GET("/features/:name/comments", s.requireDirectory, s.handleListComments)
		api.POST("/features/:name/comments", s.requireDirectory, s.handleAddComment)
		api.DELETE("/features/:name/comments/:commentId", s.requireDirectory, s.handleDeleteComment)

		api.GET("/features/:name/tasks", s.requireDirectory, s.handleListTasks)
		api.POST("/features/:name/tasks", s.requireDirectory, s.handleCreateTask)
		api.POST("/features/:name/tasks/sync", s.requireDirectory, s.handleSyncTasks)
		api.GET("/features/:name/tasks/:task", s.requireDirectory, s.handleGetTask)
		api.PATCH("/features/:name/tasks/:task", s.requireDirectory, s.handleUpdateTask)

		api.GET("/features/:name/context", s.requireDirectory, s.handleListContext)
		api.GET("/features/:name/context/:file", s.requireDirectory, s.handleGetContext)
		api.PUT("/features/:name/context/:file", s.requireDirectory, s.handleWriteContext)
		api.DELETE("/features/:name/context/:file", s.requireDirectory, s.handleDeleteContext)

		api.GET("/features/:name/sessions", s.requireDirectory, s.handleListSessions)
		api.POST("/features/:name/sessions", s.requireDirectory, s.handleLinkSession)
	}

	return s
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the underlying handler for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}
