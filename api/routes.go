package api

import (
	"github.com/codecollab-io/codecollab/realtime"
	"github.com/gin-gonic/gin"
)

// Handlers carries the realtime collaborators the HTTP layer dispatches to
type Handlers struct {
	Rooms  *realtime.Manager
	Router *realtime.Router
	Sync   *realtime.Synchronizer
	Agent  realtime.Completer
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	// User routes
	users := r.Group("/users")
	users.POST("/register", Register)
	users.POST("/login", Login)
	users.GET("/logout", Logout)
	users.GET("/profile", RequireAuth(), Profile)
	users.GET("/all", RequireAuth(), ListUsers)

	// Project routes
	projects := r.Group("/projects", RequireAuth())
	projects.POST("/create", h.CreateProject)
	projects.GET("/all", h.ListProjects)
	projects.GET("/get-project/:projectId", h.GetProject)
	projects.PUT("/add-user", h.AddUsers)
	projects.PUT("/update-file-tree", h.UpdateFileTree)
	projects.PUT("/update-file", h.UpdateFile)
	projects.DELETE("/:projectId", h.DeleteProject)

	// AI routes
	r.GET("/ai/get-result", RequireAuth(), h.GetAIResult)

	// Realtime room channel; the handler runs its own handshake authentication
	r.GET("/ws", h.ProjectWebSocket)
}
