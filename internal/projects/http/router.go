package http

import "github.com/gin-gonic/gin"

// Register attaches the console pages to rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	pages := rg.Group("", h.session)

	pages.GET("/", h.showConsole)
	pages.POST("/refresh", h.refresh)
	pages.POST("/filter", h.filter)

	pages.POST("/projects", h.create)
	pages.POST("/projects/:id/edit", h.startEdit)
	pages.POST("/projects/:id/save", h.saveEdit)
	pages.POST("/projects/:id/cancel", h.cancelEdit)
	pages.POST("/projects/:id/status", h.updateStatus)
	pages.GET("/projects/:id/delete", h.confirmDelete)
	pages.POST("/projects/:id/delete", h.delete)
	pages.POST("/projects/:id/updates", h.addUpdate)

	pages.POST("/search", h.search)
	pages.POST("/search/clear", h.clearSearch)
	pages.POST("/search/updates", h.loadUpdates)
}

// RegisterAPI attaches the JSON snapshot endpoint to rg.
func (h *Handler) RegisterAPI(rg *gin.RouterGroup) {
	rg.GET("/console", h.session, h.snapshot)
}
