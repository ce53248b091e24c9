// Package router exposes the admin HTTP surface: rule CRUD, template
// listing and routing previews. Handlers stay thin; all decision logic lives
// in the engine packages.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/engine/rule"
	"github.com/stafflow/stafflow/engine/template"
)

// ErrorResponse is the error envelope returned by every handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler wires the admin endpoints to the engine.
type Handler struct {
	rules     rule.Repository
	templates template.Repository
	resolver  *routing.Resolver
}

func NewHandler(rules rule.Repository, templates template.Repository) *Handler {
	return &Handler{
		rules:     rules,
		templates: templates,
		resolver:  routing.NewResolver(rules),
	}
}

// Register mounts the API under /api/v0.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api/v0")
	api.GET("/rules", h.listRules)
	api.POST("/rules", h.createRule)
	api.GET("/rules/:id", h.getRule)
	api.PUT("/rules/:id", h.updateRule)
	api.POST("/rules/:id/deactivate", h.deactivateRule)
	api.DELETE("/rules/:id", h.deleteRule)
	api.GET("/templates", h.listTemplates)
	api.POST("/resolve", h.resolve)
}

// New builds a gin engine with the admin API mounted.
func New(rules rule.Repository, templates template.Repository) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	NewHandler(rules, templates).Register(r)
	return r
}
