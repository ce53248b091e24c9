package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/routing"
	"github.com/stafflow/stafflow/engine/template"
)

func (h *Handler) listTemplates(c *gin.Context) {
	filter := &template.Filter{}
	if raw := c.Query("process_type"); raw != "" {
		pt, err := core.ParseProcessType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid process type", Details: err.Error()})
			return
		}
		filter.ProcessType = &pt
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	templates, err := h.templates.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "template store unavailable", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

type resolveRequest struct {
	Classifications []string        `json:"classifications" binding:"required,min=1"`
	ProcessType     string          `json:"process_type,omitempty"`
	Department      string          `json:"department,omitempty"`
	Manager         *core.PersonRef `json:"manager,omitempty"`
}

// resolve previews routings for a set of classifications. Rule-store
// failures fall through to the default policy inside the resolver, so this
// endpoint degrades instead of erroring when the store is down.
func (h *Handler) resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resolve payload", Details: err.Error()})
		return
	}
	classifications := make([]classification.Classification, 0, len(req.Classifications))
	for _, raw := range req.Classifications {
		cls, err := classification.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid classification", Details: err.Error()})
			return
		}
		classifications = append(classifications, cls)
	}
	rctx := routing.Context{
		Department: req.Department,
		Manager:    req.Manager,
	}
	if req.ProcessType != "" {
		pt, err := core.ParseProcessType(req.ProcessType)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid process type", Details: err.Error()})
			return
		}
		rctx.ProcessType = pt
	}
	resolved, err := h.resolver.ResolveBatch(c.Request.Context(), classifications, rctx)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "resolution failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resolved})
}
