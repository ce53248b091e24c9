package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stafflow/stafflow/engine/classification"
	"github.com/stafflow/stafflow/engine/core"
	"github.com/stafflow/stafflow/engine/rule"
)

func (h *Handler) listRules(c *gin.Context) {
	filter := &rule.Filter{}
	if raw := c.Query("classification"); raw != "" {
		cls, err := classification.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid classification", Details: err.Error()})
			return
		}
		filter.Classification = &cls
	}
	if raw := c.Query("process_type"); raw != "" {
		pt, err := core.ParseProcessType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid process type", Details: err.Error()})
			return
		}
		filter.ProcessType = &pt
	}
	if raw := c.Query("department"); raw != "" {
		filter.Department = &raw
	}
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	rules, err := h.rules.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "rule store unavailable", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rules})
}

func (h *Handler) getRule(c *gin.Context) {
	found, err := h.rules.Get(c.Request.Context(), core.ID(c.Param("id")))
	if err != nil {
		if errors.Is(err, rule.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "rule not found"})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "rule store unavailable", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": found})
}

func (h *Handler) createRule(c *gin.Context) {
	var in rule.Rule
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid rule payload", Details: err.Error()})
		return
	}
	if in.ID.IsZero() {
		in.ID = core.MustNewID()
	}
	if err := in.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid rule", Details: err.Error()})
		return
	}
	if err := h.rules.Create(c.Request.Context(), &in); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "rule store unavailable", Details: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": in})
}

func (h *Handler) updateRule(c *gin.Context) {
	var in rule.Rule
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid rule payload", Details: err.Error()})
		return
	}
	in.ID = core.ID(c.Param("id"))
	if err := in.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid rule", Details: err.Error()})
		return
	}
	if err := h.rules.Update(c.Request.Context(), &in); err != nil {
		if errors.Is(err, rule.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "rule not found"})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "rule store unavailable", Details: err.Error()})
		return
	}
	// Re-read so the response reflects stored state; the update never touches
	// the classification column, so an attempted change must not be echoed.
	updated, err := h.rules.Get(c.Request.Context(), in.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "rule store unavailable", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (h *Handler) deactivateRule(c *gin.Context) {
	if err := h.rules.Deactivate(c.Request.Context(), core.ID(c.Param("id"))); err != nil {
		if errors.Is(err, rule.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "rule not found"})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "rule store unavailable", Details: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteRule(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), core.ID(c.Param("id"))); err != nil {
		if errors.Is(err, rule.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "rule not found"})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "rule store unavailable", Details: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
