package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/bus"
	"github.com/bundlescope/bundlescope/internal/collectors"
	"github.com/bundlescope/bundlescope/internal/logbuf"
	"github.com/bundlescope/bundlescope/internal/session"
)

const healthProbeTimeout = 3 * time.Second

// SourceFactory builds a bundle source for a load request. The server maps
// "live:" paths to a cluster collector and everything else to the backend
// bundle client.
type SourceFactory func(path string) (collectors.ContextSource, error)

type Handler struct {
	session   *session.Session
	ring      *logbuf.Ring
	bus       *bus.Bus
	newSource SourceFactory
	logger    *zap.Logger
}

func NewHandler(sess *session.Session, ring *logbuf.Ring, eventBus *bus.Bus, newSource SourceFactory, logger *zap.Logger) *Handler {
	return &Handler{
		session:   sess,
		ring:      ring,
		bus:       eventBus,
		newSource: newSource,
		logger:    logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	agent := "online"
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()
	if err := h.session.ProviderHealth(ctx); err != nil {
		agent = "offline"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"agent":  agent,
	})
}

type LoadBundleRequest struct {
	Path string `json:"path" binding:"required"`
}

func (h *Handler) LoadBundle(c *gin.Context) {
	var req LoadBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source, err := h.newSource(req.Path)
	if err != nil {
		h.logger.Error("failed to build bundle source", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := h.session.Load(c.Request.Context(), source)
	if err != nil {
		h.logger.Error("bundle load failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Digest(c *gin.Context) {
	digest := h.session.Digest()
	if digest == "" {
		c.JSON(http.StatusConflict, gin.H{"error": session.ErrNoBundle.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"digest": digest})
}

func (h *Handler) BundleContext(c *gin.Context) {
	bundle := h.session.Bundle()
	if bundle == nil {
		c.JSON(http.StatusConflict, gin.H{"error": session.ErrNoBundle.Error()})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

type AnalyzeRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) Analyze(c *gin.Context) {
	// An empty body means a plain, unforced analysis.
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.session.Analyze(c.Request.Context(), req.Force)
	if err != nil {
		if errors.Is(err, session.ErrNoBundle) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "analysis superseded by a newer load"})
		return
	}

	c.JSON(http.StatusOK, result)
}

type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.session.Ask(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, session.ErrNoBundle) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("chat turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":   answer,
		"messages": h.session.History(),
	})
}

func (h *Handler) Analysis(c *gin.Context) {
	result := h.session.Current()
	if result == nil || result.Analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis available"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Logs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": h.ring.Recent(limit),
		"total":   h.ring.Len(),
	})
}

func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.session.ClearCache(); err != nil {
		if errors.Is(err, session.ErrNoBundle) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("cache clear failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
