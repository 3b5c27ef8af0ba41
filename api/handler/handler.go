// Package handler contains the gin handlers of the HTTP API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simmerhq/simmer/api/models"
	"github.com/simmerhq/simmer/cache"
	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/scheduler"
)

// SessionUserKey is the gin context key holding the authenticated user ID.
const SessionUserKey = "userID"

// Handler serves the Simmer HTTP API.
type Handler struct {
	db        *database.Client
	cfg       *config.Config
	feedCache *cache.Cache[[]models.RecipeResponse]
	scheduler *scheduler.Scheduler
}

// New creates a new API handler.
func New(db *database.Client, cfg *config.Config, feedCache *cache.Cache[[]models.RecipeResponse], sched *scheduler.Scheduler) *Handler {
	return &Handler{
		db:        db,
		cfg:       cfg,
		feedCache: feedCache,
		scheduler: sched,
	}
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// currentUserID returns the authenticated user ID set by the auth middleware.
func currentUserID(c *gin.Context) uint {
	return c.MustGet(SessionUserKey).(uint)
}
