package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/simmerhq/simmer/api/models"
	"github.com/simmerhq/simmer/database"
)

const maxFeedPageSize = 100

// ListRecipes returns the public recipe feed, newest first. The feed is
// served from the cache when possible.
func (h *Handler) ListRecipes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > maxFeedPageSize {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("%d:%d", limit, offset)
	if cached, err := h.feedCache.Get(c.Request.Context(), cacheKey); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	recipes, err := h.db.ListRecipes(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	resp := lo.Map(recipes, func(recipe database.Recipe, _ int) models.RecipeResponse {
		likes, err := h.db.CountRecipeLikes(c.Request.Context(), recipe.ID)
		if err != nil {
			log.Warn("failed to count likes", "recipe", recipe.ID, "error", err)
		}
		return models.RecipeFromDB(&recipe, likes, h.cfg.Gravatar)
	})

	if err := h.feedCache.Set(c.Request.Context(), cacheKey, resp); err != nil {
		log.Debug("failed to cache recipe feed", "error", err)
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecipe returns a single recipe.
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := h.recipeIDParam(c)
	if !ok {
		return
	}

	recipe, err := h.db.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recipe"})
		return
	}

	likes, err := h.db.CountRecipeLikes(c.Request.Context(), recipe.ID)
	if err != nil {
		log.Warn("failed to count likes", "recipe", recipe.ID, "error", err)
	}
	resp := models.RecipeFromDB(recipe, likes, h.cfg.Gravatar)

	// annotate the like state for authenticated callers
	if userID, exists := c.Get(SessionUserKey); exists {
		if liked, err := h.db.HasLiked(c.Request.Context(), userID.(uint), recipe.ID); err == nil {
			resp.Liked = liked
		}
	}

	c.JSON(http.StatusOK, resp)
}

// CreateRecipe creates a recipe owned by the authenticated user.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req models.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe := database.Recipe{
		AuthorID:     currentUserID(c),
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	}
	if err := h.db.CreateRecipe(c.Request.Context(), &recipe); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recipe"})
		return
	}
	h.invalidateFeed(c)

	created, err := h.db.GetRecipe(c.Request.Context(), recipe.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recipe"})
		return
	}
	c.JSON(http.StatusCreated, models.RecipeFromDB(created, 0, h.cfg.Gravatar))
}

// UpdateRecipe updates a recipe. Only the author may update it.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	recipe, ok := h.ownedRecipe(c)
	if !ok {
		return
	}

	var req models.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe.Title = req.Title
	recipe.Ingredients = req.Ingredients
	recipe.Instructions = req.Instructions
	if err := h.db.UpdateRecipe(c.Request.Context(), recipe); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recipe"})
		return
	}
	h.invalidateFeed(c)

	likes, _ := h.db.CountRecipeLikes(c.Request.Context(), recipe.ID)
	c.JSON(http.StatusOK, models.RecipeFromDB(recipe, likes, h.cfg.Gravatar))
}

// DeleteRecipe deletes a recipe. Only the author may delete it.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	recipe, ok := h.ownedRecipe(c)
	if !ok {
		return
	}
	if err := h.db.DeleteRecipe(c.Request.Context(), recipe.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete recipe"})
		return
	}
	h.invalidateFeed(c)
	c.Status(http.StatusNoContent)
}

// LikeRecipe likes a recipe on behalf of the authenticated user. A duplicate
// like is rejected with 409 so clients can tell it apart from a first like.
func (h *Handler) LikeRecipe(c *gin.Context) {
	id, ok := h.recipeIDParam(c)
	if !ok {
		return
	}
	if _, err := h.db.GetRecipe(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	if _, err := h.db.LikeRecipe(c.Request.Context(), currentUserID(c), id); err != nil {
		if errors.Is(err, database.ErrAlreadyLiked) {
			c.JSON(http.StatusConflict, gin.H{"error": "already liked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like recipe"})
		return
	}
	h.invalidateFeed(c)
	c.Status(http.StatusCreated)
}

// UnlikeRecipe removes the authenticated user's like from a recipe.
func (h *Handler) UnlikeRecipe(c *gin.Context) {
	id, ok := h.recipeIDParam(c)
	if !ok {
		return
	}

	if err := h.db.UnlikeRecipe(c.Request.Context(), currentUserID(c), id); err != nil {
		if errors.Is(err, database.ErrNotLiked) {
			c.JSON(http.StatusConflict, gin.H{"error": "not liked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlike recipe"})
		return
	}
	h.invalidateFeed(c)
	c.Status(http.StatusNoContent)
}

// ownedRecipe loads the recipe from the :id parameter and verifies the
// authenticated user is its author.
func (h *Handler) ownedRecipe(c *gin.Context) (*database.Recipe, bool) {
	id, ok := h.recipeIDParam(c)
	if !ok {
		return nil, false
	}

	recipe, err := h.db.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recipe"})
		return nil, false
	}
	if recipe.AuthorID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
		return nil, false
	}
	return recipe, true
}

func (h *Handler) invalidateFeed(c *gin.Context) {
	if err := h.feedCache.Clear(c.Request.Context()); err != nil {
		log.Debug("failed to invalidate feed cache", "error", err)
	}
}
