package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/simmerhq/simmer/api/models"
	"github.com/simmerhq/simmer/database"
)

// Register creates a new user account.
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	user := database.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := h.db.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "email or username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	h.startSession(c, &user)
	c.JSON(http.StatusCreated, models.UserFromDB(&user, h.cfg.Gravatar))
}

// Login authenticates a user by email and password.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.startSession(c, user)
	c.JSON(http.StatusOK, models.UserFromDB(user, h.cfg.Gravatar))
}

// Logout terminates the current session.
func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Error("failed to clear session", "error", err)
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) startSession(c *gin.Context, user *database.User) {
	session := sessions.Default(c)
	session.Set(SessionUserKey, user.ID)
	session.Set("admin", user.Admin)
	if err := session.Save(); err != nil {
		log.Error("failed to save session", "user", user.ID, "error", err)
	}
}

// Me returns the profile of the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.db.GetUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, models.UserFromDB(user, h.cfg.Gravatar))
}

// UpdateMe updates the profile of the authenticated user.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req models.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	user.Bio = req.Bio

	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, models.UserFromDB(user, h.cfg.Gravatar))
}

// ChangePassword changes the password of the authenticated user.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req models.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong password"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		return
	}
	user.PasswordHash = string(hash)
	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBookmarks returns the bookmarked recipes of the authenticated user.
func (h *Handler) ListBookmarks(c *gin.Context) {
	recipes, err := h.db.ListBookmarks(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookmarks"})
		return
	}

	resp := lo.Map(recipes, func(recipe database.Recipe, _ int) models.RecipeResponse {
		likes, err := h.db.CountRecipeLikes(c.Request.Context(), recipe.ID)
		if err != nil {
			log.Warn("failed to count likes", "recipe", recipe.ID, "error", err)
		}
		return models.RecipeFromDB(&recipe, likes, h.cfg.Gravatar)
	})
	c.JSON(http.StatusOK, resp)
}

// AddBookmark bookmarks a recipe for the authenticated user.
func (h *Handler) AddBookmark(c *gin.Context) {
	var req models.BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.AddBookmark(c.Request.Context(), currentUserID(c), req.RecipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add bookmark"})
		return
	}
	c.Status(http.StatusOK)
}

// RemoveBookmark removes a bookmark of the authenticated user.
func (h *Handler) RemoveBookmark(c *gin.Context) {
	recipeID, ok := h.recipeIDParam(c)
	if !ok {
		return
	}
	if err := h.db.RemoveBookmark(c.Request.Context(), currentUserID(c), recipeID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove bookmark"})
		return
	}
	c.Status(http.StatusOK)
}

// SubscribePush registers a web push subscription for the authenticated user.
func (h *Handler) SubscribePush(c *gin.Context) {
	var req models.PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := database.PushSubscription{
		UserID:   currentUserID(c),
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.db.SavePushSubscription(c.Request.Context(), &sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}
	c.Status(http.StatusCreated)
}

// recipeIDParam parses the :id path parameter.
func (h *Handler) recipeIDParam(c *gin.Context) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return 0, false
	}
	id, err := safecast.ToUint(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return 0, false
	}
	return id, true
}
