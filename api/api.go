// Package api wires the gin HTTP server of Simmer.
package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/simmerhq/simmer/api/handler"
	"github.com/simmerhq/simmer/api/models"
	"github.com/simmerhq/simmer/cache"
	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/scheduler"
)

// Server is the Simmer HTTP API server.
type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	handler   *handler.Handler
}

// New creates a new API server.
func New(cfg *config.Config, db *database.Client, sched *scheduler.Scheduler, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	feedCache := cache.New[[]models.RecipeResponse](cfg.Cache, "feed:")

	return &Server{
		cfg:       cfg,
		ginEngine: gin.Default(),
		handler:   handler.New(db, cfg, feedCache, sched),
	}
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions("simmer_session", store))
}

func (s *Server) setupRoutes() {
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()

	h := s.handler

	s.ginEngine.GET("/health", h.Health)

	api := s.ginEngine.Group("/api")

	users := api.Group("/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/logout", h.Logout)

	me := users.Group("/me", requireAuth())
	me.GET("", h.Me)
	me.PUT("", h.UpdateMe)
	me.PUT("/password", h.ChangePassword)
	me.GET("/bookmarks", h.ListBookmarks)
	me.POST("/bookmarks", h.AddBookmark)
	me.DELETE("/bookmarks/:id", h.RemoveBookmark)
	me.POST("/push-subscriptions", h.SubscribePush)

	recipes := api.Group("/recipes")
	recipes.GET("", h.ListRecipes)
	recipes.GET("/:id", optionalAuth(), h.GetRecipe)

	authed := recipes.Group("", requireAuth())
	authed.POST("", h.CreateRecipe)
	authed.PUT("/:id", h.UpdateRecipe)
	authed.DELETE("/:id", h.DeleteRecipe)
	authed.POST("/:id/like", h.LikeRecipe)
	authed.DELETE("/:id/like", h.UnlikeRecipe)

	admin := api.Group("/admin", requireAuth(), requireAdmin())
	admin.GET("/stats", h.AdminStats)
	admin.POST("/digest/run", h.RunDigest)
}

// requireAuth aborts unauthenticated requests.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(handler.SessionUserKey).(uint)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(handler.SessionUserKey, userID)
		c.Next()
	}
}

// optionalAuth annotates the context with the user ID when a session exists
// but lets anonymous requests through.
func optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(handler.SessionUserKey).(uint); ok {
			c.Set(handler.SessionUserKey, userID)
		}
		c.Next()
	}
}

// requireAdmin aborts requests of non-admin users.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if admin, ok := session.Get("admin").(bool); !ok || !admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin required"})
			return
		}
		c.Next()
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	s.setupRoutes()
	return s.ginEngine.Run(s.cfg.Listen)
}
