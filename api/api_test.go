package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simmerhq/simmer/api/models"
	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/scheduler"
)

func newTestServer(t *testing.T) (*Server, *database.Client) {
	t.Helper()

	cfg := &config.Config{
		Listen:        "127.0.0.1:0",
		ServerURL:     "http://localhost:3002",
		SessionKey:    "test-session-key",
		SessionMaxAge: 3600,
		Database:      &config.DatabaseConfig{Path: t.TempDir()},
		Digest: &config.DigestConfig{
			JobName: "daily-like-digest",
		},
		Cache: &config.CacheConfig{Type: "memory", TTLSeconds: 60},
		Gravatar: &config.GravatarConfig{
			Enabled:      true,
			DefaultImage: "identicon",
			Rating:       "g",
			Size:         80,
		},
	}

	db, err := database.New(cfg.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	sched, err := scheduler.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sched.Stop()
	})

	s := New(cfg, db, sched, false)
	s.setupRoutes()
	return s, db
}

func doRequest(t *testing.T, s *Server, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.ginEngine.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, s *Server, name string) []*http.Cookie {
	t.Helper()

	w := doRequest(t, s, http.MethodPost, "/api/users/register", models.RegisterRequest{
		Email:    name + "@example.com",
		Username: name,
		Password: "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return w.Result().Cookies()
}

func createRecipe(t *testing.T, s *Server, cookies []*http.Cookie, title string) models.RecipeResponse {
	t.Helper()

	w := doRequest(t, s, http.MethodPost, "/api/recipes", models.RecipeRequest{
		Title:        title,
		Ingredients:  "flour, water",
		Instructions: "mix and bake",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var recipe models.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipe))
	return recipe
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	s, _ := newTestServer(t)
	registerUser(t, s, "alice")

	// duplicate email is rejected
	w := doRequest(t, s, http.MethodPost, "/api/users/register", models.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "hunter2hunter2",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, s, http.MethodPost, "/api/users/login", models.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, s, http.MethodPost, "/api/users/login", models.LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/users/me", nil, w.Result().Cookies())
	require.Equal(t, http.StatusOK, w.Code)

	var user models.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)

	// no session, no profile
	w = doRequest(t, s, http.MethodGet, "/api/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLikeFlow(t *testing.T) {
	s, _ := newTestServer(t)
	author := registerUser(t, s, "author")
	liker := registerUser(t, s, "liker")

	recipe := createRecipe(t, s, author, "Sourdough")
	likePath := fmt.Sprintf("/api/recipes/%d/like", recipe.ID)

	// anonymous likes are rejected
	w := doRequest(t, s, http.MethodPost, likePath, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, s, http.MethodPost, likePath, nil, liker)
	assert.Equal(t, http.StatusCreated, w.Code)

	// a second like by the same user is a conflict
	w = doRequest(t, s, http.MethodPost, likePath, nil, liker)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/recipes/%d", recipe.ID), nil, liker)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.EqualValues(t, 1, got.Likes)
	assert.True(t, got.Liked)

	w = doRequest(t, s, http.MethodDelete, likePath, nil, liker)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, s, http.MethodDelete, likePath, nil, liker)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLikeMissingRecipe(t *testing.T) {
	s, _ := newTestServer(t)
	liker := registerUser(t, s, "liker")

	w := doRequest(t, s, http.MethodPost, "/api/recipes/999/like", nil, liker)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedAndOwnership(t *testing.T) {
	s, _ := newTestServer(t)
	author := registerUser(t, s, "author")
	other := registerUser(t, s, "other")

	createRecipe(t, s, author, "Ramen")
	second := createRecipe(t, s, author, "Paella")

	// the feed is public and newest first
	w := doRequest(t, s, http.MethodGet, "/api/recipes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed []models.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed, 2)
	assert.Equal(t, "Paella", feed[0].Title)
	assert.Equal(t, "author", feed[0].Author.Username)
	assert.Empty(t, feed[0].Author.Email)

	// only the author may edit
	w = doRequest(t, s, http.MethodPut, fmt.Sprintf("/api/recipes/%d", second.ID), models.RecipeRequest{
		Title: "Stolen Paella",
	}, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/recipes/%d", second.ID), nil, author)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/recipes", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "Ramen", feed[0].Title)
}

func TestBookmarks(t *testing.T) {
	s, _ := newTestServer(t)
	author := registerUser(t, s, "author")
	reader := registerUser(t, s, "reader")

	recipe := createRecipe(t, s, author, "Gazpacho")

	w := doRequest(t, s, http.MethodPost, "/api/users/me/bookmarks", models.BookmarkRequest{
		RecipeID: recipe.ID,
	}, reader)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/users/me/bookmarks", nil, reader)
	require.Equal(t, http.StatusOK, w.Code)
	var bookmarks []models.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bookmarks))
	require.Len(t, bookmarks, 1)
	assert.Equal(t, "Gazpacho", bookmarks[0].Title)

	w = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/users/me/bookmarks/%d", recipe.ID), nil, reader)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiresAdmin(t *testing.T) {
	s, _ := newTestServer(t)
	user := registerUser(t, s, "mortal")

	w := doRequest(t, s, http.MethodGet, "/api/admin/stats", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, s, http.MethodPost, "/api/admin/digest/run", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAccessAfterGrant(t *testing.T) {
	s, db := newTestServer(t)
	registerUser(t, s, "root")

	_, err := db.SetUserAdmin(context.Background(), "root@example.com", true)
	require.NoError(t, err)

	// the admin flag is read at login time
	w := doRequest(t, s, http.MethodPost, "/api/users/login", models.LoginRequest{
		Email:    "root@example.com",
		Password: "hunter2hunter2",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/admin/stats", nil, w.Result().Cookies())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uptime")
}
