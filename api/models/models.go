// Package models contains the request and response shapes of the HTTP API.
package models

import (
	"time"

	"github.com/mergestat/timediff"

	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
	"github.com/simmerhq/simmer/gravatar"
)

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PasswordChangeRequest is the payload for changing the password.
type PasswordChangeRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ProfileUpdateRequest is the payload for updating the own profile.
type ProfileUpdateRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=32"`
	Bio      string `json:"bio" binding:"max=500"`
}

// RecipeRequest is the payload for creating or updating a recipe.
type RecipeRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
}

// BookmarkRequest is the payload for adding a bookmark.
type BookmarkRequest struct {
	RecipeID uint `json:"id" binding:"required"`
}

// PushSubscriptionRequest is the payload for registering a push subscription.
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Admin     bool   `json:"admin,omitempty"`
}

// RecipeResponse is the public representation of a recipe.
type RecipeResponse struct {
	ID           uint         `json:"id"`
	Title        string       `json:"title"`
	Ingredients  string       `json:"ingredients"`
	Instructions string       `json:"instructions"`
	Author       UserResponse `json:"author"`
	Likes        int64        `json:"likes"`
	Liked        bool         `json:"liked,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	CreatedAgo   string       `json:"createdAgo"`
}

// UserFromDB converts a database user into its own-profile representation.
func UserFromDB(user *database.User, gravatarCfg *config.GravatarConfig) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Bio:       user.Bio,
		AvatarURL: gravatar.URL(user.Email, gravatarCfg),
		Admin:     user.Admin,
	}
}

// AuthorFromDB converts a database user into its public author representation,
// omitting the email address.
func AuthorFromDB(user *database.User, gravatarCfg *config.GravatarConfig) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: gravatar.URL(user.Email, gravatarCfg),
	}
}

// RecipeFromDB converts a database recipe into its API representation.
func RecipeFromDB(recipe *database.Recipe, likes int64, gravatarCfg *config.GravatarConfig) RecipeResponse {
	return RecipeResponse{
		ID:           recipe.ID,
		Title:        recipe.Title,
		Ingredients:  recipe.Ingredients,
		Instructions: recipe.Instructions,
		Author:       AuthorFromDB(&recipe.Author, gravatarCfg),
		Likes:        likes,
		CreatedAt:    recipe.CreatedAt,
		CreatedAgo:   timediff.TimeDiff(recipe.CreatedAt),
	}
}
