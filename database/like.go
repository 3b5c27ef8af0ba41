package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// RecipeLike records that a user liked a recipe at a given time.
// The composite unique index enforces at most one like per (user, recipe)
// pair at the store level, so concurrent duplicate requests race on the
// index instead of on application logic.
//
// Likes are hard-deleted on unlike. A soft delete would keep the unique
// index occupied and block a later re-like.
type RecipeLike struct {
	ID        uint `gorm:"primarykey"`
	UserID    uint `gorm:"uniqueIndex:idx_user_recipe;not null"`
	RecipeID  uint `gorm:"uniqueIndex:idx_user_recipe;not null"`
	CreatedAt time.Time
}

// LikeRecipe creates a like for the given user and recipe. It returns
// ErrAlreadyLiked if the user already liked the recipe, so callers can tell
// a first like from a duplicate attempt.
func (c *Client) LikeRecipe(ctx context.Context, userID, recipeID uint) (*RecipeLike, error) {
	like := RecipeLike{
		UserID:   userID,
		RecipeID: recipeID,
	}
	if err := c.db.WithContext(ctx).Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyLiked
		}
		log.Error("failed to like recipe", "user", userID, "recipe", recipeID, "error", err)
		return nil, err
	}
	return &like, nil
}

// UnlikeRecipe removes the like of the given user on the given recipe.
// It returns ErrNotLiked when there is nothing to remove.
func (c *Client) UnlikeRecipe(ctx context.Context, userID, recipeID uint) error {
	result := c.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&RecipeLike{})
	if result.Error != nil {
		log.Error("failed to unlike recipe", "user", userID, "recipe", recipeID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotLiked
	}
	return nil
}

// CountRecipeLikes returns the number of likes on a single recipe.
func (c *Client) CountRecipeLikes(ctx context.Context, recipeID uint) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&RecipeLike{}).
		Where("recipe_id = ?", recipeID).
		Count(&count).Error
	return count, err
}

// CountLikesReceivedSince counts likes created at or after since on recipes
// authored by the given user. The join goes through the recipe's author, not
// the like's user: the digest reports likes received, not likes performed.
func (c *Client) CountLikesReceivedSince(ctx context.Context, authorID uint, since time.Time) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&RecipeLike{}).
		Joins("JOIN recipes ON recipes.id = recipe_likes.recipe_id").
		Where("recipes.author_id = ? AND recipes.deleted_at IS NULL AND recipe_likes.created_at >= ?", authorID, since).
		Count(&count).Error
	if err != nil {
		log.Error("failed to count likes received", "author", authorID, "error", err)
		return 0, err
	}
	return count, nil
}

// HasLiked reports whether the user currently likes the recipe.
func (c *Client) HasLiked(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&RecipeLike{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}
