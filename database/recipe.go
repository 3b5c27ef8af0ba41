package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Recipe is a recipe owned by exactly one author.
type Recipe struct {
	gorm.Model
	AuthorID     uint   `gorm:"index;not null"`
	Author       User   `gorm:"foreignKey:AuthorID"`
	Title        string `gorm:"not null"`
	Ingredients  string
	Instructions string
}

func (c *Client) CreateRecipe(ctx context.Context, recipe *Recipe) error {
	if err := c.db.WithContext(ctx).Create(recipe).Error; err != nil {
		log.Error("failed to create recipe", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetRecipe(ctx context.Context, id uint) (*Recipe, error) {
	var recipe Recipe
	if err := c.db.WithContext(ctx).Preload("Author").First(&recipe, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get recipe", "id", id, "error", err)
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns recipes ordered newest first.
func (c *Client) ListRecipes(ctx context.Context, limit, offset int) ([]Recipe, error) {
	var recipes []Recipe
	err := c.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recipes).Error
	if err != nil {
		log.Error("failed to list recipes", "error", err)
		return nil, err
	}
	return recipes, nil
}

func (c *Client) UpdateRecipe(ctx context.Context, recipe *Recipe) error {
	return c.db.WithContext(ctx).Save(recipe).Error
}

// DeleteRecipe removes a recipe and all likes attached to it.
func (c *Client) DeleteRecipe(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&RecipeLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Recipe{}, id).Error
	})
}
