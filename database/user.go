package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// User represents a registered user.
// Email doubles as the digest notification recipient address.
// Admin is a plain flag; there is no role system beyond it.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Bio          string
	Admin        bool
	Recipes      []Recipe `gorm:"foreignKey:AuthorID"`
	Bookmarks    []Recipe `gorm:"many2many:user_bookmarks"`
}

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if err != gorm.ErrDuplicatedKey {
			log.Error("failed to create user", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, user *User) error {
	return c.db.WithContext(ctx).Save(user).Error
}

// SetUserAdmin sets the admin flag of the user with the given email.
// Setting a flag that already has the requested value is a no-op.
func (c *Client) SetUserAdmin(ctx context.Context, email string, admin bool) (*User, error) {
	user, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Admin == admin {
		return user, nil
	}

	user.Admin = admin
	if err := c.db.WithContext(ctx).Model(user).Update("admin", admin).Error; err != nil {
		log.Error("failed to update admin flag", "user", user.ID, "error", err)
		return nil, err
	}
	return user, nil
}

// ForEachUserBatch streams all users in batches of batchSize, calling fn for
// every batch. It never loads the full user set into memory.
func (c *Client) ForEachUserBatch(ctx context.Context, batchSize int, fn func(users []User) error) error {
	var batch []User
	result := c.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	})
	return result.Error
}

// AddBookmark adds a recipe to the user's bookmarks. Bookmarking the same
// recipe twice is a no-op.
func (c *Client) AddBookmark(ctx context.Context, userID, recipeID uint) error {
	recipe, err := c.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	user := User{Model: gorm.Model{ID: userID}}
	return c.db.WithContext(ctx).Model(&user).Omit("Bookmarks.*").Association("Bookmarks").Append(recipe)
}

func (c *Client) RemoveBookmark(ctx context.Context, userID, recipeID uint) error {
	user := User{Model: gorm.Model{ID: userID}}
	return c.db.WithContext(ctx).Model(&user).Association("Bookmarks").Delete(&Recipe{Model: gorm.Model{ID: recipeID}})
}

func (c *Client) ListBookmarks(ctx context.Context, userID uint) ([]Recipe, error) {
	var recipes []Recipe
	user := User{Model: gorm.Model{ID: userID}}
	if err := c.db.WithContext(ctx).Model(&user).Preload("Author").Association("Bookmarks").Find(&recipes); err != nil {
		log.Error("failed to list bookmarks", "user", userID, "error", err)
		return nil, err
	}
	return recipes, nil
}
