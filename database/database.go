package database

import (
	"errors"
	"fmt"
	"path"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Sentinel errors returned by the store. Handlers map these to HTTP statuses.
var (
	// ErrAlreadyLiked is returned when a user likes a recipe they already liked.
	ErrAlreadyLiked = errors.New("recipe already liked")
	// ErrNotLiked is returned when a user unlikes a recipe they never liked.
	ErrNotLiked = errors.New("recipe not liked")
)

// Client wraps the gorm.DB instance.
type Client struct {
	db *gorm.DB
}

// New creates a new database connection and performs migrations.
func New(dbpath string) (*Client, error) {
	db, err := gorm.Open(sqlite.Open(path.Join(dbpath, "simmer.db")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&Recipe{},
		&RecipeLike{},
		&Schedule{},
		&PushSubscription{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
