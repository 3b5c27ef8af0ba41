package database

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// PushSubscription is a browser push subscription owned by a user.
type PushSubscription struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null"`
	Endpoint string `gorm:"uniqueIndex;not null"`
	P256dh   string `gorm:"not null"`
	Auth     string `gorm:"not null"`
}

// SavePushSubscription stores a subscription. Re-registering an existing
// endpoint is a no-op.
func (c *Client) SavePushSubscription(ctx context.Context, sub *PushSubscription) error {
	if err := c.db.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		log.Error("failed to save push subscription", "user", sub.UserID, "error", err)
		return err
	}
	return nil
}

func (c *Client) ListPushSubscriptions(ctx context.Context, userID uint) ([]PushSubscription, error) {
	var subs []PushSubscription
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// DeletePushSubscription removes a subscription by endpoint, used when the
// push service reports it gone.
func (c *Client) DeletePushSubscription(ctx context.Context, endpoint string) error {
	return c.db.WithContext(ctx).Unscoped().Where("endpoint = ?", endpoint).Delete(&PushSubscription{}).Error
}
