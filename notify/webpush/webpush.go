package webpush

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/charmbracelet/log"

	"github.com/simmerhq/simmer/config"
	"github.com/simmerhq/simmer/database"
)

// SubscriptionStore is the subset of the database used by the push client.
type SubscriptionStore interface {
	ListPushSubscriptions(ctx context.Context, userID uint) ([]database.PushSubscription, error)
	DeletePushSubscription(ctx context.Context, endpoint string) error
}

// Client sends web push notifications to a user's registered browsers.
type Client struct {
	config *config.WebPushConfig
	store  SubscriptionStore
}

// Payload is the JSON document delivered to the service worker.
type Payload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// New creates a new webpush client.
func New(cfg *config.WebPushConfig, store SubscriptionStore) *Client {
	return &Client{config: cfg, store: store}
}

// GenerateVAPIDKeys generates a new VAPID key pair.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}

// Enabled reports whether webpush delivery is configured and turned on.
func (c *Client) Enabled() bool {
	return c.config != nil && c.config.Enabled
}

// PublicKey returns the VAPID public key for client subscription.
func (c *Client) PublicKey() string {
	return c.config.PublicKey
}

// SendToUser pushes the payload to every subscription of the given user.
// Subscriptions the push service reports as gone are pruned. An error is
// returned only when no subscription could be reached.
func (c *Client) SendToUser(ctx context.Context, userID uint, payload Payload) error {
	if !c.Enabled() {
		return nil
	}

	subs, err := c.store.ListPushSubscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	var delivered int
	for _, sub := range subs {
		resp, err := webpush.SendNotification(body, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      c.config.VAPIDEmail,
			VAPIDPublicKey:  c.config.PublicKey,
			VAPIDPrivateKey: c.config.PrivateKey,
			TTL:             60,
		})
		if err != nil {
			log.Warn("Failed to send push notification", "user", userID, "error", err)
			continue
		}
		//nolint:errcheck
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			log.Debug("Pruning expired push subscription", "user", userID)
			if err := c.store.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
				log.Warn("Failed to prune push subscription", "user", userID, "error", err)
			}
		default:
			delivered++
		}
	}

	if delivered == 0 {
		return fmt.Errorf("no push subscription reachable for user %d", userID)
	}
	return nil
}
