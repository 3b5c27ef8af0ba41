package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSetUserAdmin(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	createTestUser(t, c, "alice")

	user, err := c.SetUserAdmin(ctx, "alice@example.com", true)
	require.NoError(t, err)
	require.True(t, user.Admin)

	// flag is persisted
	stored, err := c.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, stored.Admin)

	// granting again is a no-op
	user, err = c.SetUserAdmin(ctx, "alice@example.com", true)
	require.NoError(t, err)
	require.True(t, user.Admin)

	user, err = c.SetUserAdmin(ctx, "alice@example.com", false)
	require.NoError(t, err)
	require.False(t, user.Admin)
}

func TestSetUserAdmin_UnknownEmail(t *testing.T) {
	c := newTestClient(t)

	_, err := c.SetUserAdmin(context.Background(), "nobody@example.com", true)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
