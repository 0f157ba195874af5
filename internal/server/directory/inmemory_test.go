package directory

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_CreateReturnsCopies(t *testing.T) {
	r := NewInMemoryRepository()
	ctx := context.Background()

	u := &models.User{ID: "u1", Username: "alice", SessionID: "s1", NetworkKey: "k1"}
	require.NoError(t, r.Create(ctx, u))

	// mutating the original must not affect the stored record
	u.SessionID = "mutated"

	got, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)

	// and mutating a returned record must not affect storage either
	got.NetworkKey = "mutated"
	again, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "k1", again.NetworkKey)
}

func TestInMemory_UpdateSessionReplacesPairTogether(t *testing.T) {
	r := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &models.User{ID: "u1", SessionID: "s1", NetworkKey: "k1"}))

	now := time.Now()
	updated, err := r.UpdateSession(ctx, "u1", "s2", "k2", now)
	require.NoError(t, err)
	assert.Equal(t, "s2", updated.SessionID)
	assert.Equal(t, "k2", updated.NetworkKey)
	assert.WithinDuration(t, now, updated.LastLogin, time.Second)

	_, err = r.UpdateSession(ctx, "missing", "s", "k", now)
	assert.ErrorIs(t, err, shared.ErrorNotFound)
}

func TestInMemory_GetUnknown(t *testing.T) {
	r := NewInMemoryRepository()

	_, err := r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, shared.ErrorNotFound)
}

func TestInMemory_List(t *testing.T) {
	r := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &models.User{ID: "u1"}))
	require.NoError(t, r.Create(ctx, &models.User{ID: "u2"}))

	users, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestInMemory_Connections(t *testing.T) {
	r := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &models.User{ID: "u1"}))
	require.NoError(t, r.Create(ctx, &models.User{ID: "u2"}))

	require.NoError(t, r.AddConnection(ctx, "u1", "u2"))
	require.NoError(t, r.AddConnection(ctx, "u1", "u2"))

	a, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	b, err := r.Get(ctx, "u2")
	require.NoError(t, err)

	assert.Equal(t, []string{"u2"}, a.Connections)
	assert.Equal(t, []string{"u1"}, b.Connections)
}

func TestInMemory_IncrementMessageCount(t *testing.T) {
	r := NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, &models.User{ID: "u1"}))

	require.NoError(t, r.IncrementMessageCount(ctx, "u1"))
	require.NoError(t, r.IncrementMessageCount(ctx, "u1"))

	got, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.MessageCount)

	assert.ErrorIs(t, r.IncrementMessageCount(ctx, "missing"), shared.ErrorNotFound)
}
