package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/peerlink/internal/credentials"
	"github.com/dmitrijs2005/peerlink/internal/keycodec"
	"github.com/dmitrijs2005/peerlink/internal/logging"
	"github.com/dmitrijs2005/peerlink/internal/server/models"
	"github.com/dmitrijs2005/peerlink/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewInMemoryRepository(), credentials.NewIssuer(), logging.NopLogger{})
}

func testPublicKey(t *testing.T) string {
	t.Helper()
	kp, err := keycodec.Generate()
	require.NoError(t, err)
	pem, err := keycodec.EncodePublic(kp.Public)
	require.NoError(t, err)
	return pem
}

func TestRegister(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	pub := testPublicKey(t)

	user, err := s.Register(ctx, "alice", pub)
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, pub, user.PublicKey)
	assert.NotEmpty(t, user.SessionID)
	assert.Len(t, user.NetworkKey, credentials.NetworkKeySize*2)
	assert.True(t, user.IsActive)
}

func TestRegister_InvalidPublicKey(t *testing.T) {
	s := newTestService()

	_, err := s.Register(context.Background(), "alice", "not a key")
	assert.ErrorIs(t, err, keycodec.ErrInvalidKey)
}

func TestRegister_UsernamesMayRepeat(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	a, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)
	b, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestLookup_PublicKeyStableAcrossLogins(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	pub := testPublicKey(t)

	user, err := s.Register(ctx, "alice", pub)
	require.NoError(t, err)

	for range 3 {
		_, err := s.Login(ctx, user.ID)
		require.NoError(t, err)
	}

	view, err := s.Lookup(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pub, view.PublicKey)
}

func TestLogin_RotatesBothCredentials(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)

	first, err := s.Login(ctx, user.ID)
	require.NoError(t, err)
	second, err := s.Login(ctx, user.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.NetworkKey, second.NetworkKey)

	// lookup reflects only the latest pair
	view, err := s.Lookup(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.SessionID, view.SessionID)
}

func TestLogin_UnknownID(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Login(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrorNotFound)

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users, "failed login must not create state")
}

func TestRefreshSession(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)

	creds, err := s.RefreshSession(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, user.SessionID, creds.SessionID)
	assert.NotEqual(t, user.NetworkKey, creds.NetworkKey)

	_, err = s.RefreshSession(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrorNotFound)
}

func TestLookup_DoesNotExposeNetworkKey(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)

	view, err := s.Lookup(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, &models.PublicUser{
		ID:        user.ID,
		Username:  "alice",
		PublicKey: user.PublicKey,
		SessionID: user.SessionID,
	}, view)
}

func TestList_RedactsNetworkKey(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)
	_, err = s.Register(ctx, "bob", testPublicKey(t))
	require.NoError(t, err)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.NetworkKey)
		assert.NotEmpty(t, u.PublicKey)
	}
}

// Two logins racing for the same id must leave the directory with exactly
// one of the two returned credential pairs, never a hybrid.
func TestLogin_ConcurrentRotationIsAtomic(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)

	const workers = 8
	results := make([]*models.User, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := s.Login(ctx, user.ID)
			require.NoError(t, err)
			results[i] = u
		}()
	}
	wg.Wait()

	persisted, err := s.repo.Get(ctx, user.ID)
	require.NoError(t, err)

	matched := false
	for _, r := range results {
		if r.SessionID == persisted.SessionID {
			assert.Equal(t, r.NetworkKey, persisted.NetworkKey,
				"persisted record mixes credentials from two rotations")
			matched = true
		}
	}
	assert.True(t, matched, "persisted credentials do not belong to any login result")
}

func TestRecordConnection_And_BumpMessageCount(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	a, err := s.Register(ctx, "alice", testPublicKey(t))
	require.NoError(t, err)
	b, err := s.Register(ctx, "bob", testPublicKey(t))
	require.NoError(t, err)

	s.RecordConnection(ctx, a.ID, b.ID)
	s.RecordConnection(ctx, a.ID, b.ID) // idempotent
	s.BumpMessageCount(ctx, a.ID)

	got, err := s.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, got.Connections)
	assert.Equal(t, int64(1), got.MessageCount)

	// unknown ids are logged, not fatal
	s.RecordConnection(ctx, "nope", b.ID)
	s.BumpMessageCount(ctx, "nope")
}
