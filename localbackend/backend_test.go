package localbackend_test

import (
	"context"
	"testing"

	session "github.com/BustosAndrew/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end: client initialization, registration, and the reactive session
// settling over the real backend.
func TestSessionOverLocalBackend(t *testing.T) {
	backend, cfg := openTestBackend(t)
	ctx := context.Background()

	client := session.NewClient(backend, cfg)
	require.NoError(t, client.Initialize())

	manager, err := session.NewManager(client)
	require.NoError(t, err)
	defer manager.Close()
	require.NoError(t, manager.Start(ctx))

	st := manager.State()
	assert.Equal(t, session.PhaseUnauthenticated, st.Phase, "the stream resolves immediately to signed-out")

	ok := manager.Register(ctx, session.RegisterInput{
		Email:       "bob@x.com",
		Password:    "secret1",
		DisplayName: "Bob",
	})
	require.True(t, ok)

	st = manager.State()
	require.NotNil(t, st.Identity)
	assert.Equal(t, "bob@x.com", st.Identity.Email())
	assert.Equal(t, session.ProfileReady, st.ProfileStatus)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "Bob", st.Profile[session.FieldDisplayName])
	assert.NotEmpty(t, st.Profile[session.FieldDateCreated], "creation timestamp is server-assigned")

	require.True(t, manager.Logout(ctx))
	st = manager.State()
	assert.Nil(t, st.Identity)
	assert.Nil(t, st.Profile)
	assert.Empty(t, st.Errors)

	require.True(t, manager.Login(ctx, "bob@x.com", "secret1"))
	st = manager.State()
	require.NotNil(t, st.Identity)
	assert.Equal(t, session.ProfileReady, st.ProfileStatus)
}

func TestLoginWithoutProfileDocument(t *testing.T) {
	backend, cfg := openTestBackend(t)
	ctx := context.Background()

	auth, err := backend.NewIdentityService(cfg)
	require.NoError(t, err)

	// account without a profile document, as left behind by a failed
	// registration phase two
	_, err = auth.SignUp(ctx, "ghost@x.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, auth.SignOut(ctx))

	client := session.NewClient(backend, cfg)
	require.NoError(t, client.Initialize())

	manager, err := session.NewManager(client)
	require.NoError(t, err)
	defer manager.Close()
	require.NoError(t, manager.Start(ctx))

	require.True(t, manager.Login(ctx, "ghost@x.com", "secret1"))

	st := manager.State()
	require.NotNil(t, st.Identity)
	assert.Nil(t, st.Profile)
	assert.Equal(t, session.ProfileError, st.ProfileStatus)
	require.NotEmpty(t, st.Errors)
	assert.Contains(t, st.Errors[0], "no profile document found")
}
