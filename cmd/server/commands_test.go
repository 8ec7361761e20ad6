package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskkeeper/internal/config"
	"github.com/phrazzld/taskkeeper/internal/mocks"
	"github.com/phrazzld/taskkeeper/internal/service"
	"github.com/phrazzld/taskkeeper/internal/service/auth"
	"github.com/phrazzld/taskkeeper/internal/store"
)

// stubRuntime swaps the runtime loader for the duration of a test.
func stubRuntime(t *testing.T, fn func() (*config.Config, *slog.Logger, error)) {
	t.Helper()
	orig := runtimeLoader
	runtimeLoader = fn
	t.Cleanup(func() { runtimeLoader = orig })
}

func executeRoot(args ...string) (string, error) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommands_ArgumentValidation(t *testing.T) {
	stubRuntime(t, func() (*config.Config, *slog.Logger, error) {
		t.Fatal("runtime must not load when arguments are invalid")
		return nil, nil, nil
	})

	tests := []struct {
		name string
		args []string
	}{
		{"unknown migrate command", []string{"migrate", "sideways"}},
		{"migrate without command", []string{"migrate"}},
		{"migrate with two commands", []string{"migrate", "up", "down"}},
		{"promote without username", []string{"promote"}},
		{"promote with two usernames", []string{"promote", "alice", "bob"}},
		{"serve with arguments", []string{"serve", "now"}},
		{"unknown subcommand", []string{"frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRoot(tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestCommands_RuntimeErrorPropagates(t *testing.T) {
	loadErr := errors.New("config validation failed")
	stubRuntime(t, func() (*config.Config, *slog.Logger, error) {
		return nil, nil, loadErr
	})

	for _, args := range [][]string{{}, {"serve"}, {"migrate", "up"}, {"promote", "alice"}} {
		_, err := executeRoot(args...)
		assert.ErrorIs(t, err, loadErr, "args %v", args)
	}
}

func TestCommands_Help(t *testing.T) {
	out, err := executeRoot("--help")

	require.NoError(t, err)
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "migrate")
	assert.Contains(t, out, "promote")
}

func TestPromoteUser(t *testing.T) {
	users := mocks.NewMockUserStore()
	svc, err := service.NewUserService(users, auth.NewBcryptVerifier(), discardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	registered, err := svc.Register(ctx, "alice", testPassword)
	require.NoError(t, err)

	t.Run("existing user", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, promoteUser(ctx, svc, "alice", &out))

		assert.Contains(t, out.String(), "User 'alice'")
		assert.Contains(t, out.String(), registered.ID.String())
		stored, err := users.GetByID(ctx, registered.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsAdmin())
	})

	t.Run("already admin", func(t *testing.T) {
		assert.NoError(t, promoteUser(ctx, svc, "alice", &bytes.Buffer{}))
	})

	t.Run("unknown user", func(t *testing.T) {
		var out bytes.Buffer

		err := promoteUser(ctx, svc, "nobody", &out)

		assert.ErrorIs(t, err, store.ErrUserNotFound)
		assert.Empty(t, out.String())
	})
}
