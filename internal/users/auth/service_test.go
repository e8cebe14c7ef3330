// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/sec"
	"github.com/taibuivan/veyra/internal/users/auth"
)

// # Test Fixtures

type fakeUserRepository struct {
	users map[string]*auth.User // keyed by ID
}

func (repo *fakeUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User not found with this email")
}

func (repo *fakeUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User not found with this username")
}

func (repo *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeUserRepository) Update(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	if user, ok := repo.users[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repo *fakeUserRepository) SoftDelete(_ context.Context, id string) error {
	delete(repo.users, id)
	return nil
}

type fakeSessionRepository struct {
	sessions map[string]*auth.Session // keyed by token hash
}

func (repo *fakeSessionRepository) Create(_ context.Context, session *auth.Session) error {
	repo.sessions[session.TokenHash] = session
	return nil
}

func (repo *fakeSessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	if session, ok := repo.sessions[tokenHash]; ok {
		return session, nil
	}
	return nil, apperr.NotFound("Session not found or expired")
}

func (repo *fakeSessionRepository) Revoke(_ context.Context, tokenHash string) error {
	delete(repo.sessions, tokenHash)
	return nil
}

func (repo *fakeSessionRepository) RevokeAll(_ context.Context, userID string) error {
	for hash, session := range repo.sessions {
		if session.UserID == userID {
			delete(repo.sessions, hash)
		}
	}
	return nil
}

func (repo *fakeSessionRepository) RevokeOthers(_ context.Context, userID, currentTokenHash string) error {
	for hash, session := range repo.sessions {
		if session.UserID == userID && hash != currentTokenHash {
			delete(repo.sessions, hash)
		}
	}
	return nil
}

type fakeResetTokenRepository struct {
	tokens map[string]string
}

func (repo *fakeResetTokenRepository) Set(_ context.Context, token, userID string, _ time.Duration) error {
	repo.tokens[token] = userID
	return nil
}

func (repo *fakeResetTokenRepository) Get(_ context.Context, token string) (string, error) {
	if userID, ok := repo.tokens[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Reset token is invalid or expired")
}

func (repo *fakeResetTokenRepository) Delete(_ context.Context, token string) error {
	delete(repo.tokens, token)
	return nil
}

type fakeTokenProvider struct{}

func (fakeTokenProvider) GenerateAccessToken(userID, username, role string, _ time.Duration) (string, error) {
	return "jwt:" + userID + ":" + username + ":" + role, nil
}

func newService(t *testing.T) (*auth.Service, *fakeUserRepository, *fakeSessionRepository, *fakeResetTokenRepository) {
	t.Helper()
	users := &fakeUserRepository{users: map[string]*auth.User{}}
	sessions := &fakeSessionRepository{sessions: map[string]*auth.Session{}}
	resets := &fakeResetTokenRepository{tokens: map[string]string{}}
	service := auth.NewService(users, sessions, resets, fakeTokenProvider{})
	return service, users, sessions, resets
}

func register(t *testing.T, service *auth.Service) *auth.User {
	t.Helper()
	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	return user
}

// # Registration Tests

func TestService_Register(t *testing.T) {
	t.Run("creates_member_with_hashed_password", func(t *testing.T) {
		service, users, _, _ := newService(t)

		user := register(t, service)
		assert.Equal(t, sec.RoleMember, user.Role)
		assert.NotEqual(t, "correct horse", user.PasswordHash)
		assert.True(t, sec.CheckPasswordHash("correct horse", user.PasswordHash))
		assert.Len(t, users.users, 1)
	})

	t.Run("duplicate_email_conflict", func(t *testing.T) {
		service, _, _, _ := newService(t)
		register(t, service)

		_, err := service.Register(context.Background(), auth.RegisterInput{
			Username: "other",
			Email:    "gopher@example.com",
			Password: "correct horse",
		})
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("duplicate_username_conflict", func(t *testing.T) {
		service, _, _, _ := newService(t)
		register(t, service)

		_, err := service.Register(context.Background(), auth.RegisterInput{
			Username: "gopher",
			Email:    "other@example.com",
			Password: "correct horse",
		})
		assert.True(t, apperr.IsConflict(err))
	})
}

// # Session Tests

func TestService_Login(t *testing.T) {
	t.Run("valid_credentials_establish_session", func(t *testing.T) {
		service, _, sessions, _ := newService(t)
		user := register(t, service)

		session, err := service.Login(context.Background(), auth.LoginInput{
			Login:    "gopher@example.com",
			Password: "correct horse",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.Equal(t, user.ID, session.User.ID)

		stored, err := sessions.FindByTokenHash(context.Background(), sec.HashToken(session.RefreshToken))
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.UserID)
	})

	t.Run("username_login_also_accepted", func(t *testing.T) {
		service, _, _, _ := newService(t)
		register(t, service)

		_, err := service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "correct horse"})
		require.NoError(t, err)
	})

	t.Run("wrong_password_unauthorized", func(t *testing.T) {
		service, _, _, _ := newService(t)
		register(t, service)

		_, err := service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "wrong"})
		assert.True(t, apperr.IsUnauthorized(err))
	})

	t.Run("unknown_identity_unauthorized", func(t *testing.T) {
		service, _, _, _ := newService(t)

		_, err := service.Login(context.Background(), auth.LoginInput{Login: "nobody", Password: "whatever"})
		assert.True(t, apperr.IsUnauthorized(err))
	})
}

func TestService_RefreshSession(t *testing.T) {
	t.Run("rotation_revokes_old_token", func(t *testing.T) {
		service, _, sessions, _ := newService(t)
		register(t, service)
		session, err := service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "correct horse"})
		require.NoError(t, err)

		rotated, err := service.RefreshSession(context.Background(), session.RefreshToken, "", "")
		require.NoError(t, err)
		assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

		// The original token is now dead.
		_, err = sessions.FindByTokenHash(context.Background(), sec.HashToken(session.RefreshToken))
		assert.True(t, apperr.IsNotFound(err))

		_, err = service.RefreshSession(context.Background(), session.RefreshToken, "", "")
		assert.True(t, apperr.IsUnauthorized(err))
	})

	t.Run("garbage_token_unauthorized", func(t *testing.T) {
		service, _, _, _ := newService(t)

		_, err := service.RefreshSession(context.Background(), "not-a-token", "", "")
		assert.True(t, apperr.IsUnauthorized(err))
	})
}

func TestService_Logout(t *testing.T) {
	service, _, sessions, _ := newService(t)
	register(t, service)
	session, err := service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), session.RefreshToken))
	assert.Empty(t, sessions.sessions)

	// Logging out a dead token is a no-op.
	require.NoError(t, service.Logout(context.Background(), session.RefreshToken))
}

// # Password Recovery Tests

func TestService_PasswordReset(t *testing.T) {
	t.Run("full_flow_revokes_sessions", func(t *testing.T) {
		service, _, sessions, _ := newService(t)
		register(t, service)
		_, err := service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "correct horse"})
		require.NoError(t, err)

		token, err := service.RequestPasswordReset(context.Background(), "gopher@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		require.NoError(t, service.ResetPassword(context.Background(), token, "battery staple"))
		assert.Empty(t, sessions.sessions)

		_, err = service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "battery staple"})
		require.NoError(t, err)

		// The token is single-use.
		err = service.ResetPassword(context.Background(), token, "again")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("unknown_email_yields_no_token", func(t *testing.T) {
		service, _, _, resets := newService(t)

		token, err := service.RequestPasswordReset(context.Background(), "ghost@example.com")
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.Empty(t, resets.tokens)
	})
}

func TestService_ChangePassword(t *testing.T) {
	service, _, sessions, _ := newService(t)
	user := register(t, service)

	first, err := service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "correct horse"})
	require.NoError(t, err)
	_, err = service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "correct horse"})
	require.NoError(t, err)
	require.Len(t, sessions.sessions, 2)

	t.Run("wrong_current_password", func(t *testing.T) {
		err := service.ChangePassword(context.Background(), user.ID, "wrong", "battery staple", first.RefreshToken)
		assert.True(t, apperr.IsUnauthorized(err))
	})

	t.Run("change_keeps_only_current_session", func(t *testing.T) {
		err := service.ChangePassword(context.Background(), user.ID, "correct horse", "battery staple", first.RefreshToken)
		require.NoError(t, err)

		require.Len(t, sessions.sessions, 1)
		_, err = sessions.FindByTokenHash(context.Background(), sec.HashToken(first.RefreshToken))
		assert.NoError(t, err)

		_, err = service.Login(context.Background(), auth.LoginInput{Login: "gopher", Password: "battery staple"})
		require.NoError(t, err)
	})
}
