package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, env *testEnv) UserService {
	t.Helper()
	return NewUserService(repository.NewUserRepository(env.db), env.db)
}

func TestCreateUserAndLogin(t *testing.T) {
	env := newTestEnv(t)
	users := newUserService(t, env)
	ctx := context.Background()

	created, err := users.CreateUser(ctx, CreateUserRequest{
		Username: "officer1",
		Email:    "officer1@example.com",
		Phone:    "0700000002",
		Password: "s3cretpass",
		Role:     "loan_officer",
		BranchID: env.branch.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "loan_officer", created.Role)
	require.NotNil(t, created.BranchID)
	assert.Equal(t, env.branch.ID.String(), *created.BranchID)

	// Password is stored hashed
	var stored model.User
	require.NoError(t, env.db.First(&stored, "id = ?", created.ID).Error)
	assert.NotEqual(t, "s3cretpass", stored.Password)

	tokens, err := users.Login(ctx, LoginUserRequest{
		Email:    "officer1@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)

	_, err = users.Login(ctx, LoginUserRequest{
		Email:    "officer1@example.com",
		Password: "wrongpass",
	})
	require.Error(t, err)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	users := newUserService(t, env)
	ctx := context.Background()

	req := CreateUserRequest{
		Username: "manager1",
		Email:    "manager1@example.com",
		Phone:    "0700000003",
		Password: "s3cretpass",
		Role:     "manager",
	}
	_, err := users.CreateUser(ctx, req)
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, req)
	require.Error(t, err)

	req.Username = "manager2" // same email still clashes
	_, err = users.CreateUser(ctx, req)
	require.Error(t, err)
}

func TestRefreshTokenRotates(t *testing.T) {
	env := newTestEnv(t)
	users := newUserService(t, env)
	ctx := context.Background()

	_, err := users.CreateUser(ctx, CreateUserRequest{
		Username: "admin1",
		Email:    "admin1@example.com",
		Phone:    "0700000004",
		Password: "s3cretpass",
		Role:     "admin",
	})
	require.NoError(t, err)

	tokens, err := users.Login(ctx, LoginUserRequest{
		Email:    "admin1@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	rotated, err := users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.Token)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// Old refresh token is single-use
	_, err = users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.Error(t, err)

	// The rotated one still works
	_, err = users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: rotated.RefreshToken})
	require.NoError(t, err)
}
