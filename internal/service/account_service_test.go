package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/repository"
)

func TestAccountService_Register(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.AccountService()
	ctx := context.Background()
	h.CreateCreator("taken")

	valid := func() *RegisterInput {
		return &RegisterInput{
			Username:        "newuser",
			Email:           "NewUser@Example.com",
			Role:            "completer",
			Password:        testPassword,
			PasswordConfirm: testPassword,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*RegisterInput)
		wantErr   error
		wantField string
	}{
		{name: "valid", mutate: func(*RegisterInput) {}},
		{name: "numeric role from the legacy form", mutate: func(in *RegisterInput) { in.Username = "legacy"; in.Role = "1" }},
		{name: "duplicate username", mutate: func(in *RegisterInput) { in.Username = "taken" }, wantErr: ErrConflict},
		{name: "reserved tombstone name", mutate: func(in *RegisterInput) { in.Username = models.TombstoneUsername }, wantField: "username"},
		{name: "short username", mutate: func(in *RegisterInput) { in.Username = "ab" }, wantField: "username"},
		{name: "bad email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }, wantField: "email"},
		{name: "unknown role", mutate: func(in *RegisterInput) { in.Role = "admin" }, wantField: "role"},
		{name: "weak password", mutate: func(in *RegisterInput) { in.Password = "short"; in.PasswordConfirm = "short" }, wantField: "password"},
		{name: "confirmation mismatch", mutate: func(in *RegisterInput) { in.PasswordConfirm = "Secret1234" }, wantField: "password_confirm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(in)

			u, err := svc.Register(ctx, in)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantField != "":
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, in.Username, u.Username)
				assert.NotEqual(t, testPassword, u.PasswordHash)
			}
		})
	}
}

func TestAccountService_RegisterCreatesOneProfile(t *testing.T) {
	h := NewTestHelpers(t)
	u := h.CreateCompleter("bob")

	profiles := repository.NewProfileRepository(h.db)
	n, err := profiles.CountByUserID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := profiles.GetByUserID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProfileImage, p.Image)

	users := repository.NewUserRepository(h.db)
	stored, err := users.GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", stored.Email)
	assert.Equal(t, models.RoleCompleter, stored.Role)
}

func TestAccountService_LoginAndRefresh(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.AccountService()
	ctx := context.Background()
	alice := h.CreateCreator("alice")

	_, _, err := svc.Login(ctx, "alice", "wrong-Password1")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = svc.Login(ctx, "nobody", testPassword)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = svc.Login(ctx, models.TombstoneUsername, "")
	assert.True(t, IsValidationError(err))

	_, _, err = svc.Login(ctx, models.TombstoneUsername, testPassword)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	u, pair, err := svc.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	claims, err := h.tokenManager.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID.String(), claims.UserID)
	assert.Equal(t, string(models.RoleCreator), claims.Role)

	token, expiresIn, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Positive(t, expiresIn)

	_, _, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, svc.DeleteUser(ctx, alice.ID))
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAccountService_UpdateAccount(t *testing.T) {
	h := NewTestHelpers(t)
	svc := h.AccountService()
	ctx := context.Background()
	alice := h.CreateCreator("alice")
	h.CreateCreator("dave")

	name := "alice2"
	email := "ALICE2@example.com"
	role := "completer"
	u, err := svc.UpdateAccount(ctx, alice.ID, &UpdateAccountInput{Username: &name, Email: &email, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Username)
	assert.Equal(t, "alice2@example.com", u.Email)
	assert.Equal(t, models.RoleCompleter, u.Role)

	taken := "dave"
	_, err = svc.UpdateAccount(ctx, alice.ID, &UpdateAccountInput{Username: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	bad := "x"
	_, err = svc.UpdateAccount(ctx, alice.ID, &UpdateAccountInput{Username: &bad})
	assert.True(t, IsValidationError(err))

	_, err = svc.UpdateAccount(ctx, uuid.New(), &UpdateAccountInput{Username: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateAccount(ctx, models.TombstoneUserID, &UpdateAccountInput{Username: &name})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAccountService_RoleChangeBlockedByOpenClaims(t *testing.T) {
	h := NewTestHelpers(t)
	accounts := h.AccountService()
	tasks := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	bob := h.CreateCompleter("bob")
	claimed, err := tasks.Create(ctx, alice.ID, &CreateTaskInput{Title: "claimed", Content: "c", CompleterID: &bob.ID})
	require.NoError(t, err)

	creator := "creator"
	_, err = accounts.UpdateAccount(ctx, bob.ID, &UpdateAccountInput{Role: &creator})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "role", ve.Field)

	completer := "completer"
	_, err = accounts.UpdateAccount(ctx, bob.ID, &UpdateAccountInput{Role: &completer})
	require.NoError(t, err)

	_, err = tasks.Complete(ctx, claimed.ID, bob.ID, "done")
	require.NoError(t, err)

	u, err := accounts.UpdateAccount(ctx, bob.ID, &UpdateAccountInput{Role: &creator})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCreator, u.Role)
}

func TestAccountService_DeleteUserReassignsTasks(t *testing.T) {
	h := NewTestHelpers(t)
	accounts := h.AccountService()
	tasks := h.TaskService()
	ctx := context.Background()

	alice := h.CreateCreator("alice")
	bob := h.CreateCompleter("bob")
	authored := h.CreateTask(alice, "authored")
	completed := h.CreateTask(alice, "completed")
	_, err := tasks.Complete(ctx, completed.ID, bob.ID, "ok")
	require.NoError(t, err)

	require.NoError(t, accounts.DeleteUser(ctx, bob.ID))
	require.NoError(t, accounts.DeleteUser(ctx, alice.ID))

	got, err := tasks.Get(ctx, authored.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TombstoneUserID, got.AuthorID)
	assert.Equal(t, models.TombstoneUsername, got.AuthorUsername)

	got, err = tasks.Get(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TombstoneUserID, got.AuthorID)
	assert.True(t, got.IsClaimedBy(models.TombstoneUserID))
	assert.Equal(t, models.TaskStatusCompleted, got.Status)

	n, err := repository.NewProfileRepository(h.db).CountByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, err = accounts.GetAccount(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, accounts.DeleteUser(ctx, alice.ID), ErrNotFound)
	assert.ErrorIs(t, accounts.DeleteUser(ctx, models.TombstoneUserID), ErrForbidden)

	// The tombstone owns tasks but may not act on them.
	title := "hijack"
	_, err = tasks.Update(ctx, authored.ID, models.TombstoneUserID, &UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
}
