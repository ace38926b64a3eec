package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authkit/internal/common"
	"github.com/dmitrijs2005/authkit/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)

	tests := []struct {
		name    string
		in      RegisterInput
		wantErr error
	}{
		{name: "ok", in: RegisterInput{Email: "a@x.com", Password: "pw12", ProfileName: "A"}},
		{name: "ok unicode name at limit", in: RegisterInput{Email: "b@x.com", Password: "pw12", ProfileName: strings.Repeat("й", 30)}},
		{name: "bad email", in: RegisterInput{Email: "not-an-email", Password: "pw12", ProfileName: "A"}, wantErr: common.ErrorValidation},
		{name: "display name form", in: RegisterInput{Email: "Bob <c@x.com>", Password: "pw12", ProfileName: "A"}, wantErr: common.ErrorValidation},
		{name: "short password", in: RegisterInput{Email: "c@x.com", Password: "pw1", ProfileName: "A"}, wantErr: common.ErrorValidation},
		{name: "empty profile name", in: RegisterInput{Email: "c@x.com", Password: "pw12", ProfileName: ""}, wantErr: common.ErrorValidation},
		{name: "long profile name", in: RegisterInput{Email: "c@x.com", Password: "pw12", ProfileName: strings.Repeat("a", 31)}, wantErr: common.ErrorValidation},
		{name: "duplicate email", in: RegisterInput{Email: "A@x.com", Password: "pw12", ProfileName: "A"}, wantErr: common.ErrEmailAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := env.users.Register(ctx, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.RoleCommon, v.Role)
			assert.True(t, v.IsActive)
		})
	}
}

func TestRegister_CreatesEmptySession(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	v := env.register(t, "a@x.com", "pw1234")

	sess, err := env.m.Sessions(env.m.DB()).GetByUserID(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, sess.Active())

	u, err := env.m.Users(env.m.DB()).GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw1234", u.PasswordHash)
}

func TestRegister_StoreFailures(t *testing.T) {
	ctx := context.Background()
	in := RegisterInput{Email: "a@x.com", Password: "pw1234", ProfileName: "A"}
	dbErr := errors.New("db down")

	t.Run("user insert", func(t *testing.T) {
		env := newEnvWith(t, &fakeRepoManager{u: &fakeUsersRepo{createErr: dbErr}, s: &fakeSessionsRepo{}})
		_, err := env.users.Register(ctx, in)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("session insert", func(t *testing.T) {
		env := newEnvWith(t, &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{createErr: dbErr}})
		_, err := env.users.Register(ctx, in)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("transaction", func(t *testing.T) {
		env := newEnvWith(t, &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSessionsRepo{}, txErr: dbErr})
		_, err := env.users.Register(ctx, in)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	v := env.register(t, "a@x.com", "pw1234")

	got, err := env.users.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, *v, *got)

	_, err = env.users.Get(ctx, 999)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	for i := 0; i < 3; i++ {
		env.register(t, fmt.Sprintf("u%d@x.com", i), "pw1234")
	}

	all, err := env.users.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := env.users.List(ctx, 2, 5)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	for _, bad := range [][2]int{{-1, 10}, {0, -1}, {0, 101}} {
		_, err := env.users.List(ctx, bad[0], bad[1])
		assert.ErrorIs(t, err, common.ErrorValidation, "skip=%d limit=%d", bad[0], bad[1])
	}
}

func TestUpdate_Authorization(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	alice := env.register(t, "alice@x.com", "pw1234")
	bob := env.register(t, "bob@x.com", "pw1234")

	aliceCaller := &models.User{ID: alice.ID, Role: models.RoleCommon}
	admin := &models.User{ID: 1000, Role: models.RoleAdmin}
	name := "Renamed"
	staff := models.RoleStaff
	bogus := models.Role("ROOT")
	empty := ""

	tests := []struct {
		name    string
		caller  *models.User
		id      int64
		in      UpdateInput
		wantErr error
	}{
		{name: "self rename", caller: aliceCaller, id: alice.ID, in: UpdateInput{ProfileName: &name}},
		{name: "rename other", caller: aliceCaller, id: bob.ID, in: UpdateInput{ProfileName: &name}, wantErr: common.ErrorForbidden},
		{name: "self role change", caller: aliceCaller, id: alice.ID, in: UpdateInput{Role: &staff}, wantErr: common.ErrorForbidden},
		{name: "admin role change", caller: admin, id: bob.ID, in: UpdateInput{Role: &staff}},
		{name: "admin unknown role", caller: admin, id: bob.ID, in: UpdateInput{Role: &bogus}, wantErr: common.ErrorValidation},
		{name: "empty name", caller: aliceCaller, id: alice.ID, in: UpdateInput{ProfileName: &empty}, wantErr: common.ErrorValidation},
		{name: "admin missing user", caller: admin, id: 999, in: UpdateInput{ProfileName: &name}, wantErr: common.ErrUserNotFound},
		{name: "no caller", caller: nil, id: alice.ID, in: UpdateInput{ProfileName: &name}, wantErr: common.ErrInvalidAccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := env.users.Update(ctx, tt.caller, tt.id, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.in.ProfileName != nil {
				assert.Equal(t, *tt.in.ProfileName, v.ProfileName)
			}
			if tt.in.Role != nil {
				assert.Equal(t, *tt.in.Role, v.Role)
			}
		})
	}
}

func TestUpdate_StoreFailure(t *testing.T) {
	dbErr := errors.New("db down")
	user := &models.User{ID: 1, Role: models.RoleCommon}
	env := newEnvWith(t, &fakeRepoManager{u: &fakeUsersRepo{user: user, updateErr: dbErr}, s: &fakeSessionsRepo{}})

	name := "x"
	_, err := env.users.Update(context.Background(), user, 1, UpdateInput{ProfileName: &name})
	assert.ErrorIs(t, err, dbErr)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	alice := env.register(t, "alice@x.com", "pw1234")
	bob := env.register(t, "bob@x.com", "pw1234")
	aliceCaller := &models.User{ID: alice.ID, Role: models.RoleCommon}

	err := env.users.Delete(ctx, aliceCaller, bob.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = env.auth.Login(ctx, "alice@x.com", "pw1234")
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, aliceCaller, alice.ID))

	sess, err := env.m.Sessions(env.m.DB()).GetByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, sess.Active())

	_, err = env.users.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	err = env.users.Delete(ctx, aliceCaller, alice.ID)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = env.auth.Login(ctx, "alice@x.com", "pw1234")
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)

	admin := &models.User{ID: 1000, Role: models.RoleAdmin}
	require.NoError(t, env.users.Delete(ctx, admin, bob.ID))
}

func TestDelete_StoreFailure(t *testing.T) {
	dbErr := errors.New("db down")
	caller := &models.User{ID: 1, Role: models.RoleCommon}
	env := newEnvWith(t, &fakeRepoManager{u: &fakeUsersRepo{softDeleteErr: dbErr}, s: &fakeSessionsRepo{}})

	err := env.users.Delete(context.Background(), caller, 1)
	assert.ErrorIs(t, err, dbErr)
}
