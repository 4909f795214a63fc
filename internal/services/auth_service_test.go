package services

import (
	"context"
	"testing"

	"github.com/devbounty/backend/internal/auth"
	"github.com/devbounty/backend/internal/rbac"
	"github.com/devbounty/backend/internal/repositories/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := testConfig()
	cfg.AdminEmails = []string{"root@example.com"}
	return NewAuthService(memstore.New(), cfg, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, RegisterInput{
		Email:          " Dev@Example.com ",
		Password:       "correct horse",
		FullName:       "Dev One",
		Role:           rbac.RoleDeveloper,
		PaymentAddress: "acct-1",
		Skills:         []string{"go"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", res.User.Email)
	assert.False(t, res.User.IsAdmin)

	claims, err := auth.ParseJWT(testConfig().JWTSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	actor, err := s.ResolveActor(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, actor.DeveloperProfileID)
	assert.Nil(t, actor.ClientProfileID)

	me, err := s.Me(ctx, *actor)
	require.NoError(t, err)
	assert.Equal(t, []string{rbac.RoleDeveloper}, me.Roles)
	require.NotNil(t, me.DeveloperProfile)
	assert.Equal(t, "acct-1", me.DeveloperProfile.PaymentAddress)

	login, err := s.Login(ctx, "dev@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	_, err = s.Login(ctx, "dev@example.com", "wrong password")
	requireKind(t, err, KindUnauthenticated)
	_, err = s.Login(ctx, "nobody@example.com", "correct horse")
	requireKind(t, err, KindUnauthenticated)
}

func TestRegisterValidation(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"bad email":          {Email: "not-an-email", Password: "long enough", Role: rbac.RoleClient},
		"unknown role":       {Email: "a@example.com", Password: "long enough", Role: rbac.RoleAdmin},
		"short password":     {Email: "a@example.com", Password: "short", Role: rbac.RoleClient},
		"developer no payee": {Email: "a@example.com", Password: "long enough", Role: rbac.RoleDeveloper},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Register(ctx, in)
			requireKind(t, err, KindValidation)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	in := RegisterInput{Email: "c@example.com", Password: "long enough", Role: rbac.RoleClient}

	_, err := s.Register(ctx, in)
	require.NoError(t, err)

	in.Email = "C@example.com"
	_, err = s.Register(ctx, in)
	requireKind(t, err, KindConflict)
}

func TestRegisterBootstrapAdminAndGrant(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()

	root, err := s.Register(ctx, RegisterInput{Email: "root@example.com", Password: "long enough", Role: rbac.RoleClient})
	require.NoError(t, err)
	assert.True(t, root.User.IsAdmin)

	other, err := s.Register(ctx, RegisterInput{Email: "ops@example.com", Password: "long enough", Role: rbac.RoleClient})
	require.NoError(t, err)
	require.NoError(t, s.GrantAdmin(ctx, "OPS@example.com", true))

	actor, err := s.ResolveActor(ctx, other.User.ID)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin)
	assert.Contains(t, rbac.RolesOf(*actor), rbac.RoleAdmin)

	err = s.GrantAdmin(ctx, "ghost@example.com", true)
	requireKind(t, err, KindNotFound)
}
