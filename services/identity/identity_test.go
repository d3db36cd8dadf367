package identity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"droidfolio/apperrors"
	"droidfolio/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type IdentitySuite struct {
	suite.Suite
	ctx   context.Context
	store *store.Memory
	svc   *Service
}

func (s *IdentitySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemory()
	s.svc = NewService(s.store, WithLoginDelay(0), WithBcryptCost(bcrypt.MinCost))
}

func (s *IdentitySuite) login(username, password string) User {
	u, err := s.svc.Login(s.ctx, username, password)
	s.Require().NoError(err)
	return u
}

func (s *IdentitySuite) TestSeedsDefaultAccounts() {
	users, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)

	s.Equal("admin", users[0].Username)
	s.Equal(RoleAdmin, users[0].Role)
	s.Equal("System Administrator", users[0].Name)
	s.Equal("mod", users[1].Username)
	s.Equal(RoleModerator, users[1].Role)
	s.Equal("guest", users[2].Username)
	s.Equal(RoleGuest, users[2].Role)
	s.Contains(users[2].Avatar, "avataaars.io")
}

func (s *IdentitySuite) TestPasswordsAreHashed() {
	_, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)

	raw, err := s.store.Get(s.ctx, UsersKey)
	s.Require().NoError(err)

	var creds []struct {
		Password string `json:"password"`
		User     User   `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(raw, &creds))
	s.Require().Len(creds, 3)

	plain := map[string]string{"admin": "admin123", "mod": "mod123", "guest": "guest123"}
	for _, c := range creds {
		s.NotEqual(plain[c.User.Username], c.Password)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(plain[c.User.Username])))
	}
}

func (s *IdentitySuite) TestDemoCredentials() {
	for _, tc := range []struct {
		username, password string
		role               Role
	}{
		{"admin", "admin123", RoleAdmin},
		{"mod", "mod123", RoleModerator},
		{"guest", "guest123", RoleGuest},
	} {
		u := s.login(tc.username, tc.password)
		s.Equal(tc.role, u.Role)
	}
}

func (s *IdentitySuite) TestLoginSetsMarker() {
	u := s.login("mod", "mod123")

	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(current)
	s.Equal(u, *current)
}

func (s *IdentitySuite) TestLoginFailureLeavesMarkerUntouched() {
	s.login("guest", "guest123")

	_, err := s.svc.Login(s.ctx, "admin", "wrong")
	s.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidCreds))

	_, err = s.svc.Login(s.ctx, "nobody", "admin123")
	s.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidCreds))

	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(current)
	s.Equal("guest", current.Username)
}

func (s *IdentitySuite) TestLoginIsCaseSensitive() {
	_, err := s.svc.Login(s.ctx, "Admin", "admin123")
	s.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidCreds))
}

func (s *IdentitySuite) TestLogoutClearsOnlyMarker() {
	s.login("admin", "admin123")
	s.Require().NoError(s.svc.Logout(s.ctx))

	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Nil(current)

	users, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 3)
}

func (s *IdentitySuite) TestAnonymousByDefault() {
	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Nil(current)
}

func (s *IdentitySuite) TestAdminRoleIsImmutable() {
	_, err := s.svc.UpdateUserRole(s.ctx, "admin", RoleGuest)
	s.True(apperrors.HasCode(err, apperrors.ErrCodeImmutableAdmin))

	users, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)
	s.Equal(RoleAdmin, users[0].Role)
}

func (s *IdentitySuite) TestAdminCannotBeDeleted() {
	err := s.svc.DeleteUser(s.ctx, "admin")
	s.True(apperrors.HasCode(err, apperrors.ErrCodeImmutableAdmin))
	s.Equal("Cannot delete the main Administrator.", apperrors.FromError(err).Message)

	users, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 3)
}

func (s *IdentitySuite) TestUpdateRoleRefreshesOwnMarker() {
	s.login("guest", "guest123")

	updated, err := s.svc.UpdateUserRole(s.ctx, "guest", RoleModerator)
	s.Require().NoError(err)
	s.Require().NotNil(updated)
	s.Equal(RoleModerator, updated.Role)

	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Equal(RoleModerator, current.Role)
}

func (s *IdentitySuite) TestUpdateRoleOfOtherUserLeavesMarker() {
	s.login("admin", "admin123")

	_, err := s.svc.UpdateUserRole(s.ctx, "mod", RoleGuest)
	s.Require().NoError(err)

	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Equal("admin", current.Username)
	s.Equal(RoleAdmin, current.Role)
}

func (s *IdentitySuite) TestUpdateRoleRejectsUnknownRole() {
	_, err := s.svc.UpdateUserRole(s.ctx, "mod", Role("OWNER"))
	s.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidRole))
}

func (s *IdentitySuite) TestUpdateRoleUnknownUserIsNoop() {
	before, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)

	updated, err := s.svc.UpdateUserRole(s.ctx, "ghost", RoleAdmin)
	s.NoError(err)
	s.Nil(updated)

	after, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *IdentitySuite) TestLookupSeesRoleChangesMarkerMisses() {
	other := s.svc.ForSession(store.Scoped(s.store, "other:", CurrentUserKey))
	_, err := other.Login(s.ctx, "mod", "mod123")
	s.Require().NoError(err)

	_, err = s.svc.UpdateUserRole(s.ctx, "mod", RoleGuest)
	s.Require().NoError(err)

	marker, err := other.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Equal(RoleModerator, marker.Role)

	fresh, err := other.Lookup(s.ctx, "mod")
	s.Require().NoError(err)
	s.Equal(RoleGuest, fresh.Role)

	missing, err := s.svc.Lookup(s.ctx, "ghost")
	s.NoError(err)
	s.Nil(missing)
}

func (s *IdentitySuite) TestUpdateUserRejectsRename() {
	s.login("guest", "guest123")

	renamed := "guest2"
	name := "Renamed"
	_, err := s.svc.UpdateUser(s.ctx, "guest", UserUpdate{Username: &renamed, Name: &name})
	s.True(apperrors.HasCode(err, apperrors.ErrCodeUsernameChangeBlocked))
	s.Equal("Cannot change username.", apperrors.FromError(err).Message)

	users, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)
	s.Equal("Guest User", users[2].Name)
}

func (s *IdentitySuite) TestUpdateUserMergesFields() {
	s.login("guest", "guest123")

	same := "guest"
	name := "Visitor"
	updated, err := s.svc.UpdateUser(s.ctx, "guest", UserUpdate{Username: &same, Name: &name})
	s.Require().NoError(err)
	s.Require().NotNil(updated)
	s.Equal("Visitor", updated.Name)
	s.Contains(updated.Avatar, "WinterHat2", "unset fields keep their value")
	s.Equal(RoleGuest, updated.Role)

	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Equal("Visitor", current.Name)
}

func (s *IdentitySuite) TestDeleteUserKeepsExistingMarker() {
	s.login("mod", "mod123")
	s.Require().NoError(s.svc.DeleteUser(s.ctx, "mod"))

	users, err := s.svc.Users(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)

	current, err := s.svc.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(current)
	s.Equal("mod", current.Username)

	_, err = s.svc.Login(s.ctx, "mod", "mod123")
	s.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidCreds))
}

func (s *IdentitySuite) TestCreateUser() {
	u, err := s.svc.CreateUser(s.ctx, "reviewer", "s3cret", "Code Reviewer", RoleModerator)
	s.Require().NoError(err)
	s.Equal(RoleModerator, u.Role)

	logged := s.login("reviewer", "s3cret")
	s.Equal("Code Reviewer", logged.Name)

	_, err = s.svc.CreateUser(s.ctx, "reviewer", "x", "", RoleGuest)
	s.True(apperrors.HasCode(err, apperrors.ErrCodeUserExists))

	_, err = s.svc.CreateUser(s.ctx, "no spaces", "x", "", RoleGuest)
	s.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidUsername))

	_, err = s.svc.CreateUser(s.ctx, "valid_name", "x", "", Role("ROOT"))
	s.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidRole))
}

func (s *IdentitySuite) TestSessionsHaveSeparateMarkers() {
	a := s.svc.ForSession(store.Scoped(s.store, "a:", CurrentUserKey))
	b := s.svc.ForSession(store.Scoped(s.store, "b:", CurrentUserKey))

	_, err := a.Login(s.ctx, "admin", "admin123")
	s.Require().NoError(err)

	current, err := b.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Nil(current)

	// role changes made through one session refresh only that session's marker
	_, err = b.Login(s.ctx, "guest", "guest123")
	s.Require().NoError(err)
	_, err = a.UpdateUserRole(s.ctx, "guest", RoleModerator)
	s.Require().NoError(err)

	bUser, err := b.CurrentUser(s.ctx)
	s.Require().NoError(err)
	s.Equal(RoleGuest, bUser.Role)
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentitySuite))
}

func TestLoginDelayHonoursContext(t *testing.T) {
	svc := NewService(store.NewMemory(), WithLoginDelay(time.Hour), WithBcryptCost(bcrypt.MinCost))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLoginWaitsConfiguredDelay(t *testing.T) {
	svc := NewService(store.NewMemory(), WithLoginDelay(50*time.Millisecond), WithBcryptCost(bcrypt.MinCost))

	start := time.Now()
	_, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, RoleGuest.Valid())
	assert.False(t, Role("admin").Valid(), "roles are upper case")

	u := User{Role: RoleModerator}
	assert.True(t, u.HasRole(RoleAdmin, RoleModerator))
	assert.False(t, u.HasRole(RoleAdmin))
}
