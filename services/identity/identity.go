// Package identity owns the user list, credential checks and the session
// marker recording who is logged in.
package identity

import (
	"context"
	"sync"
	"time"

	"droidfolio/apperrors"
	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"
	"droidfolio/store"
	"droidfolio/utils"

	"golang.org/x/crypto/bcrypt"
)

// Service handles login state and user management on top of a record store
type Service struct {
	store store.Store

	// mu is shared by every session view so whole-list rewrites never interleave
	mu         *sync.Mutex
	loginDelay time.Duration
	bcryptCost int
}

type Option func(*Service)

// WithLoginDelay sets the fixed wait before each credential check
func WithLoginDelay(d time.Duration) Option {
	return func(s *Service) { s.loginDelay = d }
}

// WithBcryptCost sets the hashing cost for seeded and created passwords
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		mu:         &sync.Mutex{},
		loginDelay: 800 * time.Millisecond,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForSession returns a Service reading and writing through st (normally a
// session-scoped view) that shares this Service's lock and settings.
func (s *Service) ForSession(st store.Store) *Service {
	cp := *s
	cp.store = st
	return &cp
}

// Login waits the configured delay, then checks username and password.
// On success the user becomes the session's current user.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	if s.loginDelay > 0 {
		timer := time.NewTimer(s.loginDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return User{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials(ctx)
	if err != nil {
		return User{}, err
	}

	for _, c := range creds {
		if c.User.Username != username {
			continue
		}
		if !utils.CheckPassword(c.Password, password) {
			break
		}

		if err := store.Save(ctx, s.store, CurrentUserKey, c.User); err != nil {
			return User{}, err
		}
		metrics.RecordLoginAttempt(true)
		logger.WithField("username", username).Info("User logged in")
		return c.User, nil
	}

	metrics.RecordLoginAttempt(false)
	logger.WithField("username", username).Warn("Rejected login attempt")
	return User{}, apperrors.NewAuthenticationError(username, "username or password mismatch")
}

// Logout clears the session marker. The user list is untouched.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Delete(ctx, CurrentUserKey)
}

// CurrentUser returns the logged-in user, or nil when the session is anonymous
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	u, found, err := store.Load[User](ctx, s.store, CurrentUserKey)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// Users lists every user in stored order. Callers restrict this to admins.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(creds))
	for _, c := range creds {
		users = append(users, c.User)
	}
	return users, nil
}

// Lookup returns the stored record for username, or nil if there is none.
// Role checks use it rather than the session marker, which can be stale.
func (s *Service) Lookup(ctx context.Context, username string) (*User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

// UpdateUserRole changes username's role. The admin account is immutable.
// An unknown username changes nothing and returns nil.
func (s *Service) UpdateUserRole(ctx context.Context, username string, role Role) (*User, error) {
	if username == AdminUsername {
		return nil, apperrors.NewImmutableAdmin("role")
	}
	if !role.Valid() {
		return nil, apperrors.NewInvalidRole(string(role))
	}

	return s.mutate(ctx, username, func(u *User) error {
		u.Role = role
		return nil
	})
}

// UpdateUser merges upd into username's record. Renaming is rejected.
// An unknown username changes nothing and returns nil.
func (s *Service) UpdateUser(ctx context.Context, username string, upd UserUpdate) (*User, error) {
	if upd.Username != nil && *upd.Username != username {
		return nil, apperrors.NewUsernameChangeNotAllowed().
			WithContext("username", username).
			WithContext("requested_username", *upd.Username)
	}

	return s.mutate(ctx, username, func(u *User) error {
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Avatar != nil {
			u.Avatar = *upd.Avatar
		}
		return nil
	})
}

// DeleteUser removes username's record. The admin account cannot be deleted.
// A session already logged in as the deleted user stays logged in.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if username == AdminUsername {
		return apperrors.NewImmutableAdmin("delete")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials(ctx)
	if err != nil {
		return err
	}

	kept := creds[:0]
	for _, c := range creds {
		if c.User.Username != username {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(creds) {
		return nil
	}

	if err := store.Save(ctx, s.store, UsersKey, kept); err != nil {
		return err
	}
	logger.WithField("username", username).Info("User deleted")
	return nil
}

// CreateUser adds a new account with a hashed password
func (s *Service) CreateUser(ctx context.Context, username, password, name string, role Role) (User, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return User{}, err
	}
	if err := utils.ValidatePassword(password); err != nil {
		return User{}, err
	}
	if !role.Valid() {
		return User{}, apperrors.NewInvalidRole(string(role))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials(ctx)
	if err != nil {
		return User{}, err
	}
	for _, c := range creds {
		if c.User.Username == username {
			return User{}, apperrors.NewUserExists(username)
		}
	}

	hash, herr := utils.HashPassword(password, s.bcryptCost)
	if herr != nil {
		return User{}, herr
	}

	if name == "" {
		name = username
	}
	u := User{Username: username, Role: role, Name: name}
	creds = append(creds, credential{Password: hash, User: u})

	if err := store.Save(ctx, s.store, UsersKey, creds); err != nil {
		return User{}, err
	}
	logger.WithFields(map[string]any{"username": username, "role": role}).Info("User created")
	return u, nil
}

// mutate applies fn to username's record, saves the list and refreshes the
// session marker when it belongs to the same user.
func (s *Service) mutate(ctx context.Context, username string, fn func(*User) error) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range creds {
		if creds[i].User.Username == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	if err := fn(&creds[idx].User); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, s.store, UsersKey, creds); err != nil {
		return nil, err
	}

	updated := creds[idx].User
	if err := s.refreshMarker(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) refreshMarker(ctx context.Context, u User) error {
	current, found, err := store.Load[User](ctx, s.store, CurrentUserKey)
	if err != nil || !found || current.Username != u.Username {
		return err
	}
	return store.Save(ctx, s.store, CurrentUserKey, u)
}

// credentials loads the user list, seeding the defaults the first time.
// Must be called with mu held.
func (s *Service) credentials(ctx context.Context) ([]credential, error) {
	creds, found, err := store.Load[[]credential](ctx, s.store, UsersKey)
	if err != nil {
		return nil, err
	}
	if found {
		return creds, nil
	}

	creds = make([]credential, 0, len(defaultAccounts))
	for _, acc := range defaultAccounts {
		hash, herr := utils.HashPassword(acc.password, s.bcryptCost)
		if herr != nil {
			return nil, herr
		}
		creds = append(creds, credential{Password: hash, User: acc.user})
	}

	if err := store.Save(ctx, s.store, UsersKey, creds); err != nil {
		return nil, err
	}
	logger.Info("Seeded %d default user accounts", len(creds))
	return creds, nil
}
