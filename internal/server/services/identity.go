package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/cryptox"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/auth"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

// IdentityService handles accounts and login sessions. A login session is
// stored server-side; the client only holds a signed reference to it.
type IdentityService struct {
	repos           repomanager.RepositoryManager
	log             logging.Logger
	secret          []byte
	sessionLifetime time.Duration
	timeout         time.Duration
	now             func() time.Time
}

func NewIdentityService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *IdentityService {
	return &IdentityService{
		repos:           m,
		log:             log,
		secret:          []byte(cfg.SecretKey),
		sessionLifetime: cfg.SessionLifetime,
		timeout:         cfg.StoreTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginResult is what the transport needs to set the session cookie.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  models.Identity
}

var (
	errUsernameTaken      = common.NewError(common.ErrorAlreadyExists, "Username already taken")
	errEmailTaken         = common.NewError(common.ErrorAlreadyExists, "Email already registered")
	errInvalidCredentials = common.NewError(common.ErrorUnauthorized, "Invalid credentials")
	errAccountDisabled    = common.NewError(common.ErrForbidden, "Account disabled")
)

// Signup validates the input, hashes the password and stores an active user.
// The username and email pre-checks only improve the error message; the
// unique indexes decide.
func (s *IdentityService) Signup(ctx context.Context, in SignupInput) (string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	switch {
	case in.Username == "" || in.Email == "" || in.Password == "" || in.FullName == "":
		return "", common.NewError(common.ErrorValidation, "All fields required")
	case utf8.RuneCountInString(in.Password) < 6:
		return "", common.NewError(common.ErrorValidation, "Password must be at least 6 characters")
	case utf8.RuneCountInString(in.Username) < 3:
		return "", common.NewError(common.ErrorValidation, "Username must be at least 3 characters")
	case !strings.Contains(in.Email, "@"):
		return "", common.NewError(common.ErrorValidation, "Invalid email address")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	repo := s.repos.Users()
	if _, err := repo.GetByUsername(ctx, in.Username); err == nil {
		return "", errUsernameTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return "", storeFailure(ctx, s.log, "signup", err)
	}
	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return "", errEmailTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return "", storeFailure(ctx, s.log, "signup", err)
	}

	now := s.now()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: cryptox.HashPassword(in.Password),
		FullName:     in.FullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := repo.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateUsername):
			return "", errUsernameTaken
		case errors.Is(err, users.ErrDuplicateEmail):
			return "", errEmailTaken
		}
		return "", storeFailure(ctx, s.log, "signup", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", u.ID, "username", u.Username)
	return u.ID, nil
}

// Login checks the credentials and opens a login session with a fixed
// expiry. Unknown users and wrong passwords produce the same error.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.NewError(common.ErrorValidation, "Username and password required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same time as a real check
			_, _ = cryptox.VerifyPassword(dummyHash(), password)
			return nil, errInvalidCredentials
		}
		return nil, storeFailure(ctx, s.log, "login", err)
	}

	ok, err := cryptox.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "stored password hash is malformed", "user_id", u.ID, "error", err)
		return nil, errInvalidCredentials
	}
	if !ok {
		return nil, errInvalidCredentials
	}
	if !u.IsActive {
		return nil, errAccountDisabled
	}

	now := s.now()
	ls := &models.LoginSession{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionLifetime),
	}
	if err := s.repos.LoginSessions().Create(ctx, ls); err != nil {
		return nil, storeFailure(ctx, s.log, "login", err)
	}
	if err := s.repos.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn(ctx, "could not record last login", "user_id", u.ID, "error", err)
	}

	token, err := auth.GenerateToken(ls.ID, u.ID, s.secret, ls.ExpiresAt)
	if err != nil {
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return &LoginResult{Token: token, ExpiresAt: ls.ExpiresAt, Identity: ls.Identity()}, nil
}

var dummyHash = sync.OnceValue(func() string { return cryptox.HashPassword("confkeeper-dummy-password") })

// Logout removes the login session referenced by token. Missing, invalid
// and expired tokens are fine.
func (s *IdentityService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repos.LoginSessions().Delete(ctx, claims.SessionID); err != nil {
		return storeFailure(ctx, s.log, "logout", err)
	}
	s.log.Info(ctx, "user logged out", "user_id", claims.UserID)
	return nil
}

// CurrentUser resolves token to the identity of a live login session. It
// returns nil and no error when there is no such session.
func (s *IdentityService) CurrentUser(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ls, err := s.repos.LoginSessions().Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, storeFailure(ctx, s.log, "current user", err)
	}
	if ls.Expired(s.now()) || ls.UserID != claims.UserID {
		return nil, nil
	}

	id := ls.Identity()
	return &id, nil
}

// Profile returns the stored account of the acting user.
func (s *IdentityService) Profile(ctx context.Context, actor *models.Identity) (*models.User, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repos.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, "User not found")
		}
		return nil, storeFailure(ctx, s.log, "profile", err)
	}
	return u, nil
}

// Deactivate disables an account and revokes its login sessions.
func (s *IdentityService) Deactivate(ctx context.Context, username string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, "User not found")
		}
		return storeFailure(ctx, s.log, "deactivate", err)
	}
	if err := s.repos.Users().SetActive(ctx, u.ID, false); err != nil {
		return storeFailure(ctx, s.log, "deactivate", err)
	}
	n, err := s.repos.LoginSessions().DeleteByUser(ctx, u.ID)
	if err != nil {
		return storeFailure(ctx, s.log, "deactivate", err)
	}

	s.log.Info(ctx, "user deactivated", "user_id", u.ID, "revoked_sessions", n)
	return nil
}

// PurgeExpiredSessions deletes login sessions past their expiry.
func (s *IdentityService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repos.LoginSessions().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storeFailure(ctx, s.log, "purge sessions", err)
	}
	return n, nil
}
