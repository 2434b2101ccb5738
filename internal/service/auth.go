package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/store"
)

// CredentialStore is the persistence the authentication core depends on.
// *store.Store satisfies it.
type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *model.User) error
	FindActiveAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id int64, at time.Time) error
}

var errTokenRejected = &Error{Kind: KindInvalidCredentials, Message: "Invalid token"}

// AuthService registers and logs in users, and resolves the identities
// carried by session tokens and API keys.
type AuthService struct {
	store      CredentialStore
	tokens     *TokenCodec
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates an AuthService. A bcryptCost of zero selects
// bcrypt.DefaultCost.
func NewAuthService(s CredentialStore, tokens *TokenCodec, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      s,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a USER account and issues its first session token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	u, err := s.CreateUser(ctx, req, model.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.respond(u)
}

// CreateUser validates req, checks username then email for collisions and
// persists an enabled user with the given role. A unique-index violation
// that slips past the pre-checks is reported as the same duplicate error.
func (s *AuthService) CreateUser(ctx context.Context, req model.RegisterRequest, role model.Role) (*model.User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fieldError("password", "size must be at most 72 bytes")
	}
	if err != nil {
		return nil, unexpected("hash password", err)
	}

	u := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Enabled:      true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost a registration race; report which value collided.
			if cerr := s.checkAvailable(ctx, req.Username, req.Email); cerr != nil {
				return nil, cerr
			}
			return nil, ErrUsernameTaken
		}
		return nil, unexpected("create user", err)
	}
	return u, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, username, email string) error {
	taken, err := s.store.ExistsByUsername(ctx, username)
	if err != nil {
		return unexpected("check username", err)
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return unexpected("check email", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// Login verifies a username and password. Unknown users, wrong passwords
// and disabled accounts all fail with ErrBadCredentials.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	u, err := s.store.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, unexpected("find user", err)
		}
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(req.Password))
		return nil, ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrBadCredentials
	}
	if !u.Enabled {
		return nil, ErrBadCredentials
	}
	return s.respond(u)
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("phoenix-not-a-password"), s.bcryptCost)
	})
	return s.dummyHash
}

func (s *AuthService) respond(u *model.User) (*model.AuthResponse, error) {
	token, err := s.tokens.Issue(u.Username, s.now())
	if err != nil {
		return nil, unexpected("issue token", err)
	}
	return &model.AuthResponse{
		Token:     token,
		TokenType: model.TokenTypeBearer,
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
	}, nil
}

// AuthenticateToken verifies a bearer token and resolves its subject to an
// enabled user. It fails closed: any verification or lookup failure is an
// invalid-credentials error.
func (s *AuthService) AuthenticateToken(ctx context.Context, token string) (*model.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, errTokenRejected
	}
	u, err := s.store.FindUserByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errTokenRejected
		}
		return nil, unexpected("find token subject", err)
	}
	if !u.Enabled {
		return nil, errTokenRejected
	}
	return u, nil
}

// AuthenticateAPIKey hashes the presented key and checks it against the
// active keys. On success last-used is written before returning.
func (s *AuthService) AuthenticateAPIKey(ctx context.Context, raw string) (*model.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingAPIKey
	}

	key, err := s.store.FindActiveAPIKeyByHash(ctx, HashAPIKey(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, unexpected("find api key", err)
	}

	now := s.now()
	if !key.Active {
		return nil, ErrInvalidAPIKey
	}
	if key.ExpiredAt(now) {
		return nil, ErrExpiredAPIKey
	}

	if err := s.store.UpdateAPIKeyLastUsed(ctx, key.ID, now.UTC()); err != nil {
		return nil, unexpected("record api key usage", err)
	}
	used := now.UTC()
	key.LastUsedAt = &used
	return key, nil
}
