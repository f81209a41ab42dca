package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"hotel_booking/internal/domain"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthService issues opaque bearer tokens kept in a TTL cache.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.Cache
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

type AuthOption func(*AuthService)

func WithPasswordCost(cost int) AuthOption { return func(s *AuthService) { s.cost = cost } }

func WithAuthClock(now func() time.Time) AuthOption { return func(s *AuthService) { s.now = now } }

func NewAuthService(users domain.UserRepository, sessions domain.Cache, ttl time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{users: users, sessions: sessions, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func sessionKey(token string) string { return "session:" + token }

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	tags, err := failedTags(validate.Struct(in))
	if err != nil {
		return domain.User{}, err
	}
	switch {
	case tags["required"]:
		return domain.User{}, domain.NewValidationError(domain.ReasonMissingFields)
	case tags["email"]:
		return domain.User{}, domain.NewValidationError(domain.ReasonEmail)
	case tags["min"]:
		return domain.User{}, domain.NewValidationError(domain.ReasonPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{Email: in.Email, Name: in.Name, PasswordHash: hash, CreatedAt: s.now().UTC()}
	if err := s.users.Create(ctx, u); err != nil {
		return domain.User{}, err
	}
	log.Info().Str("email", u.Email).Msg("user registered")
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	sess := domain.Session{
		Token:     uuid.NewString(),
		Email:     u.Email,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.sessions.Set(ctx, sessionKey(sess.Token), sess, int(s.ttl.Seconds())); err != nil {
		return domain.Session{}, &domain.StorageError{Op: "create session", Err: err}
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrUnauthorized
	}
	return s.sessions.Del(ctx, sessionKey(token))
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	var sess domain.Session
	ok, err := s.sessions.Get(ctx, sessionKey(token), &sess)
	if err != nil {
		return domain.User{}, &domain.StorageError{Op: "get session", Err: err}
	}
	if !ok || !s.now().Before(sess.ExpiresAt) {
		return domain.User{}, domain.ErrUnauthorized
	}
	u, err := s.users.GetByEmail(ctx, sess.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrUnauthorized
	}
	return u, err
}
