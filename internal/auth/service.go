package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/fitness-hub/internal/config"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/fdg312/fitness-hub/internal/userctx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Service issues and verifies access tokens for email/password accounts.
type Service struct {
	config      *config.Config
	users       storage.UsersStorage
	revocations RevocationStore
	now         func() time.Time
}

func NewService(cfg *config.Config, users storage.UsersStorage, revocations RevocationStore) *Service {
	if revocations == nil {
		revocations = NewMemoryRevocationStore()
	}
	return &Service{
		config:      cfg,
		users:       users,
		revocations: revocations,
		now:         time.Now,
	}
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, req CredentialsRequest) (*TokenResponse, error) {
	email, err := req.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &storage.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.WithField("user_id", user.ID).Info("user signed up")
	return s.issue(user)
}

// SignIn checks the password and returns a fresh token.
func (s *Service) SignIn(ctx context.Context, req CredentialsRequest) (*TokenResponse, error) {
	email, err := req.Validate()
	if err != nil {
		// do not reveal which rule failed for existing accounts
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// SignOut revokes the given token until its natural expiry.
func (s *Service) SignOut(ctx context.Context, tokenString string) error {
	claims, err := s.Verify(ctx, tokenString)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.revocations.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Me returns the authenticated user.
func (s *Service) Me(ctx context.Context) (*UserDTO, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// Verify parses an access token and checks it has not been revoked.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	registered := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, registered, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(registered.Subject)
	if err != nil || registered.ID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.revocations.IsRevoked(ctx, registered.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    userID,
		TokenID:   registered.ID,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}

func (s *Service) issue(user *storage.User) (*TokenResponse, error) {
	ttl := time.Duration(s.config.JWTTTLMinutes) * time.Minute
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ID:        uuid.NewString(),
		Issuer:    s.config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		User:        toUserDTO(user),
	}, nil
}

func (s *Service) bcryptCost() int {
	cost := s.config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

func toUserDTO(u *storage.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
