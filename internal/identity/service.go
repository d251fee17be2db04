package identity

import (
	"context"
	"errors"
	"time"

	"github.com/Parimal-b/InstagramCloneApp/internal/db"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 7 * 24 * time.Hour

// Session is an authenticated identity-provider session.
type Session struct {
	AccountID string    `json:"account_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client is the identity-provider contract: email/password accounts and
// bearer-token sessions. CurrentSession returns (nil, nil) when the token
// does not resolve to a live session.
type Client interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (*Session, error)
}

type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, querier db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     querier,
	}
}

func (s *Service) CreateAccount(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.Exec(ctx, `
		INSERT INTO identity_accounts (id, email, password_hash)
		VALUES ($1,$2,$3)
	`, id, email, string(hash))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, password_hash FROM identity_accounts WHERE email = $1
	`, email)

	var id, hash string
	if err := row.Scan(&id, &hash); err != nil {
		return Session{}, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Session{}, errors.New("invalid credentials")
	}

	expiresAt := time.Now().Add(sessionTTL)
	token, err := s.signToken(id, expiresAt)
	if err != nil {
		return Session{}, err
	}
	return Session{AccountID: id, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO revoked_tokens (token, revoked_at)
		VALUES ($1,$2)
		ON CONFLICT (token) DO NOTHING
	`, token, time.Now())
	return err
}

func (s *Service) CurrentSession(ctx context.Context, token string) (*Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, nil
	}

	var revoked int
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM revoked_tokens WHERE token = $1
	`, token)
	if err := row.Scan(&revoked); err != nil {
		return nil, err
	}
	if revoked > 0 {
		return nil, nil
	}

	return &Session{
		AccountID: claims.AccountID,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) signToken(accountID string, expiresAt time.Time) (string, error) {
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}
