/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/promo"
	"deposit-desk-go/internal/store"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidPromoCode   = errors.New("invalid promo code")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakPassword       = errors.New("password must be 6 to 72 characters and contain a digit")
)

const (
	minPasswordLength = 6
	// bcrypt only hashes the first 72 bytes and refuses longer input
	maxPasswordLength = 72
)

// Users is the part of store.LedgerStore that holds accounts
type Users interface {
	CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Promos resolves registration promo codes
type Promos interface {
	Lookup(code string) (promo.Promo, error)
}

type Config struct {
	Secret     string
	Issuer     string
	TokenTtl   time.Duration
	BcryptCost int
}

// Claims identify the end user a bearer token was issued to
type Claims struct {
	UserId string `json:"user_id"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

type SignUpInput struct {
	Name      string
	Email     string
	Password  string
	PromoCode string
}

type SignUpResult struct {
	User  *models.User
	Token string
	Promo *promo.Promo
}

// Service registers end users and issues HS256 bearer tokens
type Service struct {
	users  Users
	promos Promos
	config Config
	now    func() time.Time
}

func NewService(users Users, promos Promos, cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, promos: promos, config: cfg, now: time.Now}, nil
}

// PasswordStrong reports whether a password satisfies the sign-up rule
func PasswordStrong(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}
	return strings.IndexFunc(password, unicode.IsDigit) >= 0
}

func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	if !PasswordStrong(input.Password) {
		return nil, ErrWeakPassword
	}

	var applied *promo.Promo
	if code := strings.TrimSpace(input.PromoCode); code != "" {
		p, err := s.promos.Lookup(code)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPromoCode, err)
		}
		applied = &p
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	params := store.CreateUserParams{
		UserId:       uuid.New().String(),
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: string(hash),
	}
	if applied != nil {
		params.PromoCode = applied.Code
		params.PromoPercent = applied.Percent
	}

	user, err := s.users.CreateUser(ctx, params)
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	zap.L().Info("User signed up",
		zap.String("user_id", user.Id),
		zap.String("promo_code", params.PromoCode))

	return &SignUpResult{User: user, Token: token, Promo: applied}, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		zap.L().Info("Sign-in rejected", zap.String("user_id", user.Id))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *Service) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserId: user.Id,
		Email:  user.Email,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.config.TokenTtl).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    s.config.Issuer,
			Subject:   user.Id,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.config.Issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.UserId == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
