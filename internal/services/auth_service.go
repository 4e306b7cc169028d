package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmacia/internal/apperrors"
	"farmacia/internal/models"
	"farmacia/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = apperrors.Unauthorized("Usuário ou senha inválidos")

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewAuthService creates a new AuthService. A non-positive ttl falls back to 24h.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, ttl time.Duration, log zerolog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
		validate:  NewValidator(),
		log:       log.With().Str("component", "auth_service").Logger(),
	}
}

// RegisterUser hashes the password and stores the user. On success
// user.Password holds the hash.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	if err := s.validate.Struct(user); err != nil {
		return translateValidation(err)
	}

	if _, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil {
		return apperrors.ExistsData("Nome de usuário já cadastrado.", apperrors.CodeUsernameExists, apperrors.Fields{"username": user.Username})
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil {
		return apperrors.ExistsData("E-mail já cadastrado.", apperrors.CodeEmailExists, apperrors.Fields{"email": user.Email})
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return apperrors.CannotCreate("Erro ao cadastrar usuário", apperrors.Fields{"username": user.Username}, err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return nil
}

// LoginUser authenticates a user and returns a signed JWT.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.log.Error().Err(err).Msg("failed to load user")
		}
		return "", errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", errInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
