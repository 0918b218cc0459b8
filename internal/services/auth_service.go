package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const minPasswordLen = 6

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", models.ErrUnauthorized)

type SignupInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	// Identifier is an email address or a username.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// habitSeeder gives new accounts their starter habits.
type habitSeeder interface {
	SeedDefaults(ctx context.Context, userID uuid.UUID, today models.Day) []models.Habit
}

type AuthService struct {
	log    *zap.Logger
	users  userStore
	enc    *EncryptionService
	seeder habitSeeder
	clock  models.Clock
	secret []byte
	ttl    time.Duration
}

func NewAuthService(
	logger *zap.Logger,
	users userStore,
	enc *EncryptionService,
	seeder habitSeeder,
	clock models.Clock,
	secret []byte,
	ttl time.Duration,
) *AuthService {
	return &AuthService{
		log:    logger.Named("auth"),
		users:  users,
		enc:    enc,
		seeder: seeder,
		clock:  clock,
		secret: secret,
		ttl:    ttl,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	ve := &models.ValidationError{}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		ve.Add("email", "must be a valid email address")
	}
	validateUsername(ve, username)
	if len(in.Password) < minPasswordLen {
		ve.Add("password", "must be at least 6 characters")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmailIndex(ctx, s.enc.EmailIndex(email)); err == nil {
		return nil, fmt.Errorf("email: %w", models.ErrAlreadyExists)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username %s: %w", username, models.ErrAlreadyExists)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashed),
		Theme:        models.ThemeLight,
	}
	if err := s.enc.SealUser(u); err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	u.Email = email

	seeded := s.seeder.SeedDefaults(ctx, u.ID, models.Today(s.clock))
	s.log.Info("user signed up", zap.String("user_id", u.ID.String()), zap.Int("seeded_habits", len(seeded)))

	token, err := s.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	id := strings.TrimSpace(in.Identifier)
	if id == "" || in.Password == "" {
		return nil, models.NewValidationError("identifier", "identifier and password required")
	}

	var (
		u   *models.User
		err error
	)
	if strings.Contains(id, "@") {
		u, err = s.users.GetUserByEmailIndex(ctx, s.enc.EmailIndex(id))
	} else {
		u, err = s.users.GetUserByUsername(ctx, id)
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, errInvalidCredentials
	}
	if err := s.enc.OpenUser(u); err != nil {
		return nil, err
	}

	token, err := s.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// IssueToken signs an HS256 token whose subject is the user id.
func (s *AuthService) IssueToken(userID uuid.UUID) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
