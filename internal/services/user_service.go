package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const (
	minUsernameLen     = 3
	maxUsernameLen     = 50
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

type UpdateUserInput struct {
	Username *string       `json:"username"`
	Theme    *models.Theme `json:"theme"`
}

// UserSummary is what other users may see of an account.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type UserService struct {
	log   *zap.Logger
	users userStore
	enc   *EncryptionService
}

func NewUserService(logger *zap.Logger, users userStore, enc *EncryptionService) *UserService {
	return &UserService{log: logger.Named("users"), users: users, enc: enc}
}

// Get returns the user with a decrypted email.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.enc.OpenUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &models.ValidationError{}
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
		validateUsername(ve, u.Username)
	}
	if in.Theme != nil {
		if !in.Theme.Valid() {
			ve.Add("theme", "must be LIGHT or DARK")
		}
		u.Theme = *in.Theme
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	if err := s.enc.OpenUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Search(ctx context.Context, query string, limit int) ([]UserSummary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)
	users, err := s.users.SearchUsers(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Username: u.Username})
	}
	return out, nil
}

func validateUsername(ve *models.ValidationError, username string) {
	switch {
	case len(username) < minUsernameLen:
		ve.Add("username", "must be at least 3 characters")
	case len(username) > maxUsernameLen:
		ve.Add("username", "too long")
	case strings.ContainsAny(username, " @\t\n"):
		ve.Add("username", "must not contain spaces or @")
	}
}
