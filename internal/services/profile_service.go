package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

type dailyEnsurer interface {
	EnsureAllDailyTasks(ctx context.Context, userID uuid.UUID, today models.Day) ([]DailyStatus, error)
}

type experienceReader interface {
	Levels(ctx context.Context, userID uuid.UUID) (*UserLevels, error)
	Summary(ctx context.Context, userID uuid.UUID) (*ExperienceSummary, error)
}

type friendLister interface {
	Lists(ctx context.Context, userID uuid.UUID) (*FriendLists, error)
}

type ProfileUser struct {
	ID       uuid.UUID    `json:"id"`
	Email    string       `json:"email,omitempty"`
	Username string       `json:"username"`
	Theme    models.Theme `json:"theme,omitempty"`
}

type Profile struct {
	User       ProfileUser        `json:"user"`
	Habits     []DailyStatus      `json:"habits"`
	Levels     *UserLevels        `json:"levels"`
	Friends    *FriendLists       `json:"friends"`
	Experience *ExperienceSummary `json:"experience"`
}

// ProfileService assembles a user's profile from the engine and its
// collaborators.
type ProfileService struct {
	log           *zap.Logger
	users         userStore
	relationships relationshipStore
	enc           *EncryptionService
	daily         dailyEnsurer
	experience    experienceReader
	friends       friendLister
}

func NewProfileService(
	logger *zap.Logger,
	users userStore,
	relationships relationshipStore,
	enc *EncryptionService,
	daily dailyEnsurer,
	experience experienceReader,
	friends friendLister,
) *ProfileService {
	return &ProfileService{
		log:           logger.Named("profile"),
		users:         users,
		relationships: relationships,
		enc:           enc,
		daily:         daily,
		experience:    experience,
		friends:       friends,
	}
}

// Build returns targetID's profile as seen by viewerID. Today's tasks are
// ensured first so habit statuses are current; the read-only sections are
// then loaded concurrently. Email and pending requests are shown to the
// owner only.
func (s *ProfileService) Build(ctx context.Context, viewerID, targetID uuid.UUID, today models.Day) (*Profile, error) {
	u, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	owner := viewerID == targetID
	if !owner {
		if err := s.checkNotBlocked(ctx, viewerID, targetID); err != nil {
			return nil, err
		}
	}

	p := &Profile{User: ProfileUser{ID: u.ID, Username: u.Username}}
	if owner {
		if err := s.enc.OpenUser(u); err != nil {
			return nil, err
		}
		p.User.Email = u.Email
		p.User.Theme = u.Theme
	}

	p.Habits, err = s.daily.EnsureAllDailyTasks(ctx, targetID, today)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		levels, err := s.experience.Levels(gctx, targetID)
		p.Levels = levels
		return err
	})
	g.Go(func() error {
		summary, err := s.experience.Summary(gctx, targetID)
		p.Experience = summary
		return err
	})
	g.Go(func() error {
		lists, err := s.friends.Lists(gctx, targetID)
		if err != nil {
			return err
		}
		if !owner {
			lists.Pending = []models.UserRelationship{}
			lists.Sent = []models.UserRelationship{}
		}
		p.Friends = lists
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build profile %s: %w", targetID, err)
	}
	return p, nil
}

// checkNotBlocked hides a profile from users its owner has blocked.
func (s *ProfileService) checkNotBlocked(ctx context.Context, viewerID, targetID uuid.UUID) error {
	r, err := s.relationships.FindRelationship(ctx, targetID, viewerID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if r.Type == models.RelationshipBlocked {
		return fmt.Errorf("user %s: %w", targetID, models.ErrNotFound)
	}
	return nil
}
