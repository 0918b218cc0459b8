package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

// Friend is one side of a FRIEND relationship seen from the viewer.
type Friend struct {
	RelationshipID uuid.UUID `json:"relationship_id"`
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Since          time.Time `json:"since"`
}

type FriendLists struct {
	Friends []Friend                  `json:"friends"`
	Pending []models.UserRelationship `json:"pending_requests"`
	Sent    []models.UserRelationship `json:"sent_requests"`
}

type FriendService struct {
	log           *zap.Logger
	tx            txManager
	users         userStore
	relationships relationshipStore
}

func NewFriendService(logger *zap.Logger, tx txManager, users userStore, relationships relationshipStore) *FriendService {
	return &FriendService{
		log:           logger.Named("friends"),
		tx:            tx,
		users:         users,
		relationships: relationships,
	}
}

func (s *FriendService) SendRequest(ctx context.Context, userID, targetID uuid.UUID) (*models.UserRelationship, error) {
	if userID == targetID {
		return nil, models.NewValidationError("target_user_id", "cannot send a friend request to yourself")
	}
	if _, err := s.users.GetUser(ctx, targetID); err != nil {
		return nil, err
	}

	if _, err := s.relationships.FindRelationship(ctx, userID, targetID); err == nil {
		return nil, fmt.Errorf("relationship with %s: %w", targetID, models.ErrAlreadyExists)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	reverse, err := s.relationships.FindRelationship(ctx, targetID, userID)
	switch {
	case err == nil && reverse.Type == models.RelationshipBlocked:
		return nil, fmt.Errorf("user %s: %w", targetID, models.ErrForbidden)
	case err == nil:
		return nil, fmt.Errorf("relationship with %s: %w", targetID, models.ErrAlreadyExists)
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	r := &models.UserRelationship{UserID: userID, TargetUserID: targetID, Type: models.RelationshipPending}
	if err := s.relationships.CreateRelationship(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Accept turns a pending request addressed to userID into a friendship.
func (s *FriendService) Accept(ctx context.Context, userID, requestID uuid.UUID) (*models.UserRelationship, error) {
	r, err := s.relationships.GetRelationship(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.TargetUserID != userID {
		return nil, fmt.Errorf("friend request %s: %w", requestID, models.ErrNotFound)
	}
	if r.Type != models.RelationshipPending {
		return nil, fmt.Errorf("friend request %s is %s: %w", requestID, r.Type, models.ErrInvalidState)
	}
	return s.relationships.UpdateRelationshipType(ctx, requestID, models.RelationshipFriend)
}

// Remove deletes a relationship userID is part of. Removing a friendship
// also clears any mirrored FRIEND row.
func (s *FriendService) Remove(ctx context.Context, userID, relationshipID uuid.UUID) error {
	r, err := s.relationships.GetRelationship(ctx, relationshipID)
	if err != nil {
		return err
	}
	if r.UserID != userID && r.TargetUserID != userID {
		return fmt.Errorf("relationship %s: %w", relationshipID, models.ErrNotFound)
	}
	if r.Type == models.RelationshipBlocked && r.UserID != userID {
		return fmt.Errorf("relationship %s: %w", relationshipID, models.ErrForbidden)
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.relationships.DeleteRelationship(ctx, relationshipID); err != nil {
			return err
		}
		if r.Type != models.RelationshipFriend {
			return nil
		}
		mirror, err := s.relationships.FindRelationship(ctx, r.TargetUserID, r.UserID)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if mirror.Type != models.RelationshipFriend {
			return nil
		}
		return s.relationships.DeleteRelationship(ctx, mirror.ID)
	})
}

// Block replaces every relationship between the two users with a single
// BLOCKED row owned by userID.
func (s *FriendService) Block(ctx context.Context, userID, targetID uuid.UUID) (*models.UserRelationship, error) {
	if userID == targetID {
		return nil, models.NewValidationError("target_user_id", "cannot block yourself")
	}
	if _, err := s.users.GetUser(ctx, targetID); err != nil {
		return nil, err
	}

	r := &models.UserRelationship{UserID: userID, TargetUserID: targetID, Type: models.RelationshipBlocked}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.relationships.DeleteRelationshipsBetween(ctx, userID, targetID); err != nil {
			return err
		}
		return s.relationships.CreateRelationship(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user blocked", zap.String("user_id", userID.String()), zap.String("target_user_id", targetID.String()))
	return r, nil
}

func (s *FriendService) Friends(ctx context.Context, userID uuid.UUID) ([]Friend, error) {
	rows, err := s.relationships.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Friend, 0, len(rows))
	seen := make(map[uuid.UUID]bool, len(rows))
	for _, r := range rows {
		f := Friend{RelationshipID: r.ID, UserID: r.TargetUserID, Username: r.TargetUsername, Since: r.UpdatedAt}
		if r.TargetUserID == userID {
			f.UserID, f.Username = r.UserID, r.Username
		}
		if seen[f.UserID] {
			continue
		}
		seen[f.UserID] = true
		out = append(out, f)
	}
	return out, nil
}

func (s *FriendService) Pending(ctx context.Context, userID uuid.UUID) ([]models.UserRelationship, error) {
	return s.relationships.ListIncoming(ctx, userID, models.RelationshipPending)
}

func (s *FriendService) Sent(ctx context.Context, userID uuid.UUID) ([]models.UserRelationship, error) {
	return s.relationships.ListOutgoing(ctx, userID, models.RelationshipPending)
}

func (s *FriendService) Lists(ctx context.Context, userID uuid.UUID) (*FriendLists, error) {
	friends, err := s.Friends(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}
	sent, err := s.Sent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &FriendLists{Friends: friends, Pending: pending, Sent: sent}, nil
}
