// Package memstore is an in-process implementation of every store the
// services depend on. It enforces the same uniqueness and compare-and-set
// rules as the PostgreSQL schema but does not roll back failed transactions.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

type expKey struct {
	user     uuid.UUID
	category uuid.UUID
}

type Store struct {
	// txMu serializes RunInTx callers; mu guards the maps.
	txMu sync.Mutex
	mu   sync.RWMutex

	clock models.Clock

	users         map[uuid.UUID]models.User
	categories    map[uuid.UUID]models.Category
	habits        map[uuid.UUID]models.Habit
	streaks       map[uuid.UUID]models.Streak
	tasks         map[uuid.UUID]models.HabitTask
	experience    map[expKey]models.UserCategoryExperience
	ledger        []models.ExperienceTransaction
	relationships map[uuid.UUID]models.UserRelationship
}

type Option func(*Store)

// WithClock stamps created/updated times from c instead of the wall clock.
func WithClock(c models.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(opts ...Option) *Store {
	s := &Store{
		clock:         models.NewSystemClock(time.UTC),
		users:         make(map[uuid.UUID]models.User),
		categories:    make(map[uuid.UUID]models.Category),
		habits:        make(map[uuid.UUID]models.Habit),
		streaks:       make(map[uuid.UUID]models.Streak),
		tasks:         make(map[uuid.UUID]models.HabitTask),
		experience:    make(map[expKey]models.UserCategoryExperience),
		relationships: make(map[uuid.UUID]models.UserRelationship),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) now() time.Time { return s.clock.Now() }

type txKey struct{}

// RunInTx runs fn while holding the store-wide transaction lock. Nested
// calls run inline.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// LockUserHabit is a no-op: RunInTx already serializes all transactions.
func (s *Store) LockUserHabit(ctx context.Context, userID, habitID uuid.UUID) error {
	return ctx.Err()
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
