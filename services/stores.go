package services

import (
	"context"

	"campuslearn_server/models"
)

// The store interfaces are the persistence seams the services talk through.
// DynamoDB-backed implementations live alongside them in this package; an
// in-memory backend for tests and local development lives in storage/inmem.

// UserStore owns user profile documents.
type UserStore interface {
	Insert(ctx context.Context, user models.UserProfile) error
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	// MatchingStudents returns every student whose cohort attributes
	// exactly equal key.
	MatchingStudents(ctx context.Context, key models.CohortKey) ([]models.UserProfile, error)
}

// GroupStore owns group documents and their membership snapshots.
type GroupStore interface {
	Insert(ctx context.Context, group models.Group) error
	Get(ctx context.Context, groupID string) (*models.Group, error)
	ListByCreator(ctx context.Context, creatorID string) ([]models.Group, error)
	ListActiveByMember(ctx context.Context, userID string) ([]models.Group, error)
	FindActiveByCohort(ctx context.Context, key models.CohortKey) ([]models.Group, error)
	// ReplaceMembers swaps the whole membership snapshot (refresh semantics).
	ReplaceMembers(ctx context.Context, groupID string, members []string) error
	// AddMember unions a single user into the snapshot. Must be a set-level
	// add, never a read-modify-write of the whole document.
	AddMember(ctx context.Context, groupID, userID string) error
	Delete(ctx context.Context, groupID string) error
}

// MessageStore owns message documents for all groups.
type MessageStore interface {
	Insert(ctx context.Context, msg models.Message) error
	// GetByID resolves a message by its globally unique id.
	GetByID(ctx context.Context, messageID string) (*models.Message, error)
	// ListLatest returns up to limit of the newest messages in the group,
	// oldest first, excluding those hidden for excludeDeletedFor (when
	// non-empty).
	ListLatest(ctx context.Context, groupID string, limit int, excludeDeletedFor string) ([]models.Message, error)
	// ListAll returns every message in the group, oldest first.
	ListAll(ctx context.Context, groupID string) ([]models.Message, error)
	Delete(ctx context.Context, groupID, createdAt string) error
	// DeleteAll removes every message in the group and reports how many.
	DeleteAll(ctx context.Context, groupID string) (int, error)
	AddDeletedFor(ctx context.Context, groupID, createdAt, userID string) error
	AddReadBy(ctx context.Context, groupID, createdAt, userID string) error
}
