// Package inmem provides in-memory implementations of the persistence
// interfaces for tests and local development. Semantics mirror the
// DynamoDB-backed stores: set-level member adds, idempotent receipt/hide
// updates, and newest-first listings.
package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"campuslearn_server/models"
)

// UserStore is an in-memory services.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.UserProfile
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.UserProfile)}
}

func (s *UserStore) Insert(ctx context.Context, user models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
	return nil
}

func (s *UserStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user with email %s", models.ErrNotFound, email)
}

func (s *UserStore) MatchingStudents(ctx context.Context, key models.CohortKey) ([]models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var students []models.UserProfile
	for _, user := range s.users {
		if user.Role == models.RoleStudent && user.Cohort() == key {
			students = append(students, user)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].UserID < students[j].UserID })
	return students, nil
}

// GroupStore is an in-memory services.GroupStore.
type GroupStore struct {
	mu     sync.RWMutex
	groups map[string]models.Group
}

func NewGroupStore() *GroupStore {
	return &GroupStore{groups: make(map[string]models.Group)}
}

func (s *GroupStore) Insert(ctx context.Context, group models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group.Members = append([]string(nil), group.Members...)
	s.groups[group.GroupID] = group
	return nil
}

func (s *GroupStore) Get(ctx context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("%w: group %s", models.ErrNotFound, groupID)
	}
	group.Members = append([]string(nil), group.Members...)
	return &group, nil
}

func (s *GroupStore) ListByCreator(ctx context.Context, creatorID string) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []models.Group
	for _, group := range s.groups {
		if group.CreatedBy == creatorID {
			groups = append(groups, group)
		}
	}
	sortNewestFirst(groups)
	return groups, nil
}

func (s *GroupStore) ListActiveByMember(ctx context.Context, userID string) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []models.Group
	for _, group := range s.groups {
		if group.IsActive && group.HasMember(userID) {
			groups = append(groups, group)
		}
	}
	sortNewestFirst(groups)
	return groups, nil
}

func (s *GroupStore) FindActiveByCohort(ctx context.Context, key models.CohortKey) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []models.Group
	for _, group := range s.groups {
		if group.IsActive && group.Cohort() == key {
			groups = append(groups, group)
		}
	}
	sortNewestFirst(groups)
	return groups, nil
}

func (s *GroupStore) ReplaceMembers(ctx context.Context, groupID string, members []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("%w: group %s", models.ErrNotFound, groupID)
	}
	group.Members = append([]string(nil), members...)
	s.groups[groupID] = group
	return nil
}

func (s *GroupStore) AddMember(ctx context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("%w: group %s", models.ErrNotFound, groupID)
	}
	if !group.HasMember(userID) {
		group.Members = append(group.Members, userID)
		s.groups[groupID] = group
	}
	return nil
}

func (s *GroupStore) Delete(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, groupID)
	return nil
}

func sortNewestFirst(groups []models.Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CreatedAt > groups[j].CreatedAt
	})
}

// MessageStore is an in-memory services.MessageStore. Messages are kept
// per group in ascending createdAt order.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{messages: make(map[string][]models.Message)}
}

func (s *MessageStore) Insert(ctx context.Context, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.messages[msg.GroupID], msg)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt < list[j].CreatedAt })
	s.messages[msg.GroupID] = list
	return nil
}

func (s *MessageStore) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.messages {
		for _, msg := range list {
			if msg.MessageID == messageID {
				m := msg
				return &m, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: message %s", models.ErrNotFound, messageID)
}

func (s *MessageStore) ListLatest(ctx context.Context, groupID string, limit int, excludeDeletedFor string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var visible []models.Message
	for _, msg := range s.messages[groupID] {
		if excludeDeletedFor != "" && msg.HiddenFor(excludeDeletedFor) {
			continue
		}
		visible = append(visible, msg)
	}
	if len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	return visible, nil
}

func (s *MessageStore) ListAll(ctx context.Context, groupID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages[groupID]...), nil
}

func (s *MessageStore) Delete(ctx context.Context, groupID, createdAt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.messages[groupID]
	for i, msg := range list {
		if msg.CreatedAt == createdAt {
			s.messages[groupID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MessageStore) DeleteAll(ctx context.Context, groupID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := len(s.messages[groupID])
	delete(s.messages, groupID)
	return count, nil
}

func (s *MessageStore) AddDeletedFor(ctx context.Context, groupID, createdAt, userID string) error {
	return s.addToSet(groupID, createdAt, userID, func(msg *models.Message) *[]string { return &msg.DeletedFor })
}

func (s *MessageStore) AddReadBy(ctx context.Context, groupID, createdAt, userID string) error {
	return s.addToSet(groupID, createdAt, userID, func(msg *models.Message) *[]string { return &msg.ReadBy })
}

func (s *MessageStore) addToSet(groupID, createdAt, userID string, field func(*models.Message) *[]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.messages[groupID]
	for i := range list {
		if list[i].CreatedAt != createdAt {
			continue
		}
		set := field(&list[i])
		for _, u := range *set {
			if u == userID {
				return nil
			}
		}
		*set = append(*set, userID)
		return nil
	}
	return fmt.Errorf("%w: message at %s", models.ErrNotFound, createdAt)
}
