package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"campuslearn_server/models"
	"campuslearn_server/services"
	"campuslearn_server/storage/inmem"
)

// fakeBlobStore keeps blobs in memory and records deletions so tests can
// assert best-effort cleanup behavior.
type fakeBlobStore struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	deleted    []string
	failDelete bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = data
	return "/uploads/" + key, nil
}

func (f *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.failDelete {
		return errors.New("blob backend unavailable")
	}
	delete(f.blobs, key)
	return nil
}

func (f *fakeBlobStore) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

type fixture struct {
	Users    *inmem.UserStore
	Groups   *inmem.GroupStore
	Messages *inmem.MessageStore
	Blobs    *fakeBlobStore

	UserService    *services.UserService
	GroupService   *services.GroupService
	MessageService *services.MessageService
}

func newFixture() *fixture {
	users := inmem.NewUserStore()
	groups := inmem.NewGroupStore()
	messages := inmem.NewMessageStore()
	blobs := newFakeBlobStore()

	messageService := services.NewMessageService(messages, groups, users, blobs)
	groupService := &services.GroupService{Users: users, Groups: groups, Messages: messageService}
	userService := &services.UserService{Users: users, Groups: groupService}

	return &fixture{
		Users:          users,
		Groups:         groups,
		Messages:       messages,
		Blobs:          blobs,
		UserService:    userService,
		GroupService:   groupService,
		MessageService: messageService,
	}
}

var testCohort = models.CohortKey{
	PassingYear: 2025,
	Department:  "Computer Science",
	Section:     "A",
	School:      "SOET",
}

func (f *fixture) registerTeacher(t *testing.T, name string) models.Principal {
	t.Helper()
	profile, err := f.UserService.Register(context.Background(), services.RegisterInput{
		Name:  name,
		Email: name + "@campus.test",
		Role:  models.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("register teacher %s: %v", name, err)
	}
	return principalOf(profile)
}

func (f *fixture) registerStudent(t *testing.T, name string, key models.CohortKey) models.Principal {
	t.Helper()
	profile, err := f.UserService.Register(context.Background(), services.RegisterInput{
		Name:        name,
		Email:       name + "@campus.test",
		Role:        models.RoleStudent,
		PassingYear: key.PassingYear,
		Department:  key.Department,
		Section:     key.Section,
		School:      key.School,
	})
	if err != nil {
		t.Fatalf("register student %s: %v", name, err)
	}
	return principalOf(profile)
}

func (f *fixture) createGroup(t *testing.T, teacher models.Principal, name string, key models.CohortKey) *models.Group {
	t.Helper()
	group, err := f.GroupService.Create(context.Background(), teacher, services.CreateGroupInput{
		Name:        name,
		PassingYear: key.PassingYear,
		Department:  key.Department,
		Section:     key.Section,
		School:      key.School,
	})
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return group
}

func principalOf(profile *models.UserProfile) models.Principal {
	return models.Principal{UserID: profile.UserID, Name: profile.Name, Role: profile.Role}
}
