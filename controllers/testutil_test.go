package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"campuslearn_server/models"
	"campuslearn_server/realtime"
	"campuslearn_server/routes"
	"campuslearn_server/services"
	"campuslearn_server/storage/inmem"

	"github.com/gorilla/mux"
)

// fakeVerifier resolves bearer tokens from a fixed map; the token is the
// user id, which keeps request building trivial.
type fakeVerifier struct {
	principals map[string]models.Principal
}

func (v *fakeVerifier) Verify(token string) (models.Principal, error) {
	p, ok := v.principals[token]
	if !ok {
		return models.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

type publishedEvent struct {
	GroupID string
	Event   string
	Payload interface{}
}

// recordingPublisher captures every broadcast for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(groupID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{GroupID: groupID, Event: event, Payload: payload})
}

func (p *recordingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return "/uploads/" + key, nil
}

func (m *memBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

type apiFixture struct {
	Router    *mux.Router
	Verifier  *fakeVerifier
	Publisher *recordingPublisher
	Bus       *realtime.Bus

	Messages *inmem.MessageStore

	UserService    *services.UserService
	GroupService   *services.GroupService
	MessageService *services.MessageService
}

// newAPIFixture wires the whole HTTP surface over in-memory stores. When
// useBus is true broadcasts go through the realtime bus instead of the
// recorder, so tests can subscribe like a live client would.
func newAPIFixture(useBus bool) *apiFixture {
	users := inmem.NewUserStore()
	groups := inmem.NewGroupStore()
	messages := inmem.NewMessageStore()

	messageService := services.NewMessageService(messages, groups, users, newMemBlobStore())
	groupService := &services.GroupService{Users: users, Groups: groups, Messages: messageService}
	userService := &services.UserService{Users: users, Groups: groupService}

	verifier := &fakeVerifier{principals: make(map[string]models.Principal)}
	recorder := &recordingPublisher{}
	bus := realtime.NewBus()

	var publisher realtime.Publisher = recorder
	if useBus {
		publisher = bus
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router)
	routes.RegisterUserRoutes(router, userService)
	routes.RegisterGroupRoutes(router, groupService, verifier)
	routes.RegisterMessageRoutes(router, messageService, publisher, verifier)

	return &apiFixture{
		Router:         router,
		Verifier:       verifier,
		Publisher:      recorder,
		Bus:            bus,
		Messages:       messages,
		UserService:    userService,
		GroupService:   groupService,
		MessageService: messageService,
	}
}

func (f *apiFixture) register(t *testing.T, input services.RegisterInput) models.Principal {
	t.Helper()
	profile, err := f.UserService.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("register %s: %v", input.Name, err)
	}
	p := models.Principal{UserID: profile.UserID, Name: profile.Name, Role: profile.Role}
	f.Verifier.principals[p.UserID] = p
	return p
}

func (f *apiFixture) registerTeacher(t *testing.T, name string) models.Principal {
	t.Helper()
	return f.register(t, services.RegisterInput{Name: name, Email: name + "@campus.test", Role: models.RoleTeacher})
}

func (f *apiFixture) registerStudent(t *testing.T, name string) models.Principal {
	t.Helper()
	return f.register(t, services.RegisterInput{
		Name: name, Email: name + "@campus.test", Role: models.RoleStudent,
		PassingYear: 2025, Department: "Computer Science", Section: "A", School: "SOET",
	})
}

// registerOutsider is a student whose cohort matches no fixture group.
func registerOutsider() services.RegisterInput {
	return services.RegisterInput{
		Name: "outsider", Email: "outsider@campus.test", Role: models.RoleStudent,
		PassingYear: 2026, Department: "Electrical", Section: "C", School: "SOET",
	}
}

func (f *apiFixture) createGroup(t *testing.T, teacher models.Principal, name string) *models.Group {
	t.Helper()
	group, err := f.GroupService.Create(context.Background(), teacher, services.CreateGroupInput{
		Name: name, PassingYear: 2025, Department: "Computer Science", Section: "A", School: "SOET",
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}

// do runs a JSON request through the router as the given principal.
func (f *apiFixture) do(t *testing.T, as models.Principal, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as.UserID != "" {
		req.Header.Set("Authorization", "Bearer "+as.UserID)
	}
	rec := httptest.NewRecorder()
	f.Router.ServeHTTP(rec, req)
	return rec
}

// multipartMessage builds a send-message request with an optional file part.
func (f *apiFixture) multipartMessage(t *testing.T, as models.Principal, groupID, content, fileName, fileType string, fileData []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("groupId", groupID); err != nil {
		t.Fatalf("write groupId: %v", err)
	}
	if content != "" {
		if err := mw.WriteField("content", content); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}
	if fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
		header.Set("Content-Type", fileType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("write file data: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/messages", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+as.UserID)
	rec := httptest.NewRecorder()
	f.Router.ServeHTTP(rec, req)
	return rec
}

func newRawRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
