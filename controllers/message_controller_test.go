package controllers_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"campuslearn_server/models"
)

func TestSendMessagePublishesNewMessage(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	group := f.createGroup(t, teacher, "CS 2025 A")

	rec := f.multipartMessage(t, alice, group.GroupID, "hello everyone", "", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var msg models.Message
	decodeBody(t, rec, &msg)
	if msg.Content != "hello everyone" || msg.SenderID != alice.UserID {
		t.Fatalf("unexpected message body: %+v", msg)
	}

	events := f.Publisher.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(events))
	}
	if events[0].GroupID != group.GroupID || events[0].Event != models.EventNewMessage {
		t.Fatalf("unexpected broadcast: %+v", events[0])
	}
}

func TestSendMessageAsNonMemberPublishesNothing(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	outsider := f.register(t, registerOutsider())
	group := f.createGroup(t, teacher, "CS 2025 A")

	rec := f.multipartMessage(t, outsider, group.GroupID, "let me in", "", "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	if events := f.Publisher.all(); len(events) != 0 {
		t.Fatalf("rejected send still broadcast %d events", len(events))
	}
	all, err := f.Messages.ListAll(context.Background(), group.GroupID)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected send persisted %d messages", len(all))
	}
}

func TestSendMessageWithValidAttachment(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	group := f.createGroup(t, teacher, "CS 2025 A")

	rec := f.multipartMessage(t, alice, group.GroupID, "", "notes.pdf", "application/pdf", []byte("%PDF-1.4"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var msg models.Message
	decodeBody(t, rec, &msg)
	if msg.FileName != "notes.pdf" || msg.FileType != "application/pdf" || msg.FileURL == "" {
		t.Fatalf("attachment metadata missing: %+v", msg)
	}

	// Download it back through the attachment endpoint.
	dl := f.do(t, alice, http.MethodGet, "/api/messages/"+msg.MessageID+"/attachment", nil)
	if dl.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d: %s", dl.Code, dl.Body.String())
	}
	if got := dl.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("download content type %q", got)
	}
	if got := dl.Header().Get("Content-Disposition"); got != `attachment; filename="notes.pdf"` {
		t.Fatalf("download disposition %q", got)
	}
	data, _ := io.ReadAll(dl.Body)
	if string(data) != "%PDF-1.4" {
		t.Fatalf("download body %q", data)
	}
}

func TestSendMessageRejectsBadAttachments(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	group := f.createGroup(t, teacher, "CS 2025 A")

	cases := []struct {
		name     string
		fileName string
		fileType string
	}{
		{"disallowed extension", "virus.exe", "application/octet-stream"},
		{"extension and type mismatch", "notes.pdf", "image/png"},
		{"no extension", "README", "text/plain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.multipartMessage(t, alice, group.GroupID, "", tc.fileName, tc.fileType, []byte("data"))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	if events := f.Publisher.all(); len(events) != 0 {
		t.Fatalf("rejected uploads still broadcast %d events", len(events))
	}
	all, err := f.Messages.ListAll(context.Background(), group.GroupID)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected uploads persisted %d messages", len(all))
	}
}

func TestSendMessageRequiresGroupID(t *testing.T) {
	f := newAPIFixture(false)
	alice := f.registerStudent(t, "alice")

	rec := f.multipartMessage(t, alice, "", "orphan", "", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetMessagesStatusMapping(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	outsider := f.register(t, registerOutsider())
	group := f.createGroup(t, teacher, "CS 2025 A")

	empty := f.do(t, alice, http.MethodGet, "/api/messages/"+group.GroupID, nil)
	if empty.Code != http.StatusOK {
		t.Fatalf("member on empty group: expected 200, got %d", empty.Code)
	}
	if body := empty.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}

	denied := f.do(t, outsider, http.MethodGet, "/api/messages/"+group.GroupID, nil)
	if denied.Code != http.StatusForbidden {
		t.Fatalf("outsider: expected 403, got %d", denied.Code)
	}

	missing := f.do(t, alice, http.MethodGet, "/api/messages/no-such-group", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("missing group: expected 404, got %d", missing.Code)
	}
}

func TestDeleteMessageForEveryoneBroadcasts(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	group := f.createGroup(t, teacher, "CS 2025 A")

	send := f.multipartMessage(t, alice, group.GroupID, "regret", "", "", nil)
	var msg models.Message
	decodeBody(t, send, &msg)

	rec := f.do(t, alice, http.MethodDelete, "/api/messages/"+msg.MessageID, map[string]bool{"deleteForEveryone": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	events := f.Publisher.all()
	if len(events) != 2 {
		t.Fatalf("expected send + delete broadcasts, got %d", len(events))
	}
	last := events[1]
	if last.Event != models.EventMessageDeleted || last.GroupID != group.GroupID {
		t.Fatalf("unexpected broadcast: %+v", last)
	}
	payload, ok := last.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload type %T", last.Payload)
	}
	if payload["messageId"] != msg.MessageID || payload["deletedForEveryone"] != true {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDeleteMessageForMeIsSilent(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	bob := f.registerStudent(t, "bob")
	group := f.createGroup(t, teacher, "CS 2025 A")

	send := f.multipartMessage(t, alice, group.GroupID, "noise", "", "", nil)
	var msg models.Message
	decodeBody(t, send, &msg)

	rec := f.do(t, bob, http.MethodDelete, "/api/messages/"+msg.MessageID, map[string]bool{"deleteForEveryone": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Only the original send was broadcast.
	if events := f.Publisher.all(); len(events) != 1 {
		t.Fatalf("delete-for-me broadcast events: %d", len(events))
	}

	var bobView []models.Message
	decodeBody(t, f.do(t, bob, http.MethodGet, "/api/messages/"+group.GroupID, nil), &bobView)
	if len(bobView) != 0 {
		t.Fatalf("bob still sees %d messages", len(bobView))
	}
	var aliceView []models.Message
	decodeBody(t, f.do(t, alice, http.MethodGet, "/api/messages/"+group.GroupID, nil), &aliceView)
	if len(aliceView) != 1 {
		t.Fatalf("alice's view changed: %d messages", len(aliceView))
	}
}

func TestDeleteMessageForEveryoneNonSenderForbidden(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	bob := f.registerStudent(t, "bob")
	group := f.createGroup(t, teacher, "CS 2025 A")

	send := f.multipartMessage(t, alice, group.GroupID, "mine", "", "", nil)
	var msg models.Message
	decodeBody(t, send, &msg)

	rec := f.do(t, bob, http.MethodDelete, "/api/messages/"+msg.MessageID, map[string]bool{"deleteForEveryone": true})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if events := f.Publisher.all(); len(events) != 1 {
		t.Fatalf("rejected delete broadcast events: %d", len(events))
	}
}

func TestClearChatBroadcasts(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	group := f.createGroup(t, teacher, "CS 2025 A")

	f.multipartMessage(t, alice, group.GroupID, "one", "", "", nil)
	f.multipartMessage(t, alice, group.GroupID, "two", "", "", nil)

	rec := f.do(t, teacher, http.MethodDelete, "/api/messages/clear/"+group.GroupID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	events := f.Publisher.all()
	last := events[len(events)-1]
	if last.Event != models.EventChatCleared || last.GroupID != group.GroupID {
		t.Fatalf("unexpected broadcast: %+v", last)
	}

	var view []models.Message
	decodeBody(t, f.do(t, alice, http.MethodGet, "/api/messages/"+group.GroupID, nil), &view)
	if len(view) != 0 {
		t.Fatalf("history survived clear: %d messages", len(view))
	}
}

func TestClearChatDeniedForStudent(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	group := f.createGroup(t, teacher, "CS 2025 A")

	rec := f.do(t, alice, http.MethodDelete, "/api/messages/clear/"+group.GroupID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMarkReadEndpoint(t *testing.T) {
	f := newAPIFixture(false)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	bob := f.registerStudent(t, "bob")
	group := f.createGroup(t, teacher, "CS 2025 A")

	f.multipartMessage(t, alice, group.GroupID, "read me", "", "", nil)

	rec := f.do(t, bob, http.MethodPost, "/api/messages/"+group.GroupID+"/read", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view []models.Message
	decodeBody(t, f.do(t, alice, http.MethodGet, "/api/messages/"+group.GroupID, nil), &view)
	if len(view) != 1 {
		t.Fatalf("expected 1 message, got %d", len(view))
	}
	found := false
	for _, u := range view[0].ReadBy {
		if u == bob.UserID {
			found = true
		}
	}
	if !found {
		t.Fatalf("bob's receipt missing from readBy %v", view[0].ReadBy)
	}
}

func TestMessagesRequireAuth(t *testing.T) {
	f := newAPIFixture(false)

	rec := f.do(t, models.Principal{}, http.MethodGet, "/api/messages/some-group", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := f.do(t, models.Principal{UserID: "bogus-token"}, http.MethodGet, "/api/messages/some-group", nil)
	if req.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", req.Code)
	}
}

// TestGroupChatScenario walks the full flow with live subscribers on the
// event bus: group creation with a snapshot, a late registration that
// auto-enrolls, a send that both members receive, and a clear.
func TestGroupChatScenario(t *testing.T) {
	f := newAPIFixture(true)
	teacher := f.registerTeacher(t, "ms-sharma")
	alice := f.registerStudent(t, "alice")
	group := f.createGroup(t, teacher, "CS 2025 A")

	// Late registration joins the existing group automatically.
	bob := f.registerStudent(t, "bob")
	view, err := f.GroupService.Get(context.Background(), group.GroupID, bob)
	if err != nil {
		t.Fatalf("bob should be enrolled: %v", err)
	}
	if len(view.Members) != 2 {
		t.Fatalf("expected 2 members, got %v", view.Members)
	}

	aliceSub := f.Bus.Subscribe(group.GroupID)
	defer aliceSub.Close()
	bobSub := f.Bus.Subscribe(group.GroupID)
	defer bobSub.Close()

	rec := f.multipartMessage(t, alice, group.GroupID, "welcome bob", "", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var msg models.Message
	decodeBody(t, rec, &msg)

	if ev := <-aliceSub.C; ev.Type != models.EventNewMessage {
		t.Fatalf("alice expected new-message, got %s", ev.Type)
	}
	if ev := <-bobSub.C; ev.Type != models.EventNewMessage {
		t.Fatalf("bob expected new-message, got %s", ev.Type)
	}

	// Sender retracts it for everyone; both live clients hear about it.
	del := f.do(t, alice, http.MethodDelete, "/api/messages/"+msg.MessageID, map[string]bool{"deleteForEveryone": true})
	if del.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", del.Code, del.Body.String())
	}
	if ev := <-aliceSub.C; ev.Type != models.EventMessageDeleted {
		t.Fatalf("alice expected message-deleted, got %s", ev.Type)
	}
	if ev := <-bobSub.C; ev.Type != models.EventMessageDeleted {
		t.Fatalf("bob expected message-deleted, got %s", ev.Type)
	}

	var teacherView []models.Message
	decodeBody(t, f.do(t, teacher, http.MethodGet, "/api/messages/"+group.GroupID, nil), &teacherView)
	if len(teacherView) != 0 {
		t.Fatalf("teacher still sees %d messages after retraction", len(teacherView))
	}

	f.multipartMessage(t, bob, group.GroupID, "starting over", "", "", nil)
	<-aliceSub.C
	<-bobSub.C

	res := f.do(t, teacher, http.MethodDelete, "/api/messages/clear/"+group.GroupID, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if ev := <-aliceSub.C; ev.Type != models.EventChatCleared {
		t.Fatalf("alice expected chat-cleared, got %s", ev.Type)
	}
	if ev := <-bobSub.C; ev.Type != models.EventChatCleared {
		t.Fatalf("bob expected chat-cleared, got %s", ev.Type)
	}
}
