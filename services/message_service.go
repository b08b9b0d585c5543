package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"campuslearn_server/models"
	"campuslearn_server/storage"

	"github.com/google/uuid"
)

// Attachment is an uploaded file accompanying a message, already validated
// by the transport layer (size ceiling, type allowlist).
type Attachment struct {
	Reader      io.Reader
	FileName    string
	ContentType string
}

// MessageService owns the message lifecycle: ordered persistence, per-user
// soft deletion, hard deletion, read receipts, and bulk clearing. The
// service's job ends at persistence; live-event publishing belongs to the
// callers.
type MessageService struct {
	Messages MessageStore
	Groups   GroupStore
	Users    UserStore
	Blobs    storage.BlobStore

	mu   sync.Mutex
	last map[string]time.Time
}

func NewMessageService(messages MessageStore, groups GroupStore, users UserStore, blobs storage.BlobStore) *MessageService {
	return &MessageService{
		Messages: messages,
		Groups:   groups,
		Users:    users,
		Blobs:    blobs,
		last:     make(map[string]time.Time),
	}
}

// Send validates, stores the attachment blob if present, and persists the
// message with a per-group strictly increasing timestamp.
func (s *MessageService) Send(ctx context.Context, principal models.Principal, groupID, content string, att *Attachment) (*models.Message, error) {
	group, err := s.Groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := RequireAccess(group, principal.UserID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" && att == nil {
		return nil, fmt.Errorf("%w: message content or file is required", models.ErrValidation)
	}
	if utf8.RuneCountInString(content) > models.MaxContentRunes {
		return nil, fmt.Errorf("%w: content exceeds %d characters", models.ErrValidation, models.MaxContentRunes)
	}

	sender, err := s.Users.Get(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	createdAt := s.nextTimestamp(groupID)
	msg := models.Message{
		GroupID:    groupID,
		CreatedAt:  createdAt,
		MessageID:  uuid.New().String(),
		SenderID:   sender.UserID,
		SenderName: sender.Name,
		SenderRole: sender.Role,
		Content:    content,
		UpdatedAt:  createdAt,
	}

	if att != nil {
		key := fmt.Sprintf("messages/%d-%s%s", time.Now().UnixMilli(), uuid.New().String(), strings.ToLower(path.Ext(att.FileName)))
		fileURL, err := s.Blobs.Save(ctx, key, att.Reader, att.ContentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
		}
		msg.FileURL = fileURL
		msg.FileName = att.FileName
		msg.FileType = att.ContentType
	}

	if err := s.Messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListVisible returns the most recent window of the group's history in
// ascending order, skipping messages the caller deleted for themselves.
func (s *MessageService) ListVisible(ctx context.Context, principal models.Principal, groupID string, limit int) ([]models.Message, error) {
	group, err := s.Groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := RequireAccess(group, principal.UserID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = models.DefaultMessageLimit
	}
	messages, err := s.Messages.ListLatest(ctx, groupID, limit, principal.UserID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// DeleteForEveryone removes the message for all members. The attachment
// blob is deleted best-effort: a failed file removal never leaves the
// message stuck. Returns the removed message so callers can broadcast.
func (s *MessageService) DeleteForEveryone(ctx context.Context, principal models.Principal, messageID string) (*models.Message, error) {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != principal.UserID {
		return nil, fmt.Errorf("%w: only sender can delete for everyone", models.ErrPermissionDenied)
	}

	s.deleteBlob(ctx, msg)
	if err := s.Messages.Delete(ctx, msg.GroupID, msg.CreatedAt); err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteForMe hides the message from the caller only. Idempotent; no other
// member's view changes and nothing is broadcast.
func (s *MessageService) DeleteForMe(ctx context.Context, principal models.Principal, messageID string) error {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.HiddenFor(principal.UserID) {
		return nil
	}
	return s.Messages.AddDeletedFor(ctx, msg.GroupID, msg.CreatedAt, principal.UserID)
}

// ClearGroup wipes the group's whole history. Teacher role and group
// ownership are both required.
func (s *MessageService) ClearGroup(ctx context.Context, principal models.Principal, groupID string) error {
	if err := RequireRole(principal, models.RoleTeacher); err != nil {
		return fmt.Errorf("%w: only teachers can clear chat", models.ErrPermissionDenied)
	}

	group, err := s.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy != principal.UserID {
		return fmt.Errorf("%w: only group creator can clear chat", models.ErrPermissionDenied)
	}

	_, err = s.PurgeGroup(ctx, groupID)
	return err
}

// PurgeGroup deletes every message in the group plus attachment blobs.
// No authorization checks: callers guard first. Used by ClearGroup and by
// the group-delete cascade.
func (s *MessageService) PurgeGroup(ctx context.Context, groupID string) (int, error) {
	messages, err := s.Messages.ListAll(ctx, groupID)
	if err != nil {
		return 0, err
	}
	for i := range messages {
		s.deleteBlob(ctx, &messages[i])
	}
	return s.Messages.DeleteAll(ctx, groupID)
}

// MarkRead acknowledges every message in the group not already read by the
// caller. Idempotent; read state is pull-based, so nothing is broadcast.
func (s *MessageService) MarkRead(ctx context.Context, principal models.Principal, groupID string) (int, error) {
	group, err := s.Groups.Get(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if err := RequireAccess(group, principal.UserID); err != nil {
		return 0, err
	}

	messages, err := s.Messages.ListAll(ctx, groupID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, msg := range messages {
		if msg.ReadByUser(principal.UserID) {
			continue
		}
		if err := s.Messages.AddReadBy(ctx, msg.GroupID, msg.CreatedAt, principal.UserID); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// OpenAttachment streams a message's attachment, guarded by group access.
func (s *MessageService) OpenAttachment(ctx context.Context, principal models.Principal, messageID string) (io.ReadCloser, *models.Message, error) {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	group, err := s.Groups.Get(ctx, msg.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if err := RequireAccess(group, principal.UserID); err != nil {
		return nil, nil, err
	}
	if msg.FileURL == "" {
		return nil, nil, fmt.Errorf("%w: message has no attachment", models.ErrNotFound)
	}

	rc, err := s.Blobs.Open(ctx, storage.KeyFromURL(msg.FileURL))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return rc, msg, nil
}

// deleteBlob removes a message's attachment blob, logging failures instead
// of aborting the enclosing deletion.
func (s *MessageService) deleteBlob(ctx context.Context, msg *models.Message) {
	if msg.FileURL == "" {
		return
	}
	if err := s.Blobs.Delete(ctx, storage.KeyFromURL(msg.FileURL)); err != nil {
		log.Printf("❌ Failed to delete attachment for message %s: %v", msg.MessageID, err)
	}
}

// nextTimestamp hands out per-group strictly increasing timestamps so
// concurrent sends to the same group never tie or reorder on read.
func (s *MessageService) nextTimestamp(groupID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if last, ok := s.last[groupID]; ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	s.last[groupID] = now
	return now.Format(models.TimeLayout)
}
