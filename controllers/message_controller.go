package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"campuslearn_server/middleware"
	"campuslearn_server/models"
	"campuslearn_server/realtime"
	"campuslearn_server/services"

	"github.com/gorilla/mux"
)

// MaxUploadBytes is the hard attachment size ceiling.
const MaxUploadBytes = 10 << 20 // 10 MiB

// allowedFileTypes maps permitted extensions to the declared media types
// accepted for them. Both checks must pass before any store mutation.
var allowedFileTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".txt":  {"text/plain"},
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
}

// MessageController handles the message lifecycle endpoints. Mutations
// publish their live events here, after the store reports success: the
// store's job ends at persistence.
type MessageController struct {
	MessageService *services.MessageService
	Publisher      realtime.Publisher
}

// NewMessageController initializes the message controller
func NewMessageController(service *services.MessageService, publisher realtime.Publisher) *MessageController {
	return &MessageController{MessageService: service, Publisher: publisher}
}

// HandleSendMessage - multipart send with optional file; broadcasts
// new-message to the group's channel on success.
func (c *MessageController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: file exceeds the %d MB limit", models.ErrValidation, MaxUploadBytes>>20))
		return
	}

	groupID := r.FormValue("groupId")
	content := r.FormValue("content")
	if groupID == "" {
		writeError(w, fmt.Errorf("%w: groupId is required", models.ErrValidation))
		return
	}

	var att *services.Attachment
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		if err := validateAttachment(header); err != nil {
			writeError(w, err)
			return
		}
		att = &services.Attachment{
			Reader:      file,
			FileName:    header.Filename,
			ContentType: declaredMediaType(header),
		}
	} else if err != http.ErrMissingFile {
		writeError(w, fmt.Errorf("%w: invalid file upload", models.ErrValidation))
		return
	}

	msg, err := c.MessageService.Send(r.Context(), principal, groupID, content, att)
	if err != nil {
		writeError(w, err)
		return
	}

	c.Publisher.Publish(groupID, models.EventNewMessage, msg)
	writeJSON(w, http.StatusCreated, msg)
}

// HandleGetMessages - up to the 500 most recent messages, ascending,
// excluding the caller's delete-for-me set.
func (c *MessageController) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	messages, err := c.MessageService.ListVisible(r.Context(), principal, mux.Vars(r)["groupId"], 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// HandleDeleteMessage - body flag selects delete-for-everyone (sender only,
// broadcasts message-deleted) or delete-for-me (local to the caller).
func (c *MessageController) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	messageID := mux.Vars(r)["id"]

	var body struct {
		DeleteForEveryone bool `json:"deleteForEveryone"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body) // absent body means delete-for-me
	}

	if body.DeleteForEveryone {
		msg, err := c.MessageService.DeleteForEveryone(r.Context(), principal, messageID)
		if err != nil {
			writeError(w, err)
			return
		}
		c.Publisher.Publish(msg.GroupID, models.EventMessageDeleted, map[string]interface{}{
			"messageId":          messageID,
			"deletedForEveryone": true,
		})
		writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted for everyone"})
		return
	}

	if err := c.MessageService.DeleteForMe(r.Context(), principal, messageID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted for you"})
}

// HandleClearChat - teacher+creator wipes the group history and broadcasts
// chat-cleared.
func (c *MessageController) HandleClearChat(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	groupID := mux.Vars(r)["groupId"]

	if err := c.MessageService.ClearGroup(r.Context(), principal, groupID); err != nil {
		writeError(w, err)
		return
	}

	c.Publisher.Publish(groupID, models.EventChatCleared, map[string]interface{}{})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat cleared successfully"})
}

// HandleMarkRead - idempotently acknowledges every message in the group
// for the caller. Read state is pull-based; nothing is broadcast.
func (c *MessageController) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	if _, err := c.MessageService.MarkRead(r.Context(), principal, mux.Vars(r)["groupId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Marked as read"})
}

// HandleDownloadAttachment streams a message's attachment with its original
// filename preserved.
func (c *MessageController) HandleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	rc, msg, err := c.MessageService.OpenAttachment(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", msg.FileType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", msg.FileName))
	io.Copy(w, rc)
}

func validateAttachment(header *multipart.FileHeader) error {
	if header.Size > MaxUploadBytes {
		return fmt.Errorf("%w: file exceeds the %d MB limit", models.ErrValidation, MaxUploadBytes>>20)
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	allowedMedia, ok := allowedFileTypes[ext]
	if !ok {
		return fmt.Errorf("%w: only documents and images are allowed", models.ErrValidation)
	}

	declared := declaredMediaType(header)
	for _, m := range allowedMedia {
		if declared == m {
			return nil
		}
	}
	return fmt.Errorf("%w: file type %q does not match its extension", models.ErrValidation, declared)
}

func declaredMediaType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}
