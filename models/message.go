package models

// Table and index names for DynamoDB
const (
	MessagesTable  = "Messages"
	MessageIDIndex = "MessageIdIndex" // GSI: messageId (PK)
)

// TimeLayout is the fixed-width UTC timestamp format used for createdAt
// sort keys. Unlike RFC3339Nano it never trims trailing zeros, so
// lexicographic order on the stored string equals time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// MaxContentRunes caps message content length in code points.
const MaxContentRunes = 2000

// DefaultMessageLimit is the visible-history window per group.
const DefaultMessageLimit = 500

// Socket event names shared by the live channel and its clients.
const (
	EventNewMessage     = "new-message"
	EventMessageDeleted = "message-deleted"
	EventChatCleared    = "chat-cleared"
	EventUserTyping     = "user-typing"
)

// Message represents a group chat message stored in DynamoDB.
type Message struct {
	GroupID    string   `dynamodbav:"groupId" json:"groupId"`     // ✅ Partition Key
	CreatedAt  string   `dynamodbav:"createdAt" json:"createdAt"` // ✅ Sort Key (fixed-width timestamp)
	MessageID  string   `dynamodbav:"messageId" json:"messageId"` // ✅ Unique message ID (UUID-based)
	SenderID   string   `dynamodbav:"senderId" json:"senderId"`
	SenderName string   `dynamodbav:"senderName" json:"senderName"`
	SenderRole string   `dynamodbav:"senderRole" json:"senderRole"`
	Content    string   `dynamodbav:"content,omitempty" json:"content,omitempty"`
	FileURL    string   `dynamodbav:"fileUrl,omitempty" json:"fileUrl,omitempty"` // relative path under the static root
	FileName   string   `dynamodbav:"fileName,omitempty" json:"fileName,omitempty"`
	FileType   string   `dynamodbav:"fileType,omitempty" json:"fileType,omitempty"`
	ReadBy     []string `dynamodbav:"readBy,stringset,omitempty" json:"readBy"`         // ✅ Read receipts per user
	DeletedFor []string `dynamodbav:"deletedFor,stringset,omitempty" json:"deletedFor"` // ✅ "Delete for me" per user
	IsEdited   bool     `dynamodbav:"isEdited" json:"isEdited"`                         // reserved, no edit operation exposed
	EditedAt   string   `dynamodbav:"editedAt,omitempty" json:"editedAt,omitempty"`
	UpdatedAt  string   `dynamodbav:"updatedAt" json:"updatedAt"`
}

// HiddenFor reports whether the message was "deleted for me" by userID.
func (m Message) HiddenFor(userID string) bool {
	for _, u := range m.DeletedFor {
		if u == userID {
			return true
		}
	}
	return false
}

// ReadByUser reports whether userID has acknowledged the message.
func (m Message) ReadByUser(userID string) bool {
	for _, u := range m.ReadBy {
		if u == userID {
			return true
		}
	}
	return false
}
