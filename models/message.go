package models

// Attachment is a stored file reference on a message. The bytes live in
// object storage; only the public URL is persisted here.
type Attachment struct {
	Type     string `dynamodbav:"type" json:"type"`
	URL      string `dynamodbav:"url" json:"url"`
	Filename string `dynamodbav:"filename" json:"filename"`
	Size     int64  `dynamodbav:"size" json:"size"`
	MimeType string `dynamodbav:"mimeType" json:"mimeType"`
}

// Message is a single chat message. conversationId/connectionId are empty
// while the message waits behind a pending message request and are
// back-filled on acceptance.
type Message struct {
	MessageID      string       `dynamodbav:"messageId" json:"messageId"`
	ConversationID string       `dynamodbav:"conversationId,omitempty" json:"conversationId,omitempty"`
	ConnectionID   string       `dynamodbav:"connectionId,omitempty" json:"connectionId,omitempty"`
	SenderID       string       `dynamodbav:"senderId" json:"senderId"`
	Text           string       `dynamodbav:"text,omitempty" json:"text,omitempty"`
	Attachments    []Attachment `dynamodbav:"attachments,omitempty" json:"attachments,omitempty"`
	ReadBy         []string     `dynamodbav:"readBy,omitempty" json:"readBy,omitempty"`
	CreatedAt      string       `dynamodbav:"createdAt" json:"createdAt"`
}

// WasReadBy reports whether userID has read the message.
func (m *Message) WasReadBy(userID string) bool {
	for _, u := range m.ReadBy {
		if u == userID {
			return true
		}
	}
	return false
}

// MessagesTable is the DynamoDB table name for messages.
const MessagesTable = "Messages"

// MessageConversationIndex is the sparse GSI over conversationId + createdAt.
// Messages awaiting a pending request carry no conversationId and stay out
// of the index.
const MessageConversationIndex = "conversationId-createdAt-index"
