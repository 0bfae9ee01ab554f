package models

// LastMessage is the denormalized preview stored on a conversation.
type LastMessage struct {
	Text      string `dynamodbav:"text" json:"text"`
	SenderID  string `dynamodbav:"senderId" json:"senderId"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// Conversation is the 1:1 message thread bound to a connection.
// unreadCounts, deletedBy and clearedHistoryAt are per-user maps keyed by
// user id; they never affect the other participant.
type Conversation struct {
	ConversationID   string            `dynamodbav:"conversationId" json:"conversationId"`
	ConnectionID     string            `dynamodbav:"connectionId,omitempty" json:"connectionId,omitempty"`
	ParticipantsKey  string            `dynamodbav:"participantsKey" json:"-"`
	Participants     []string          `dynamodbav:"participants" json:"participants"`
	LastMessage      *LastMessage      `dynamodbav:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	UnreadCounts     map[string]int    `dynamodbav:"unreadCounts,omitempty" json:"unreadCounts,omitempty"`
	DeletedBy        []string          `dynamodbav:"deletedBy,omitempty" json:"deletedBy,omitempty"`
	ClearedHistoryAt map[string]string `dynamodbav:"clearedHistoryAt,omitempty" json:"clearedHistoryAt,omitempty"`
	CreatedAt        string            `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt        string            `dynamodbav:"updatedAt" json:"updatedAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) IsDeletedBy(userID string) bool {
	for _, u := range c.DeletedBy {
		if u == userID {
			return true
		}
	}
	return false
}

// ClearedAtFor returns the user's clear-history cutoff, if one is set.
func (c *Conversation) ClearedAtFor(userID string) (string, bool) {
	ts, ok := c.ClearedHistoryAt[userID]
	return ts, ok
}

// ConversationsTable is the DynamoDB table name for conversations.
const ConversationsTable = "Conversations"

// Conversation GSIs.
const (
	ConversationConnectionIndex   = "connectionId-index"
	ConversationParticipantsIndex = "participantsKey-index"
)
