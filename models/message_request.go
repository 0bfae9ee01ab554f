package models

// MessageRequest is a gated first-contact attempt pending receiver consent.
// The first message is persisted immediately (without conversation/connection
// ids) and referenced by firstMessageId.
type MessageRequest struct {
	RequestID      string `dynamodbav:"requestId" json:"requestId"`
	SenderID       string `dynamodbav:"senderId" json:"senderId"`
	ReceiverID     string `dynamodbav:"receiverId" json:"receiverId"`
	PairKey        string `dynamodbav:"pairKey" json:"-"`
	Origin         string `dynamodbav:"origin" json:"origin"`
	FirstMessageID string `dynamodbav:"firstMessageId" json:"firstMessageId"`
	Status         string `dynamodbav:"status" json:"status"` // pending, accepted, rejected
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt      string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// MessageRequestsTable is the DynamoDB table name for message requests.
const MessageRequestsTable = "MessageRequests"

// MessageRequest GSIs.
const (
	RequestPairIndex     = "pairKey-index"
	RequestReceiverIndex = "receiverId-index"
)
