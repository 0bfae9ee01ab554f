package models

// Connection is the accepted, ongoing relationship between two users that
// permits messaging. partyA/partyB are role-pinned: partyA is the initiator
// side. The pair key doubles as the partition key, which is the store-level
// uniqueness constraint guaranteeing at most one connection per pair.
type Connection struct {
	PairKey         string `dynamodbav:"pairKey" json:"-"`
	ConnectionID    string `dynamodbav:"connectionId" json:"connectionId"`
	PartyA          string `dynamodbav:"partyA" json:"partyA"`
	PartyB          string `dynamodbav:"partyB" json:"partyB"`
	Status          string `dynamodbav:"status" json:"status"` // active, blocked
	OriginRequestID string `dynamodbav:"originRequestId,omitempty" json:"originRequestId,omitempty"`
	ConversationID  string `dynamodbav:"conversationId,omitempty" json:"conversationId,omitempty"`
	CreatedAt       string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt       string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Connection) HasParticipant(userID string) bool {
	return c.PartyA == userID || c.PartyB == userID
}

// OtherParty returns the counterpart of userID, or "" if userID is not a party.
func (c *Connection) OtherParty(userID string) string {
	switch userID {
	case c.PartyA:
		return c.PartyB
	case c.PartyB:
		return c.PartyA
	}
	return ""
}

// ConnectionsTable is the DynamoDB table name for connections.
const ConnectionsTable = "Connections"

// ConnectionIDIndex is the GSI used to load a connection by its id.
const ConnectionIDIndex = "connectionId-index"
