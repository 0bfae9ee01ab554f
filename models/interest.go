package models

// Interest is the upstream trigger that feeds connection creation: an
// initiator expresses interest in a counterparty's opportunity. The core
// consumes its accept/reject outcome. The composite key (senderId,
// opportunityId) enforces one interest per sender per opportunity.
type Interest struct {
	SenderID      string `dynamodbav:"senderId" json:"senderId"`
	OpportunityID string `dynamodbav:"opportunityId" json:"opportunityId"`
	ReceiverID    string `dynamodbav:"receiverId" json:"receiverId"`
	PairKey       string `dynamodbav:"pairKey" json:"-"`
	Note          string `dynamodbav:"note,omitempty" json:"note,omitempty"`
	Status        string `dynamodbav:"status" json:"status"` // pending, accepted, rejected
	CreatedAt     string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt     string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// InterestsTable is the DynamoDB table name for interests.
const InterestsTable = "Interests"

// InterestPairIndex is the GSI over the unordered pair key, used by the
// block cascade to find pending interests in both directions.
const InterestPairIndex = "pairKey-index"
