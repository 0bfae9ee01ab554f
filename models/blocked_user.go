package models

// BlockedUser records that blockerId blocked blockedId. Blocking is
// asymmetric; the composite primary key enforces at most one record per
// ordered pair.
type BlockedUser struct {
	BlockerID string `dynamodbav:"blockerId" json:"blockerId"`
	BlockedID string `dynamodbav:"blockedId" json:"blockedId"`
	Reason    string `dynamodbav:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// BlockedUsersTable is the DynamoDB table name for block records.
const BlockedUsersTable = "BlockedUsers"

// BlockedIDIndex is the GSI used for reverse (who blocked me) lookups.
const BlockedIDIndex = "blockedId-index"

// Block directions reported by BlockStatus.
const (
	BlockedByNone = "none"
	BlockedByMe   = "me"
	BlockedByThem = "them"
	BlockedByBoth = "both"
)

// BlockStatus is the direction-agnostic block state between two users.
type BlockStatus struct {
	IsBlocked bool   `json:"isBlocked"`
	BlockedBy string `json:"blockedBy"` // none, me, them, both
}
