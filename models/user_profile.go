package models

// UserProfile is the role and follow-graph oracle consumed by the core.
// Followers/following are maintained elsewhere; the core only reads them
// (and mutates them through the profile service's follow endpoints).
type UserProfile struct {
	UserID     string   `dynamodbav:"userId" json:"userId"`
	FullName   string   `dynamodbav:"fullName,omitempty" json:"fullName,omitempty"`
	Role       string   `dynamodbav:"role" json:"role"` // initiator, counterparty
	Followers  []string `dynamodbav:"followers,omitempty" json:"followers,omitempty"`
	Following  []string `dynamodbav:"following,omitempty" json:"following,omitempty"`
	PushTokens []string `dynamodbav:"pushTokens,omitempty" json:"pushTokens,omitempty"`
	CreatedAt  string   `dynamodbav:"createdAt" json:"createdAt"`
}

// IsFollowing reports whether the profile owner follows userID.
func (p *UserProfile) IsFollowing(userID string) bool {
	for _, u := range p.Following {
		if u == userID {
			return true
		}
	}
	return false
}

// UserProfilesTable is the DynamoDB table name for user profiles.
const UserProfilesTable = "UserProfiles"
