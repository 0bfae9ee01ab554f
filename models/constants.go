package models

// User roles
const (
	RoleInitiator    = "initiator"
	RoleCounterparty = "counterparty"
)

// Connection statuses
const (
	ConnectionStatusActive  = "active"
	ConnectionStatusBlocked = "blocked"
)

// MessageRequest statuses
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// MessageRequest origins
const (
	RequestOriginDirect   = "direct"
	RequestOriginInterest = "interest"
)

// Interest statuses
const (
	InterestStatusPending  = "pending"
	InterestStatusAccepted = "accepted"
	InterestStatusRejected = "rejected"
)
