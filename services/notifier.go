package services

// Event names published on realtime channels.
const (
	EventMessageReceived        = "message_received"
	EventMessageDeleted         = "message_deleted"
	EventMessageRequestSent     = "message_request_sent"
	EventMessageRequestAccepted = "message_request_accepted"
	EventMessageRequestRejected = "message_request_rejected"
	EventNotification           = "notification"
	EventConnectionApproved     = "connection_approved"
)

// Notifier fans out events to per-user and per-conversation channels.
// Delivery is at-most-once and best-effort: publishing to an absent
// subscriber is a no-op, and implementations never fail the caller.
// Callers must publish only after the triggering write has succeeded.
type Notifier interface {
	PublishToUser(userID, event string, payload interface{})
	PublishToConversation(conversationID, event string, payload interface{})
}

// NopNotifier discards every event. Used when the socket server is disabled.
type NopNotifier struct{}

func (NopNotifier) PublishToUser(string, string, interface{})         {}
func (NopNotifier) PublishToConversation(string, string, interface{}) {}
