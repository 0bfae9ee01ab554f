package services

import (
	"context"
	"fmt"

	"venturelink_server/apperrors"
	"venturelink_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageService orchestrates sending and deleting messages. It resolves
// the governing connection, defers first contact to the request gate and
// fans out realtime plus push notifications after the write.
type MessageService struct {
	Dynamo        DB
	Connections   *ConnectionService
	Conversations *ConversationService
	Requests      *MessageRequestService
	Storage       ObjectStorage
	Notifier      Notifier
	Push          PushNotifier
	Summaries     SummaryGenerator
	Log           *zap.Logger
}

// AttachmentUpload is raw attachment content awaiting storage upload.
type AttachmentUpload struct {
	Data     []byte `json:"-"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

// SendInput identifies where a message should go. ConnectionID,
// ConversationID and ReceiverID are resolution hints tried in that order.
type SendInput struct {
	SenderID       string
	ReceiverID     string
	ConnectionID   string
	ConversationID string
	Text           string
	Attachments    []AttachmentUpload
}

// SendResult is the outcome of a send: a delivered message in its
// conversation, or a message request created instead (first contact).
type SendResult struct {
	Message      *models.Message        `json:"message,omitempty"`
	Conversation *models.Conversation   `json:"conversation,omitempty"`
	Request      *models.MessageRequest `json:"request,omitempty"`
}

func messageKey(messageID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"messageId": &types.AttributeValueMemberS{Value: messageID},
	}
}

// SendMessage delivers a message over an active connection. Resolution
// order: explicit connection id, the conversation's binding, then an active
// connection for (sender, receiver). When no connection exists and a
// receiver is named, the send turns into a message request instead.
func (s *MessageService) SendMessage(ctx context.Context, in SendInput) (*SendResult, error) {
	if in.SenderID == "" {
		return nil, apperrors.Validation("senderId is required")
	}
	if in.Text == "" && len(in.Attachments) == 0 {
		return nil, apperrors.Validation("message needs text or at least one attachment")
	}

	var conn *models.Connection
	var conv *models.Conversation
	var attachments []models.Attachment
	uploaded := false
	var err error

	switch {
	case in.ConnectionID != "":
		conn, err = s.Connections.GetByID(ctx, in.ConnectionID)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			return nil, apperrors.NotFound("connection not found")
		}

	case in.ConversationID != "":
		conv, err = s.Conversations.GetByID(ctx, in.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv == nil {
			return nil, apperrors.NotFound("conversation not found")
		}
		if !conv.HasParticipant(in.SenderID) {
			return nil, apperrors.Authorization("not a participant of this conversation")
		}
		conn, err = s.connectionForConversation(ctx, conv, in.SenderID)
		if err != nil {
			return nil, err
		}

	case in.ReceiverID != "":
		conn, err = s.Connections.FindActiveBetween(ctx, in.SenderID, in.ReceiverID)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			// First contact: route through the request gate.
			attachments, err = s.uploadAttachments(ctx, in.Attachments)
			if err != nil {
				return nil, err
			}
			uploaded = true
			outcome, gerr := s.Requests.RequestOrAllow(ctx, in.SenderID, in.ReceiverID, in.Text, attachments)
			if gerr != nil {
				return nil, gerr
			}
			if !outcome.Allowed {
				return &SendResult{Request: outcome.Request, Message: outcome.Message}, nil
			}
			conn = outcome.Connection
		}

	default:
		return nil, apperrors.Validation("connectionId, conversationId or receiverId is required")
	}

	if conn == nil {
		return nil, apperrors.NotFound("no connection for this message")
	}
	if conn.Status == models.ConnectionStatusBlocked {
		return nil, apperrors.State(apperrors.FlagBlocked, "connection is blocked")
	}
	if conn.Status != models.ConnectionStatusActive {
		return nil, apperrors.State(apperrors.FlagInactive, "connection is not active")
	}
	if !conn.HasParticipant(in.SenderID) {
		return nil, apperrors.Authorization("sender is not part of this connection")
	}

	if conv == nil || conv.ConnectionID != conn.ConnectionID {
		conv, err = s.Conversations.EnsureForConnection(ctx, conn)
		if err != nil {
			return nil, err
		}
	}

	if !uploaded {
		attachments, err = s.uploadAttachments(ctx, in.Attachments)
		if err != nil {
			return nil, err
		}
	}

	message := models.Message{
		MessageID:      uuid.NewString(),
		ConversationID: conv.ConversationID,
		ConnectionID:   conn.ConnectionID,
		SenderID:       in.SenderID,
		Text:           in.Text,
		Attachments:    attachments,
		ReadBy:         []string{in.SenderID},
		CreatedAt:      models.NowTimestamp(),
	}
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	updated, err := s.Conversations.AppendMessage(ctx, conv, &message)
	if err != nil {
		return nil, err
	}

	s.Log.Info("message sent",
		zap.String("messageId", message.MessageID),
		zap.String("conversationId", conv.ConversationID))

	s.Notifier.PublishToConversation(conv.ConversationID, EventMessageReceived, message)
	for _, p := range updated.Participants {
		if p == in.SenderID {
			continue
		}
		s.Notifier.PublishToUser(p, EventMessageReceived, map[string]interface{}{
			"conversationId": conv.ConversationID,
			"message":        message,
		})
		if s.Push != nil {
			preview := s.Summaries.Summarize(ctx, in.Text)
			if err := s.Push.Notify(ctx, p, "New message", preview); err != nil {
				s.Log.Warn("push notification failed", zap.String("userId", p), zap.Error(err))
			}
		}
	}

	return &SendResult{Message: &message, Conversation: updated}, nil
}

// connectionForConversation loads the conversation's connection, falling
// back to the pair's active connection when the binding is stale.
func (s *MessageService) connectionForConversation(ctx context.Context, conv *models.Conversation, senderID string) (*models.Connection, error) {
	if conv.ConnectionID != "" {
		conn, err := s.Connections.GetByID(ctx, conv.ConnectionID)
		if err != nil {
			return nil, err
		}
		if conn != nil {
			return conn, nil
		}
	}

	other := ""
	for _, p := range conv.Participants {
		if p != senderID {
			other = p
			break
		}
	}
	if other == "" {
		return nil, apperrors.NotFound("no connection for this conversation")
	}

	conn, err := s.Connections.FindBetween(ctx, senderID, other)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, apperrors.NotFound("no connection for this conversation")
	}
	return conn, nil
}

func (s *MessageService) uploadAttachments(ctx context.Context, uploads []AttachmentUpload) ([]models.Attachment, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	attachments := make([]models.Attachment, 0, len(uploads))
	for _, u := range uploads {
		if len(u.Data) == 0 {
			return nil, apperrors.Validation("attachment content is empty")
		}
		url, err := s.Storage.Store(ctx, u.Data, u.Filename, u.MimeType, "attachments")
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, models.Attachment{
			Type:     u.Type,
			URL:      url,
			Filename: u.Filename,
			Size:     int64(len(u.Data)),
			MimeType: u.MimeType,
		})
	}
	return attachments, nil
}

// DeleteMessage removes a message. Only the sender may delete, and the
// deletion is announced on the conversation channel.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, actingUser string) error {
	item, err := s.Dynamo.GetItem(ctx, models.MessagesTable, messageKey(messageID))
	if err != nil {
		return fmt.Errorf("failed to fetch message: %w", err)
	}
	if item == nil {
		return apperrors.NotFound("message not found")
	}

	var message models.Message
	if err := attributevalue.UnmarshalMap(item, &message); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if message.SenderID != actingUser {
		return apperrors.Authorization("only the sender may delete a message")
	}

	if err := s.Dynamo.DeleteItem(ctx, models.MessagesTable, messageKey(messageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if message.ConversationID != "" {
		s.Notifier.PublishToConversation(message.ConversationID, EventMessageDeleted, map[string]interface{}{
			"messageId":      messageID,
			"conversationId": message.ConversationID,
		})
	}

	s.Log.Info("message deleted",
		zap.String("messageId", messageID),
		zap.String("userId", actingUser))
	return nil
}
