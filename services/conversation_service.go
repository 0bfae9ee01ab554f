package services

import (
	"context"
	"fmt"
	"sort"

	"venturelink_server/apperrors"
	"venturelink_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationService resolves, creates and maintains the 1:1 conversation
// bound to a connection, including per-user soft delete and history
// clearing. Partially-linked state left by a prior failure is repaired on
// read rather than guarded by transactions.
type ConversationService struct {
	Dynamo      DB
	Connections *ConnectionService
	Profiles    *UserProfileService
	Requests    *MessageRequestService
	Log         *zap.Logger
}

// ConversationResolution is the result of ResolveOrCreate. A provisional
// resolution is never persisted: it marks a one-way follow where only a
// message request may proceed.
type ConversationResolution struct {
	Conversation   *models.Conversation `json:"conversation,omitempty"`
	IsProvisional  bool                 `json:"isProvisional"`
	Participants   []string             `json:"participants,omitempty"`
	PendingRequest *RequestStatus       `json:"pendingRequest,omitempty"`
}

// ConversationList groups a user's visible conversations and the pending
// requests addressed to them.
type ConversationList struct {
	Primary  []models.Conversation   `json:"primary"`
	Requests []models.MessageRequest `json:"requests"`
}

func conversationKey(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
}

func (s *ConversationService) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ConversationsTable, conversationKey(conversationID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	var conv models.Conversation
	if err := attributevalue.UnmarshalMap(item, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationService) getByConnectionID(ctx context.Context, connectionID string) (*models.Conversation, error) {
	keyCondition := "connectionId = :id"
	values := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: connectionID},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConversationsTable, models.ConversationConnectionIndex, keyCondition, values, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation by connection: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var conv models.Conversation
	if err := attributevalue.UnmarshalMap(items[0], &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// findByParticipants looks a conversation up by its participant pair alone,
// regardless of connection binding. This is the orphan-detection read.
func (s *ConversationService) findByParticipants(ctx context.Context, u1, u2 string) (*models.Conversation, error) {
	keyCondition := "participantsKey = :pk"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: models.UnorderedPairKey(u1, u2)},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConversationsTable, models.ConversationParticipantsIndex, keyCondition, values, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation by participants: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var conv models.Conversation
	if err := attributevalue.UnmarshalMap(items[0], &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// CreateForConnection creates the conversation bound to conn, optionally
// seeded with a last message counted unread for unreadFor. A racing creator
// loses the connection-side claim, deletes its own row and adopts the
// winner, keeping resolution idempotent.
func (s *ConversationService) CreateForConnection(ctx context.Context, conn *models.Connection, seed *models.LastMessage, unreadFor string) (*models.Conversation, error) {
	now := models.NowTimestamp()
	conv := models.Conversation{
		ConversationID:  uuid.NewString(),
		ConnectionID:    conn.ConnectionID,
		ParticipantsKey: models.UnorderedPairKey(conn.PartyA, conn.PartyB),
		Participants:    []string{conn.PartyA, conn.PartyB},
		LastMessage:     seed,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if seed != nil && unreadFor != "" {
		conv.UnreadCounts = map[string]int{unreadFor: 1}
	}

	if err := s.Dynamo.PutItem(ctx, models.ConversationsTable, conv); err != nil {
		return nil, fmt.Errorf("failed to persist conversation: %w", err)
	}

	winnerID, claimed, err := s.Connections.ClaimConversation(ctx, conn, conv.ConversationID)
	if err != nil {
		return nil, err
	}
	if claimed {
		s.Log.Info("conversation created",
			zap.String("conversationId", conv.ConversationID),
			zap.String("connectionId", conn.ConnectionID))
		return &conv, nil
	}

	// Lost the claim: another writer bound a conversation first. Drop the
	// duplicate row and adopt the winner.
	if err := s.Dynamo.DeleteItem(ctx, models.ConversationsTable, conversationKey(conv.ConversationID)); err != nil {
		s.Log.Warn("failed to delete losing conversation row", zap.Error(err))
	}
	winner, err := s.GetByID(ctx, winnerID)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, fmt.Errorf("conversation claim winner %s not found", winnerID)
	}
	return winner, nil
}

// EnsureForConnection returns the conversation bound to conn, repairing or
// creating it as needed.
func (s *ConversationService) EnsureForConnection(ctx context.Context, conn *models.Connection) (*models.Conversation, error) {
	if conn.ConversationID != "" {
		conv, err := s.GetByID(ctx, conn.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			return conv, nil
		}
		// Dangling pointer: fall through to the repair reads.
	}

	conv, err := s.getByConnectionID(ctx, conn.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	orphan, err := s.findByParticipants(ctx, conn.PartyA, conn.PartyB)
	if err != nil {
		return nil, err
	}
	if orphan != nil {
		return s.repair(ctx, orphan, conn)
	}

	return s.CreateForConnection(ctx, conn, nil, "")
}

// repair attaches an orphaned conversation to conn and persists the new
// binding on both rows.
func (s *ConversationService) repair(ctx context.Context, conv *models.Conversation, conn *models.Connection) (*models.Conversation, error) {
	s.Log.Info("repairing orphaned conversation",
		zap.String("conversationId", conv.ConversationID),
		zap.String("connectionId", conn.ConnectionID))

	updateExpression := "SET connectionId = :cid, updatedAt = :u"
	values := map[string]types.AttributeValue{
		":cid": &types.AttributeValueMemberS{Value: conn.ConnectionID},
		":u":   &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}
	attrs, err := s.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, conversationKey(conv.ConversationID), values, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to repair conversation: %w", err)
	}

	if _, _, err := s.Connections.ClaimConversation(ctx, conn, conv.ConversationID); err != nil {
		s.Log.Warn("failed to back-link repaired conversation", zap.Error(err))
	}

	var repaired models.Conversation
	if err := attributevalue.UnmarshalMap(attrs, &repaired); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repaired conversation: %w", err)
	}
	return &repaired, nil
}

// ResolveOrCreate finds or creates the conversation between the current
// user and another user. Resolution tiers: active connection, orphan
// repair, then connection-required creation (mutual follow), a provisional
// marker (one-way follow), or refusal.
func (s *ConversationService) ResolveOrCreate(ctx context.Context, currentUser, otherUser string) (*ConversationResolution, error) {
	if currentUser == otherUser {
		return nil, apperrors.Validation("cannot open a conversation with yourself")
	}

	conn, err := s.Connections.FindBetween(ctx, currentUser, otherUser)
	if err != nil {
		return nil, err
	}

	if conn != nil && conn.Status == models.ConnectionStatusActive {
		conv, err := s.EnsureForConnection(ctx, conn)
		if err != nil {
			return nil, err
		}
		return &ConversationResolution{Conversation: conv}, nil
	}

	// Orphan search: a conversation for this pair whose binding is
	// missing or points nowhere.
	orphan, err := s.findByParticipants(ctx, currentUser, otherUser)
	if err != nil {
		return nil, err
	}
	if orphan != nil {
		isOrphan := conn == nil || orphan.ConnectionID != conn.ConnectionID
		if isOrphan {
			target := conn
			if target == nil {
				target, err = s.Connections.Create(ctx, currentUser, otherUser, "")
				if err != nil {
					return nil, err
				}
			}
			repaired, err := s.repair(ctx, orphan, target)
			if err != nil {
				return nil, err
			}
			return &ConversationResolution{Conversation: repaired}, nil
		}
	}

	if conn != nil {
		// The pair's connection exists but is not active; resolution
		// cannot proceed past it.
		if conn.Status == models.ConnectionStatusBlocked {
			return nil, apperrors.State(apperrors.FlagBlocked, "connection is blocked")
		}
		return nil, apperrors.State(apperrors.FlagInactive, "connection is not active")
	}

	mutual, err := s.Profiles.IsMutualFollow(ctx, currentUser, otherUser)
	if err != nil {
		return nil, err
	}
	if mutual {
		created, err := s.Connections.Create(ctx, currentUser, otherUser, "")
		if err != nil {
			return nil, err
		}
		conv, err := s.EnsureForConnection(ctx, created)
		if err != nil {
			return nil, err
		}
		return &ConversationResolution{Conversation: conv}, nil
	}

	follows, err := s.Profiles.IsFollowing(ctx, currentUser, otherUser)
	if err != nil {
		return nil, err
	}
	if follows {
		pending, err := s.Requests.StatusBetween(ctx, currentUser, otherUser)
		if err != nil {
			return nil, err
		}
		return &ConversationResolution{
			IsProvisional:  true,
			Participants:   []string{currentUser, otherUser},
			PendingRequest: pending,
		}, nil
	}

	return nil, apperrors.Authorization("must follow to start a conversation")
}

// GetMessages returns the requester-visible messages of a conversation in
// chronological order, honoring the requester's clear-history cutoff.
func (s *ConversationService) GetMessages(ctx context.Context, conversationID, requesterID string, limit int32) ([]models.Message, error) {
	conv, err := s.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.NotFound("conversation not found")
	}
	if !conv.HasParticipant(requesterID) {
		return nil, apperrors.Authorization("not a participant of this conversation")
	}
	if limit <= 0 {
		limit = 50
	}

	keyCondition := "conversationId = :cid"
	values := map[string]types.AttributeValue{
		":cid": &types.AttributeValueMemberS{Value: conversationID},
	}
	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, models.MessageConversationIndex, keyCondition, values, nil, limit, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}

	if cutoff, ok := conv.ClearedAtFor(requesterID); ok {
		cutoffTime, perr := models.ParseTimestamp(cutoff)
		if perr != nil {
			return nil, fmt.Errorf("invalid clear-history timestamp: %w", perr)
		}
		visible := messages[:0]
		for _, m := range messages {
			created, perr := models.ParseTimestamp(m.CreatedAt)
			if perr != nil {
				continue
			}
			if created.After(cutoffTime) {
				visible = append(visible, m)
			}
		}
		messages = visible
	}

	// Latest-first from the store; reverse so the newest message lands at
	// the bottom for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// AppendMessage folds a persisted message into the conversation: updates
// the last-message preview, increments every other participant's unread
// counter and clears soft deletes so the conversation reappears for anyone
// who had cleared it.
func (s *ConversationService) AppendMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) (*models.Conversation, error) {
	unread := make(map[string]int, len(conv.Participants))
	for k, v := range conv.UnreadCounts {
		unread[k] = v
	}
	for _, p := range conv.Participants {
		if p != msg.SenderID {
			unread[p]++
		}
	}

	lastAV, err := attributevalue.Marshal(&models.LastMessage{
		Text:      msg.Text,
		SenderID:  msg.SenderID,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal last message: %w", err)
	}
	unreadAV, err := attributevalue.Marshal(unread)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal unread counts: %w", err)
	}

	updateExpression := "SET lastMessage = :lm, unreadCounts = :uc, updatedAt = :u REMOVE deletedBy"
	values := map[string]types.AttributeValue{
		":lm": lastAV,
		":uc": unreadAV,
		":u":  &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, conversationKey(conv.ConversationID), values, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to append message to conversation: %w", err)
	}

	var updated models.Conversation
	if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated conversation: %w", err)
	}
	return &updated, nil
}

// ClearHistory hides all prior messages for the requester only. Underlying
// message rows are never deleted.
func (s *ConversationService) ClearHistory(ctx context.Context, conversationID, requesterID string) error {
	conv, err := s.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return apperrors.NotFound("conversation not found")
	}
	if !conv.HasParticipant(requesterID) {
		return apperrors.Authorization("not a participant of this conversation")
	}

	deletedBy := conv.DeletedBy
	if !conv.IsDeletedBy(requesterID) {
		deletedBy = append(deletedBy, requesterID)
	}
	cleared := make(map[string]string, len(conv.ClearedHistoryAt)+1)
	for k, v := range conv.ClearedHistoryAt {
		cleared[k] = v
	}
	cleared[requesterID] = models.NowTimestamp()

	deletedAV, err := attributevalue.Marshal(deletedBy)
	if err != nil {
		return fmt.Errorf("failed to marshal deletedBy: %w", err)
	}
	clearedAV, err := attributevalue.Marshal(cleared)
	if err != nil {
		return fmt.Errorf("failed to marshal clearedHistoryAt: %w", err)
	}

	updateExpression := "SET deletedBy = :db, clearedHistoryAt = :cl, updatedAt = :u"
	values := map[string]types.AttributeValue{
		":db": deletedAV,
		":cl": clearedAV,
		":u":  &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}
	if _, err := s.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, conversationKey(conversationID), values, nil); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	s.Log.Info("history cleared",
		zap.String("conversationId", conversationID),
		zap.String("userId", requesterID))
	return nil
}

// MarkRead zeroes the caller's unread counter and stamps them onto the
// readBy set of messages they had not read.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, userID string) error {
	conv, err := s.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return apperrors.NotFound("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return apperrors.Authorization("not a participant of this conversation")
	}

	unread := make(map[string]int, len(conv.UnreadCounts))
	for k, v := range conv.UnreadCounts {
		unread[k] = v
	}
	unread[userID] = 0
	unreadAV, err := attributevalue.Marshal(unread)
	if err != nil {
		return fmt.Errorf("failed to marshal unread counts: %w", err)
	}

	updateExpression := "SET unreadCounts = :uc, updatedAt = :u"
	values := map[string]types.AttributeValue{
		":uc": unreadAV,
		":u":  &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}
	if _, err := s.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, conversationKey(conversationID), values, nil); err != nil {
		return fmt.Errorf("failed to reset unread count: %w", err)
	}

	keyCondition := "conversationId = :cid"
	queryValues := map[string]types.AttributeValue{
		":cid": &types.AttributeValueMemberS{Value: conversationID},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessagesTable, models.MessageConversationIndex, keyCondition, queryValues, nil, 100)
	if err != nil {
		return fmt.Errorf("failed to query messages for mark-read: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return fmt.Errorf("failed to unmarshal messages: %w", err)
	}

	for _, m := range messages {
		if m.SenderID == userID || m.WasReadBy(userID) {
			continue
		}
		readBy := append(m.ReadBy, userID)
		readAV, merr := attributevalue.Marshal(readBy)
		if merr != nil {
			continue
		}
		key := map[string]types.AttributeValue{
			"messageId": &types.AttributeValueMemberS{Value: m.MessageID},
		}
		if _, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, "SET readBy = :rb", key, map[string]types.AttributeValue{":rb": readAV}, nil); err != nil {
			s.Log.Warn("failed to mark message read", zap.String("messageId", m.MessageID), zap.Error(err))
		}
	}
	return nil
}

// ListFor returns the user's conversations (excluding ones they soft
// deleted) plus pending message requests addressed to them, newest first.
func (s *ConversationService) ListFor(ctx context.Context, userID string) (*ConversationList, error) {
	items, err := s.Dynamo.ScanItems(ctx, models.ConversationsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversations: %w", err)
	}

	var all []models.Conversation
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversations: %w", err)
	}

	primary := make([]models.Conversation, 0, len(all))
	for _, conv := range all {
		if conv.HasParticipant(userID) && !conv.IsDeletedBy(userID) {
			primary = append(primary, conv)
		}
	}
	sort.Slice(primary, func(i, j int) bool {
		return primary[i].UpdatedAt > primary[j].UpdatedAt
	})

	requests, err := s.Requests.PendingForReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ConversationList{Primary: primary, Requests: requests}, nil
}
