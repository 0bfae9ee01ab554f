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

// MessageRequestService gates first contact between unconnected users.
// Per (sender, receiver) pair the state machine is
// none -> pending -> {accepted, rejected}.
type MessageRequestService struct {
	Dynamo        DB
	Connections   *ConnectionService
	Conversations *ConversationService
	Blocks        *BlockService
	Profiles      *UserProfileService
	Notifier      Notifier
	Push          PushNotifier
	Summaries     SummaryGenerator
	Log           *zap.Logger
}

// RequestOutcome is the result of RequestOrAllow. Either Allowed is true and
// Connection carries the active connection to use, or a new pending request
// and its first message were created.
type RequestOutcome struct {
	Allowed    bool                   `json:"allowed"`
	Connection *models.Connection     `json:"connection,omitempty"`
	Request    *models.MessageRequest `json:"request,omitempty"`
	Message    *models.Message        `json:"message,omitempty"`
}

// RequestStatus is the direction-agnostic request state between two users.
type RequestStatus struct {
	HasRequest bool   `json:"hasRequest"`
	RequestID  string `json:"requestId,omitempty"`
	Status     string `json:"status,omitempty"`
	IsSender   bool   `json:"isSender"`
}

// AcceptResult carries the entities spawned by accepting a request.
type AcceptResult struct {
	Request      *models.MessageRequest `json:"request"`
	Connection   *models.Connection     `json:"connection"`
	Conversation *models.Conversation   `json:"conversation"`
}

func requestKey(requestID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"requestId": &types.AttributeValueMemberS{Value: requestID},
	}
}

func (s *MessageRequestService) GetByID(ctx context.Context, requestID string) (*models.MessageRequest, error) {
	item, err := s.Dynamo.GetItem(ctx, models.MessageRequestsTable, requestKey(requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	var req models.MessageRequest
	if err := attributevalue.UnmarshalMap(item, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return &req, nil
}

// findBetween returns all requests between the pair, either direction.
func (s *MessageRequestService) findBetween(ctx context.Context, u1, u2 string) ([]models.MessageRequest, error) {
	keyCondition := "pairKey = :pk"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: models.UnorderedPairKey(u1, u2)},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessageRequestsTable, models.RequestPairIndex, keyCondition, values, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}

	var requests []models.MessageRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &requests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requests: %w", err)
	}
	return requests, nil
}

// RequestOrAllow is the first-contact gate. With an active connection in
// place it short-circuits to "allowed"; a mutual follow creates the
// connection on the spot; with a pending or rejected request
// from the sender it fails with the matching state flag; otherwise it
// persists the first message (unbound to any conversation) plus a pending
// request and notifies the receiver.
func (s *MessageRequestService) RequestOrAllow(ctx context.Context, senderID, receiverID, text string, attachments []models.Attachment) (*RequestOutcome, error) {
	if senderID == "" || receiverID == "" {
		return nil, apperrors.Validation("senderId and receiverId are required")
	}
	if senderID == receiverID {
		return nil, apperrors.Validation("cannot message yourself")
	}

	blocked, err := s.Blocks.IsBlocked(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.State(apperrors.FlagBlocked, "messaging is blocked between these users")
	}

	conn, err := s.Connections.FindBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		switch conn.Status {
		case models.ConnectionStatusActive:
			return &RequestOutcome{Allowed: true, Connection: conn}, nil
		case models.ConnectionStatusBlocked:
			return nil, apperrors.State(apperrors.FlagBlocked, "connection is blocked")
		default:
			return nil, apperrors.State(apperrors.FlagInactive, "connection is not active")
		}
	}

	// Mutual follow skips the request flow entirely: the connection is
	// created on the spot and the send proceeds.
	mutual, err := s.Profiles.IsMutualFollow(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if mutual {
		created, cerr := s.Connections.Create(ctx, senderID, receiverID, "")
		if cerr != nil {
			return nil, cerr
		}
		return &RequestOutcome{Allowed: true, Connection: created}, nil
	}

	existing, err := s.findBetween(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		req := &existing[i]
		if req.SenderID != senderID {
			continue
		}
		switch req.Status {
		case models.RequestStatusPending:
			return nil, apperrors.State(apperrors.FlagRequestPending, "a message request is already pending")
		case models.RequestStatusRejected:
			return nil, apperrors.State(apperrors.FlagRequestRejected, "your message request was rejected")
		}
	}

	now := models.NowTimestamp()
	message := models.Message{
		MessageID:   uuid.NewString(),
		SenderID:    senderID,
		Text:        text,
		Attachments: attachments,
		ReadBy:      []string{senderID},
		CreatedAt:   now,
	}
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return nil, fmt.Errorf("failed to persist first message: %w", err)
	}

	request := models.MessageRequest{
		RequestID:      uuid.NewString(),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		PairKey:        models.UnorderedPairKey(senderID, receiverID),
		Origin:         models.RequestOriginDirect,
		FirstMessageID: message.MessageID,
		Status:         models.RequestStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Dynamo.PutItem(ctx, models.MessageRequestsTable, request); err != nil {
		return nil, fmt.Errorf("failed to persist message request: %w", err)
	}

	s.Log.Info("message request created",
		zap.String("requestId", request.RequestID),
		zap.String("sender", senderID), zap.String("receiver", receiverID))

	s.Notifier.PublishToUser(receiverID, EventMessageRequestSent, map[string]interface{}{
		"request": request,
		"message": message,
	})
	if s.Push != nil {
		preview := s.Summaries.Summarize(ctx, text)
		if err := s.Push.Notify(ctx, receiverID, "New message request", preview); err != nil {
			s.Log.Warn("push notification failed", zap.String("userId", receiverID), zap.Error(err))
		}
	}

	return &RequestOutcome{Request: &request, Message: &message}, nil
}

// Accept flips a pending request to accepted and spawns the connection and
// conversation, seeding the conversation with the first message and
// back-filling that message's ids.
func (s *MessageRequestService) Accept(ctx context.Context, requestID, actingUser string) (*AcceptResult, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.NotFound("message request not found")
	}
	if req.ReceiverID != actingUser {
		return nil, apperrors.Authorization("only the receiver may accept a message request")
	}
	switch req.Status {
	case models.RequestStatusAccepted:
		return nil, apperrors.Conflict("message request already accepted")
	case models.RequestStatusRejected:
		return nil, apperrors.Conflict("message request already rejected")
	}

	conn, err := s.Connections.Create(ctx, req.SenderID, req.ReceiverID, req.RequestID)
	if err != nil {
		return nil, err
	}

	var seed *models.LastMessage
	firstItem, err := s.Dynamo.GetItem(ctx, models.MessagesTable, map[string]types.AttributeValue{
		"messageId": &types.AttributeValueMemberS{Value: req.FirstMessageID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first message: %w", err)
	}
	var first models.Message
	if firstItem != nil {
		if err := attributevalue.UnmarshalMap(firstItem, &first); err != nil {
			return nil, fmt.Errorf("failed to unmarshal first message: %w", err)
		}
		seed = &models.LastMessage{
			Text:      first.Text,
			SenderID:  first.SenderID,
			CreatedAt: first.CreatedAt,
		}
	}

	conv, err := s.Conversations.CreateForConnection(ctx, conn, seed, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	if firstItem != nil {
		updateExpression := "SET conversationId = :cid, connectionId = :coid"
		values := map[string]types.AttributeValue{
			":cid":  &types.AttributeValueMemberS{Value: conv.ConversationID},
			":coid": &types.AttributeValueMemberS{Value: conn.ConnectionID},
		}
		key := map[string]types.AttributeValue{
			"messageId": &types.AttributeValueMemberS{Value: req.FirstMessageID},
		}
		if _, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, key, values, nil); err != nil {
			return nil, fmt.Errorf("failed to back-fill first message: %w", err)
		}
	}

	updated, err := s.setStatus(ctx, req.RequestID, models.RequestStatusAccepted)
	if err != nil {
		return nil, err
	}

	s.Log.Info("message request accepted",
		zap.String("requestId", req.RequestID),
		zap.String("connectionId", conn.ConnectionID),
		zap.String("conversationId", conv.ConversationID))

	s.Notifier.PublishToUser(req.SenderID, EventMessageRequestAccepted, map[string]interface{}{
		"requestId":      req.RequestID,
		"connectionId":   conn.ConnectionID,
		"conversationId": conv.ConversationID,
	})
	if s.Push != nil {
		if err := s.Push.Notify(ctx, req.SenderID, "Request accepted", "Your message request was accepted"); err != nil {
			s.Log.Warn("push notification failed", zap.String("userId", req.SenderID), zap.Error(err))
		}
	}

	return &AcceptResult{Request: updated, Connection: conn, Conversation: conv}, nil
}

// Reject flips a pending request to rejected. The first message is kept.
func (s *MessageRequestService) Reject(ctx context.Context, requestID, actingUser string) (*models.MessageRequest, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.NotFound("message request not found")
	}
	if req.ReceiverID != actingUser {
		return nil, apperrors.Authorization("only the receiver may reject a message request")
	}
	if req.Status != models.RequestStatusPending {
		return nil, apperrors.Conflict("message request is not pending")
	}

	updated, err := s.setStatus(ctx, req.RequestID, models.RequestStatusRejected)
	if err != nil {
		return nil, err
	}

	s.Notifier.PublishToUser(req.SenderID, EventMessageRequestRejected, map[string]interface{}{
		"requestId": req.RequestID,
	})

	return updated, nil
}

func (s *MessageRequestService) setStatus(ctx context.Context, requestID, status string) (*models.MessageRequest, error) {
	updateExpression := "SET #status = :status, updatedAt = :updatedAt"
	values := map[string]types.AttributeValue{
		":status":    &types.AttributeValueMemberS{Value: status},
		":updatedAt": &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}
	names := map[string]string{"#status": "status"}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.MessageRequestsTable, updateExpression, requestKey(requestID), values, names)
	if err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	var updated models.MessageRequest
	if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated request: %w", err)
	}
	return &updated, nil
}

// StatusBetween reports the request state between two users from userID's
// point of view. A pending request wins over terminal ones.
func (s *MessageRequestService) StatusBetween(ctx context.Context, userID, otherID string) (*RequestStatus, error) {
	requests, err := s.findBetween(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return &RequestStatus{}, nil
	}

	best := &requests[0]
	for i := range requests {
		req := &requests[i]
		if req.Status == models.RequestStatusPending && best.Status != models.RequestStatusPending {
			best = req
			continue
		}
		if req.Status == best.Status && req.CreatedAt > best.CreatedAt {
			best = req
		}
	}

	return &RequestStatus{
		HasRequest: true,
		RequestID:  best.RequestID,
		Status:     best.Status,
		IsSender:   best.SenderID == userID,
	}, nil
}

// PendingForReceiver lists pending requests addressed to userID.
func (s *MessageRequestService) PendingForReceiver(ctx context.Context, userID string) ([]models.MessageRequest, error) {
	keyCondition := "receiverId = :u"
	values := map[string]types.AttributeValue{
		":u": &types.AttributeValueMemberS{Value: userID},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessageRequestsTable, models.RequestReceiverIndex, keyCondition, values, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests for receiver: %w", err)
	}

	var all []models.MessageRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requests: %w", err)
	}

	pending := make([]models.MessageRequest, 0, len(all))
	for _, req := range all {
		if req.Status == models.RequestStatusPending {
			pending = append(pending, req)
		}
	}
	return pending, nil
}

// DeletePendingBetween removes pending requests between the pair in both
// directions. Used by the block cascade.
func (s *MessageRequestService) DeletePendingBetween(ctx context.Context, u1, u2 string) error {
	requests, err := s.findBetween(ctx, u1, u2)
	if err != nil {
		return err
	}
	for _, req := range requests {
		if req.Status != models.RequestStatusPending {
			continue
		}
		if err := s.Dynamo.DeleteItem(ctx, models.MessageRequestsTable, requestKey(req.RequestID)); err != nil {
			return fmt.Errorf("failed to delete pending request %s: %w", req.RequestID, err)
		}
	}
	return nil
}
