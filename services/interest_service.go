package services

import (
	"context"
	"fmt"

	"venturelink_server/apperrors"
	"venturelink_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// InterestService handles opportunity interests, the second doorway into a
// connection besides direct message requests. Accepting an interest creates
// the connection and its conversation in one step.
type InterestService struct {
	Dynamo        DB
	Connections   *ConnectionService
	Conversations *ConversationService
	Blocks        *BlockService
	Notifier      Notifier
	Push          PushNotifier
	Log           *zap.Logger
}

func interestKey(senderID, opportunityID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"senderId":      &types.AttributeValueMemberS{Value: senderID},
		"opportunityId": &types.AttributeValueMemberS{Value: opportunityID},
	}
}

func (s *InterestService) Get(ctx context.Context, senderID, opportunityID string) (*models.Interest, error) {
	item, err := s.Dynamo.GetItem(ctx, models.InterestsTable, interestKey(senderID, opportunityID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interest: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	var interest models.Interest
	if err := attributevalue.UnmarshalMap(item, &interest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interest: %w", err)
	}
	return &interest, nil
}

// Create records senderID's interest in an opportunity owned by receiverID.
// One interest per sender per opportunity.
func (s *InterestService) Create(ctx context.Context, senderID, receiverID, opportunityID, note string) (*models.Interest, error) {
	if senderID == "" || receiverID == "" || opportunityID == "" {
		return nil, apperrors.Validation("senderId, receiverId and opportunityId are required")
	}
	if senderID == receiverID {
		return nil, apperrors.Validation("cannot express interest in your own opportunity")
	}

	blocked, err := s.Blocks.IsBlocked(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperrors.State(apperrors.FlagBlocked, "a block exists between these users")
	}

	now := models.NowTimestamp()
	interest := models.Interest{
		SenderID:      senderID,
		OpportunityID: opportunityID,
		ReceiverID:    receiverID,
		PairKey:       models.UnorderedPairKey(senderID, receiverID),
		Note:          note,
		Status:        models.InterestStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.Dynamo.PutItemConditional(ctx, models.InterestsTable, interest, "attribute_not_exists(senderId)")
	if err == ErrConditionalCheckFailed {
		return nil, apperrors.Conflict("interest already exists for this opportunity")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create interest: %w", err)
	}

	s.Notifier.PublishToUser(receiverID, EventNotification, map[string]interface{}{
		"kind":          "interest_received",
		"senderId":      senderID,
		"opportunityId": opportunityID,
	})
	s.Log.Info("interest created",
		zap.String("sender", senderID),
		zap.String("opportunityId", opportunityID))
	return &interest, nil
}

// Accept approves a pending interest. It creates the connection and its
// conversation, then notifies both parties.
func (s *InterestService) Accept(ctx context.Context, senderID, opportunityID, actingUser string) (*models.Connection, error) {
	interest, err := s.Get(ctx, senderID, opportunityID)
	if err != nil {
		return nil, err
	}
	if interest == nil {
		return nil, apperrors.NotFound("interest not found")
	}
	if interest.ReceiverID != actingUser {
		return nil, apperrors.Authorization("only the opportunity owner may accept")
	}
	if interest.Status != models.InterestStatusPending {
		return nil, apperrors.Conflict("interest is not pending")
	}

	conn, err := s.Connections.Create(ctx, interest.SenderID, interest.ReceiverID, "")
	if err != nil {
		return nil, err
	}
	if _, err := s.Conversations.EnsureForConnection(ctx, conn); err != nil {
		return nil, err
	}

	if err := s.setStatus(ctx, senderID, opportunityID, models.InterestStatusAccepted); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"connectionId":  conn.ConnectionID,
		"opportunityId": opportunityID,
	}
	s.Notifier.PublishToUser(interest.SenderID, EventConnectionApproved, payload)
	s.Notifier.PublishToUser(interest.ReceiverID, EventConnectionApproved, payload)

	if s.Push != nil {
		if err := s.Push.Notify(ctx, interest.SenderID, "Interest accepted", "You have a new connection"); err != nil {
			s.Log.Warn("push notification failed", zap.Error(err))
		}
	}

	s.Log.Info("interest accepted",
		zap.String("sender", senderID),
		zap.String("opportunityId", opportunityID),
		zap.String("connectionId", conn.ConnectionID))
	return conn, nil
}

// Reject declines a pending interest. The row is kept so the sender cannot
// immediately re-express interest in the same opportunity.
func (s *InterestService) Reject(ctx context.Context, senderID, opportunityID, actingUser string) error {
	interest, err := s.Get(ctx, senderID, opportunityID)
	if err != nil {
		return err
	}
	if interest == nil {
		return apperrors.NotFound("interest not found")
	}
	if interest.ReceiverID != actingUser {
		return apperrors.Authorization("only the opportunity owner may reject")
	}
	if interest.Status != models.InterestStatusPending {
		return apperrors.Conflict("interest is not pending")
	}

	if err := s.setStatus(ctx, senderID, opportunityID, models.InterestStatusRejected); err != nil {
		return err
	}

	s.Notifier.PublishToUser(interest.SenderID, EventNotification, map[string]interface{}{
		"kind":          "interest_rejected",
		"opportunityId": opportunityID,
	})
	return nil
}

func (s *InterestService) setStatus(ctx context.Context, senderID, opportunityID, status string) error {
	updateExpression := "SET #status = :status, updatedAt = :u"
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: status},
		":u":      &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}
	names := map[string]string{"#status": "status"}
	if _, err := s.Dynamo.UpdateItem(ctx, models.InterestsTable, updateExpression, interestKey(senderID, opportunityID), values, names); err != nil {
		return fmt.Errorf("failed to update interest status: %w", err)
	}
	return nil
}

// ListForSender returns every interest the user has expressed.
func (s *InterestService) ListForSender(ctx context.Context, senderID string) ([]models.Interest, error) {
	keyCondition := "senderId = :u"
	values := map[string]types.AttributeValue{
		":u": &types.AttributeValueMemberS{Value: senderID},
	}
	items, err := s.Dynamo.QueryItems(ctx, models.InterestsTable, keyCondition, values, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests: %w", err)
	}

	var interests []models.Interest
	if err := attributevalue.UnmarshalListOfMaps(items, &interests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interests: %w", err)
	}
	return interests, nil
}

// PendingBetween returns pending interests between the pair in either
// direction.
func (s *InterestService) PendingBetween(ctx context.Context, u1, u2 string) ([]models.Interest, error) {
	keyCondition := "pairKey = :pk"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: models.UnorderedPairKey(u1, u2)},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.InterestsTable, models.InterestPairIndex, keyCondition, values, nil, 25)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests by pair: %w", err)
	}

	var interests []models.Interest
	if err := attributevalue.UnmarshalListOfMaps(items, &interests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interests: %w", err)
	}

	pending := interests[:0]
	for _, i := range interests {
		if i.Status == models.InterestStatusPending {
			pending = append(pending, i)
		}
	}
	return pending, nil
}

// DeletePendingBetween removes pending interests between the pair. Used by
// the block cascade; decided rows are left untouched.
func (s *InterestService) DeletePendingBetween(ctx context.Context, u1, u2 string) error {
	pending, err := s.PendingBetween(ctx, u1, u2)
	if err != nil {
		return err
	}
	for _, i := range pending {
		if err := s.Dynamo.DeleteItem(ctx, models.InterestsTable, interestKey(i.SenderID, i.OpportunityID)); err != nil {
			return fmt.Errorf("failed to delete pending interest: %w", err)
		}
	}
	return nil
}
