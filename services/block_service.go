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

// BlockService owns block relationships and cascades their effects onto
// connections, message requests and interests. Blocking is asymmetric but
// queried in both directions.
type BlockService struct {
	Dynamo      DB
	Connections *ConnectionService
	Requests    *MessageRequestService
	Interests   *InterestService
	Log         *zap.Logger
}

func blockKey(blockerID, blockedID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"blockerId": &types.AttributeValueMemberS{Value: blockerID},
		"blockedId": &types.AttributeValueMemberS{Value: blockedID},
	}
}

// Block records blockerID blocking blockedID and cascades: pending message
// requests and interests between the pair are deleted in both directions,
// and any connection between them flips to blocked. Message history is
// retained.
func (s *BlockService) Block(ctx context.Context, blockerID, blockedID, reason string) (*models.BlockedUser, error) {
	if blockerID == blockedID {
		return nil, apperrors.Validation("cannot block yourself")
	}

	record := models.BlockedUser{
		BlockerID: blockerID,
		BlockedID: blockedID,
		Reason:    reason,
		CreatedAt: models.NowTimestamp(),
	}

	err := s.Dynamo.PutItemConditional(ctx, models.BlockedUsersTable, record, "attribute_not_exists(blockerId)")
	if err == ErrConditionalCheckFailed {
		return nil, apperrors.Conflict("user is already blocked")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create block record: %w", err)
	}

	// Cascade failures after the block row exists are logged, not
	// propagated: the block itself stands and the repair-on-read paths
	// tolerate leftovers.
	if err := s.Requests.DeletePendingBetween(ctx, blockerID, blockedID); err != nil {
		s.Log.Error("failed to delete pending requests on block", zap.Error(err))
	}
	if err := s.Interests.DeletePendingBetween(ctx, blockerID, blockedID); err != nil {
		s.Log.Error("failed to delete pending interests on block", zap.Error(err))
	}

	conn, err := s.Connections.FindBetween(ctx, blockerID, blockedID)
	if err != nil {
		s.Log.Error("failed to look up connection on block", zap.Error(err))
	} else if conn != nil && conn.Status == models.ConnectionStatusActive {
		if _, err := s.Connections.SetStatus(ctx, conn, models.ConnectionStatusBlocked); err != nil {
			s.Log.Error("failed to block connection", zap.Error(err))
		}
	}

	s.Log.Info("user blocked", zap.String("blocker", blockerID), zap.String("blocked", blockedID))
	return &record, nil
}

// Unblock removes the block record. The connection between the pair is
// restored to active only when it is currently blocked and no block record
// remains in either direction, so one side unblocking cannot override the
// other side's block.
func (s *BlockService) Unblock(ctx context.Context, blockerID, blockedID string) error {
	item, err := s.Dynamo.GetItem(ctx, models.BlockedUsersTable, blockKey(blockerID, blockedID))
	if err != nil {
		return fmt.Errorf("failed to fetch block record: %w", err)
	}
	if item == nil {
		return apperrors.NotFound("block record not found")
	}

	if err := s.Dynamo.DeleteItem(ctx, models.BlockedUsersTable, blockKey(blockerID, blockedID)); err != nil {
		return fmt.Errorf("failed to delete block record: %w", err)
	}

	stillBlocked, err := s.IsBlocked(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if stillBlocked {
		return nil
	}

	conn, err := s.Connections.FindBetween(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if conn != nil && conn.Status == models.ConnectionStatusBlocked {
		if _, err := s.Connections.SetStatus(ctx, conn, models.ConnectionStatusActive); err != nil {
			return err
		}
	}

	s.Log.Info("user unblocked", zap.String("blocker", blockerID), zap.String("blocked", blockedID))
	return nil
}

// IsBlocked reports whether a block exists between the users in either
// direction.
func (s *BlockService) IsBlocked(ctx context.Context, u1, u2 string) (bool, error) {
	item, err := s.Dynamo.GetItem(ctx, models.BlockedUsersTable, blockKey(u1, u2))
	if err != nil {
		return false, fmt.Errorf("failed to fetch block record: %w", err)
	}
	if item != nil {
		return true, nil
	}

	item, err = s.Dynamo.GetItem(ctx, models.BlockedUsersTable, blockKey(u2, u1))
	if err != nil {
		return false, fmt.Errorf("failed to fetch block record: %w", err)
	}
	return item != nil, nil
}

// StatusBetween reports the block state from userID's point of view.
func (s *BlockService) StatusBetween(ctx context.Context, userID, otherID string) (*models.BlockStatus, error) {
	mine, err := s.Dynamo.GetItem(ctx, models.BlockedUsersTable, blockKey(userID, otherID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block record: %w", err)
	}
	theirs, err := s.Dynamo.GetItem(ctx, models.BlockedUsersTable, blockKey(otherID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block record: %w", err)
	}

	status := &models.BlockStatus{BlockedBy: models.BlockedByNone}
	switch {
	case mine != nil && theirs != nil:
		status.IsBlocked = true
		status.BlockedBy = models.BlockedByBoth
	case mine != nil:
		status.IsBlocked = true
		status.BlockedBy = models.BlockedByMe
	case theirs != nil:
		status.IsBlocked = true
		status.BlockedBy = models.BlockedByThem
	}
	return status, nil
}

// ListBlockedBy returns every block record created by userID.
func (s *BlockService) ListBlockedBy(ctx context.Context, userID string) ([]models.BlockedUser, error) {
	keyCondition := "blockerId = :u"
	values := map[string]types.AttributeValue{
		":u": &types.AttributeValueMemberS{Value: userID},
	}
	items, err := s.Dynamo.QueryItems(ctx, models.BlockedUsersTable, keyCondition, values, nil, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}

	var blocks []models.BlockedUser
	if err := attributevalue.UnmarshalListOfMaps(items, &blocks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blocks: %w", err)
	}
	return blocks, nil
}
