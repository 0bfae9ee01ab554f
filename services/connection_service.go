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

// ConnectionService owns pairwise relationship status. A connection row is
// keyed by the role-pinned pair key, so the store itself enforces at most
// one connection per user pair.
type ConnectionService struct {
	Dynamo   DB
	Profiles *UserProfileService
	Log      *zap.Logger
}

// resolveParties pins the role assignment for a pair: partyA is the
// initiator side. When both users share a role the lexicographically
// smaller id takes the partyA slot, keeping the key deterministic for
// either call order.
func (s *ConnectionService) resolveParties(ctx context.Context, u1, u2 string) (string, string, error) {
	role1, err := s.Profiles.Role(ctx, u1)
	if err != nil {
		return "", "", err
	}
	role2, err := s.Profiles.Role(ctx, u2)
	if err != nil {
		return "", "", err
	}

	switch {
	case role1 == models.RoleInitiator && role2 != models.RoleInitiator:
		return u1, u2, nil
	case role2 == models.RoleInitiator && role1 != models.RoleInitiator:
		return u2, u1, nil
	default:
		if u1 < u2 {
			return u1, u2, nil
		}
		return u2, u1, nil
	}
}

// FindBetween returns the connection between two users in any status, or
// nil when none exists. Lookup is direction-agnostic.
func (s *ConnectionService) FindBetween(ctx context.Context, u1, u2 string) (*models.Connection, error) {
	partyA, partyB, err := s.resolveParties(ctx, u1, u2)
	if err != nil {
		return nil, err
	}

	key := map[string]types.AttributeValue{
		"pairKey": &types.AttributeValueMemberS{Value: models.PairKey(partyA, partyB)},
	}
	item, err := s.Dynamo.GetItem(ctx, models.ConnectionsTable, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connection: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	var conn models.Connection
	if err := attributevalue.UnmarshalMap(item, &conn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	return &conn, nil
}

// FindActiveBetween returns the active connection between two users, or nil.
func (s *ConnectionService) FindActiveBetween(ctx context.Context, u1, u2 string) (*models.Connection, error) {
	conn, err := s.FindBetween(ctx, u1, u2)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.Status != models.ConnectionStatusActive {
		return nil, nil
	}
	return conn, nil
}

// Create inserts an active connection for the pair. A concurrent duplicate
// create loses the conditional write; the loser re-fetches and returns the
// winning row instead of failing the caller.
func (s *ConnectionService) Create(ctx context.Context, u1, u2, originRequestID string) (*models.Connection, error) {
	partyA, partyB, err := s.resolveParties(ctx, u1, u2)
	if err != nil {
		return nil, err
	}

	now := models.NowTimestamp()
	conn := models.Connection{
		PairKey:         models.PairKey(partyA, partyB),
		ConnectionID:    uuid.NewString(),
		PartyA:          partyA,
		PartyB:          partyB,
		Status:          models.ConnectionStatusActive,
		OriginRequestID: originRequestID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.Dynamo.PutItemConditional(ctx, models.ConnectionsTable, conn, "attribute_not_exists(pairKey)")
	if err == ErrConditionalCheckFailed {
		s.Log.Info("connection already exists, returning winner",
			zap.String("partyA", partyA), zap.String("partyB", partyB))
		existing, ferr := s.FindBetween(ctx, partyA, partyB)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("connection create lost race but winner not found")
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.Log.Info("connection created",
		zap.String("connectionId", conn.ConnectionID),
		zap.String("partyA", partyA), zap.String("partyB", partyB))
	return &conn, nil
}

// GetByID loads a connection through the connectionId GSI, or nil.
func (s *ConnectionService) GetByID(ctx context.Context, connectionID string) (*models.Connection, error) {
	keyCondition := "connectionId = :id"
	values := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: connectionID},
	}
	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConnectionsTable, models.ConnectionIDIndex, keyCondition, values, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to query connection by id: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var conn models.Connection
	if err := attributevalue.UnmarshalMap(items[0], &conn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	return &conn, nil
}

// SetStatus flips the connection's status and returns the updated row.
func (s *ConnectionService) SetStatus(ctx context.Context, conn *models.Connection, status string) (*models.Connection, error) {
	key := map[string]types.AttributeValue{
		"pairKey": &types.AttributeValueMemberS{Value: conn.PairKey},
	}
	updateExpression := "SET #status = :status, updatedAt = :updatedAt"
	values := map[string]types.AttributeValue{
		":status":    &types.AttributeValueMemberS{Value: status},
		":updatedAt": &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}
	names := map[string]string{"#status": "status"}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.ConnectionsTable, updateExpression, key, values, names)
	if err != nil {
		return nil, fmt.Errorf("failed to update connection status: %w", err)
	}

	var updated models.Connection
	if err := attributevalue.UnmarshalMap(attrs, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated connection: %w", err)
	}
	return &updated, nil
}

// ToggleBlock flips a connection between active and blocked. Only a
// participant may toggle.
func (s *ConnectionService) ToggleBlock(ctx context.Context, connectionID, actingUser string) (*models.Connection, error) {
	conn, err := s.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, apperrors.NotFound("connection not found")
	}
	if !conn.HasParticipant(actingUser) {
		return nil, apperrors.Authorization("only a participant may modify this connection")
	}

	next := models.ConnectionStatusBlocked
	if conn.Status == models.ConnectionStatusBlocked {
		next = models.ConnectionStatusActive
	}
	return s.SetStatus(ctx, conn, next)
}

// ClaimConversation binds a conversation id to the connection. The
// conditional write is the 1:1 conversation-per-connection constraint: the
// first claim wins and every later caller adopts the winning id.
func (s *ConnectionService) ClaimConversation(ctx context.Context, conn *models.Connection, conversationID string) (string, bool, error) {
	key := map[string]types.AttributeValue{
		"pairKey": &types.AttributeValueMemberS{Value: conn.PairKey},
	}
	updateExpression := "SET conversationId = :cid, updatedAt = :updatedAt"
	values := map[string]types.AttributeValue{
		":cid":       &types.AttributeValueMemberS{Value: conversationID},
		":updatedAt": &types.AttributeValueMemberS{Value: models.NowTimestamp()},
	}

	_, err := s.Dynamo.UpdateItemConditional(ctx, models.ConnectionsTable, updateExpression, key, values, nil, "attribute_not_exists(conversationId)")
	if err == ErrConditionalCheckFailed {
		refreshed, ferr := s.FindBetween(ctx, conn.PartyA, conn.PartyB)
		if ferr != nil {
			return "", false, ferr
		}
		if refreshed == nil || refreshed.ConversationID == "" {
			return "", false, fmt.Errorf("conversation claim lost race but winner not found")
		}
		return refreshed.ConversationID, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to claim conversation: %w", err)
	}
	return conversationID, true, nil
}
