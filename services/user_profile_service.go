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

// UserProfileService owns the profile rows that act as the role and
// follow-graph oracle for the relationship core.
type UserProfileService struct {
	Dynamo DB
	Log    *zap.Logger
}

func (s *UserProfileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("user profile not found")
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (s *UserProfileService) Create(ctx context.Context, profile *models.UserProfile) error {
	if profile.UserID == "" {
		return apperrors.Validation("userId is required")
	}
	if profile.Role != models.RoleInitiator && profile.Role != models.RoleCounterparty {
		return apperrors.Validation("role must be initiator or counterparty")
	}
	profile.CreatedAt = models.NowTimestamp()

	err := s.Dynamo.PutItemConditional(ctx, models.UserProfilesTable, profile, "attribute_not_exists(userId)")
	if err == ErrConditionalCheckFailed {
		return apperrors.Conflict("profile already exists")
	}
	return err
}

// Role resolves a user's role for connection role-pinning.
func (s *UserProfileService) Role(ctx context.Context, userID string) (string, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// Follow records followerID following followeeID on both profiles.
func (s *UserProfileService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperrors.Validation("cannot follow yourself")
	}

	follower, err := s.Get(ctx, followerID)
	if err != nil {
		return err
	}
	followee, err := s.Get(ctx, followeeID)
	if err != nil {
		return err
	}

	if follower.IsFollowing(followeeID) {
		return nil
	}

	follower.Following = append(follower.Following, followeeID)
	followee.Followers = append(followee.Followers, followerID)

	if err := s.Dynamo.PutItem(ctx, models.UserProfilesTable, follower); err != nil {
		return fmt.Errorf("failed to update follower profile: %w", err)
	}
	if err := s.Dynamo.PutItem(ctx, models.UserProfilesTable, followee); err != nil {
		return fmt.Errorf("failed to update followee profile: %w", err)
	}

	s.Log.Info("follow recorded", zap.String("follower", followerID), zap.String("followee", followeeID))
	return nil
}

func (s *UserProfileService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	follower, err := s.Get(ctx, followerID)
	if err != nil {
		return err
	}
	followee, err := s.Get(ctx, followeeID)
	if err != nil {
		return err
	}

	follower.Following = removeString(follower.Following, followeeID)
	followee.Followers = removeString(followee.Followers, followerID)

	if err := s.Dynamo.PutItem(ctx, models.UserProfilesTable, follower); err != nil {
		return fmt.Errorf("failed to update follower profile: %w", err)
	}
	if err := s.Dynamo.PutItem(ctx, models.UserProfilesTable, followee); err != nil {
		return fmt.Errorf("failed to update followee profile: %w", err)
	}
	return nil
}

// IsFollowing reports whether a follows b.
func (s *UserProfileService) IsFollowing(ctx context.Context, a, b string) (bool, error) {
	profile, err := s.Get(ctx, a)
	if err != nil {
		return false, err
	}
	return profile.IsFollowing(b), nil
}

// IsMutualFollow reports whether a and b follow each other.
func (s *UserProfileService) IsMutualFollow(ctx context.Context, a, b string) (bool, error) {
	aFollowsB, err := s.IsFollowing(ctx, a, b)
	if err != nil {
		return false, err
	}
	if !aFollowsB {
		return false, nil
	}
	return s.IsFollowing(ctx, b, a)
}

// RegisterPushToken appends a device push token to the profile.
func (s *UserProfileService) RegisterPushToken(ctx context.Context, userID, token string) error {
	if token == "" {
		return apperrors.Validation("token is required")
	}
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	for _, t := range profile.PushTokens {
		if t == token {
			return nil
		}
	}
	profile.PushTokens = append(profile.PushTokens, token)
	return s.Dynamo.PutItem(ctx, models.UserProfilesTable, profile)
}

func removeString(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
