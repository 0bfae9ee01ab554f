package services

import (
	"context"
	"testing"

	"venturelink_server/apperrors"
	"venturelink_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestCreate(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)

	interest, err := env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "looks promising")
	require.NoError(t, err)
	assert.Equal(t, models.InterestStatusPending, interest.Status)

	// One interest per sender per opportunity.
	_, err = env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "again")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = env.interests.Create(context.Background(), "carl", "carl", "opp-2", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestInterestCreateBetweenBlockedUsers(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)

	_, err := env.blocks.Block(context.Background(), "ivy", "carl", "")
	require.NoError(t, err)

	_, err = env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "")
	assert.True(t, apperrors.IsState(err, apperrors.FlagBlocked))
}

func TestInterestAcceptCreatesConnection(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)

	_, err := env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "")
	require.NoError(t, err)

	conn, err := env.interests.Accept(context.Background(), "carl", "opp-1", "ivy")
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusActive, conn.Status)

	// The conversation was opened alongside the connection.
	refreshed, err := env.connections.FindBetween(context.Background(), "ivy", "carl")
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.ConversationID)

	// Both parties learn about the new connection.
	require.NotEmpty(t, env.notifier.eventsFor("user:carl"))
	ivyEvents := env.notifier.eventsFor("user:ivy")
	require.NotEmpty(t, ivyEvents)
	assert.Equal(t, EventConnectionApproved, ivyEvents[len(ivyEvents)-1].Event)

	interest, err := env.interests.Get(context.Background(), "carl", "opp-1")
	require.NoError(t, err)
	assert.Equal(t, models.InterestStatusAccepted, interest.Status)
}

func TestInterestDecisionRestrictedToOwner(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	env.addUser(t, "eve", models.RoleCounterparty)

	_, err := env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "")
	require.NoError(t, err)

	_, err = env.interests.Accept(context.Background(), "carl", "opp-1", "eve")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuthorization))

	err = env.interests.Reject(context.Background(), "carl", "opp-1", "carl")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuthorization))

	_, err = env.interests.Accept(context.Background(), "carl", "missing", "ivy")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestInterestRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)

	_, err := env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "")
	require.NoError(t, err)
	require.NoError(t, env.interests.Reject(context.Background(), "carl", "opp-1", "ivy"))

	_, err = env.interests.Accept(context.Background(), "carl", "opp-1", "ivy")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	// The rejected row keeps the sender from re-expressing interest.
	_, err = env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "retry")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestInterestBlockCascadeDeletesPendingOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)

	_, err := env.interests.Create(context.Background(), "carl", "ivy", "opp-1", "")
	require.NoError(t, err)
	_, err = env.interests.Create(context.Background(), "carl", "ivy", "opp-2", "")
	require.NoError(t, err)
	require.NoError(t, env.interests.Reject(context.Background(), "carl", "opp-2", "ivy"))

	_, err = env.blocks.Block(context.Background(), "ivy", "carl", "")
	require.NoError(t, err)

	pending, err := env.interests.Get(context.Background(), "carl", "opp-1")
	require.NoError(t, err)
	assert.Nil(t, pending)

	rejected, err := env.interests.Get(context.Background(), "carl", "opp-2")
	require.NoError(t, err)
	require.NotNil(t, rejected)
	assert.Equal(t, models.InterestStatusRejected, rejected.Status)
}
