package services

import (
	"context"
	"testing"
	"time"

	"venturelink_server/apperrors"
	"venturelink_server/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timestampAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (e *testEnv) putMessage(t *testing.T, conversationID, senderID, text string, createdAt time.Time) models.Message {
	t.Helper()
	msg := models.Message{
		MessageID:      uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		ReadBy:         []string{senderID},
		CreatedAt:      timestampAt(createdAt),
	}
	require.NoError(t, e.db.PutItem(context.Background(), models.MessagesTable, msg))
	return msg
}

func TestResolveWithMutualFollowCreatesConversation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	env.follow(t, "ivy", "carl")
	env.follow(t, "carl", "ivy")

	resolution, err := env.conversations.ResolveOrCreate(context.Background(), "ivy", "carl")
	require.NoError(t, err)

	assert.False(t, resolution.IsProvisional)
	require.NotNil(t, resolution.Conversation)
	assert.ElementsMatch(t, []string{"ivy", "carl"}, resolution.Conversation.Participants)

	// The connection now points back at the conversation.
	conn, err := env.connections.FindBetween(context.Background(), "ivy", "carl")
	require.NoError(t, err)
	assert.Equal(t, resolution.Conversation.ConversationID, conn.ConversationID)

	// Resolution is stable: the same conversation comes back.
	again, err := env.conversations.ResolveOrCreate(context.Background(), "carl", "ivy")
	require.NoError(t, err)
	assert.Equal(t, resolution.Conversation.ConversationID, again.Conversation.ConversationID)
}

func TestResolveWithOneWayFollowIsProvisional(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	env.follow(t, "ivy", "carl")

	resolution, err := env.conversations.ResolveOrCreate(context.Background(), "ivy", "carl")
	require.NoError(t, err)

	assert.True(t, resolution.IsProvisional)
	assert.Nil(t, resolution.Conversation)
	assert.ElementsMatch(t, []string{"ivy", "carl"}, resolution.Participants)
	require.NotNil(t, resolution.PendingRequest)
	assert.False(t, resolution.PendingRequest.HasRequest)
}

func TestResolveWithoutFollowIsRefused(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)

	_, err := env.conversations.ResolveOrCreate(context.Background(), "ivy", "carl")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuthorization))

	_, err = env.conversations.ResolveOrCreate(context.Background(), "ivy", "ivy")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestResolveAgainstBlockedConnection(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	conn := env.connect(t, "ivy", "carl")
	_, err := env.connections.SetStatus(context.Background(), conn, models.ConnectionStatusBlocked)
	require.NoError(t, err)

	_, err = env.conversations.ResolveOrCreate(context.Background(), "ivy", "carl")
	assert.True(t, apperrors.IsState(err, apperrors.FlagBlocked))
}

func TestResolveRepairsOrphanedConversation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)

	// A conversation left behind without a connection binding.
	orphan := models.Conversation{
		ConversationID:  uuid.NewString(),
		ParticipantsKey: models.UnorderedPairKey("ivy", "carl"),
		Participants:    []string{"ivy", "carl"},
		CreatedAt:       models.NowTimestamp(),
		UpdatedAt:       models.NowTimestamp(),
	}
	require.NoError(t, env.db.PutItem(context.Background(), models.ConversationsTable, orphan))

	resolution, err := env.conversations.ResolveOrCreate(context.Background(), "ivy", "carl")
	require.NoError(t, err)

	require.NotNil(t, resolution.Conversation)
	assert.Equal(t, orphan.ConversationID, resolution.Conversation.ConversationID)
	assert.NotEmpty(t, resolution.Conversation.ConnectionID)

	conn, err := env.connections.FindBetween(context.Background(), "ivy", "carl")
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, orphan.ConversationID, conn.ConversationID)
}

func TestEnsureForConnectionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	conn := env.connect(t, "ivy", "carl")

	first, err := env.conversations.EnsureForConnection(context.Background(), conn)
	require.NoError(t, err)

	refreshed, err := env.connections.FindBetween(context.Background(), "ivy", "carl")
	require.NoError(t, err)
	second, err := env.conversations.EnsureForConnection(context.Background(), refreshed)
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestGetMessagesHonorsClearHistoryCutoff(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	conn := env.connect(t, "ivy", "carl")
	conv, err := env.conversations.EnsureForConnection(context.Background(), conn)
	require.NoError(t, err)

	now := time.Now()
	old := env.putMessage(t, conv.ConversationID, "ivy", "before", now.Add(-time.Minute))
	require.NoError(t, env.conversations.ClearHistory(context.Background(), conv.ConversationID, "carl"))
	recent := env.putMessage(t, conv.ConversationID, "ivy", "after", now.Add(time.Minute))

	// Carl sees only messages after their cutoff.
	visible, err := env.conversations.GetMessages(context.Background(), conv.ConversationID, "carl", 10)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, recent.MessageID, visible[0].MessageID)

	// Ivy never cleared and sees everything, oldest first.
	all, err := env.conversations.GetMessages(context.Background(), conv.ConversationID, "ivy", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, old.MessageID, all[0].MessageID)
	assert.Equal(t, recent.MessageID, all[1].MessageID)
}

func TestGetMessagesAccessChecks(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	env.addUser(t, "eve", models.RoleCounterparty)
	conn := env.connect(t, "ivy", "carl")
	conv, err := env.conversations.EnsureForConnection(context.Background(), conn)
	require.NoError(t, err)

	_, err = env.conversations.GetMessages(context.Background(), "missing", "ivy", 10)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = env.conversations.GetMessages(context.Background(), conv.ConversationID, "eve", 10)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAuthorization))
}

func TestAppendMessageUpdatesCountersAndRevivesConversation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	conn := env.connect(t, "ivy", "carl")
	conv, err := env.conversations.EnsureForConnection(context.Background(), conn)
	require.NoError(t, err)

	// Carl soft-deleted the conversation; a new message brings it back.
	require.NoError(t, env.conversations.ClearHistory(context.Background(), conv.ConversationID, "carl"))
	conv, err = env.conversations.GetByID(context.Background(), conv.ConversationID)
	require.NoError(t, err)
	require.True(t, conv.IsDeletedBy("carl"))

	msg := env.putMessage(t, conv.ConversationID, "ivy", "knock knock", time.Now())
	updated, err := env.conversations.AppendMessage(context.Background(), conv, &msg)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.UnreadCounts["carl"])
	assert.Zero(t, updated.UnreadCounts["ivy"])
	assert.Empty(t, updated.DeletedBy)
	require.NotNil(t, updated.LastMessage)
	assert.Equal(t, "knock knock", updated.LastMessage.Text)
	assert.Equal(t, "ivy", updated.LastMessage.SenderID)
}

func TestMarkReadZeroesCounterAndStampsMessages(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	conn := env.connect(t, "ivy", "carl")
	conv, err := env.conversations.EnsureForConnection(context.Background(), conn)
	require.NoError(t, err)

	msg := env.putMessage(t, conv.ConversationID, "ivy", "hello", time.Now())
	_, err = env.conversations.AppendMessage(context.Background(), conv, &msg)
	require.NoError(t, err)

	require.NoError(t, env.conversations.MarkRead(context.Background(), conv.ConversationID, "carl"))

	conv, err = env.conversations.GetByID(context.Background(), conv.ConversationID)
	require.NoError(t, err)
	assert.Zero(t, conv.UnreadCounts["carl"])

	messages, err := env.conversations.GetMessages(context.Background(), conv.ConversationID, "carl", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].WasReadBy("carl"))
}

func TestListForSkipsSoftDeletedAndIncludesPendingRequests(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "ivy", models.RoleInitiator)
	env.addUser(t, "carl", models.RoleCounterparty)
	env.addUser(t, "eve", models.RoleCounterparty)

	connCarl := env.connect(t, "ivy", "carl")
	convCarl, err := env.conversations.EnsureForConnection(context.Background(), connCarl)
	require.NoError(t, err)
	connEve := env.connect(t, "ivy", "eve")
	_, err = env.conversations.EnsureForConnection(context.Background(), connEve)
	require.NoError(t, err)

	require.NoError(t, env.conversations.ClearHistory(context.Background(), convCarl.ConversationID, "ivy"))

	_, err = env.requests.RequestOrAllow(context.Background(), "eve", "carl", "hi carl", nil)
	require.NoError(t, err)

	ivyList, err := env.conversations.ListFor(context.Background(), "ivy")
	require.NoError(t, err)
	require.Len(t, ivyList.Primary, 1)
	assert.Empty(t, ivyList.Requests)

	carlList, err := env.conversations.ListFor(context.Background(), "carl")
	require.NoError(t, err)
	require.Len(t, carlList.Primary, 1)
	require.Len(t, carlList.Requests, 1)
	assert.Equal(t, "eve", carlList.Requests[0].SenderID)
}
