package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"venturelink_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func marshalForMock(item interface{}) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(item)
}

type publishedEvent struct {
	Room    string
	Event   string
	Payload interface{}
}

// fakeNotifier records published events for assertions.
type fakeNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakeNotifier) PublishToUser(userID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Room: "user:" + userID, Event: event, Payload: payload})
}

func (f *fakeNotifier) PublishToConversation(conversationID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Room: "conversation:" + conversationID, Event: event, Payload: payload})
}

func (f *fakeNotifier) eventsFor(room string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedEvent
	for _, e := range f.events {
		if e.Room == room {
			out = append(out, e)
		}
	}
	return out
}

// fakePush records push notifications.
type fakePush struct {
	mu    sync.Mutex
	sent  []string
	bodys []string
}

func (f *fakePush) Notify(_ context.Context, userID, _, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, userID)
	f.bodys = append(f.bodys, body)
	return nil
}

// fakeStorage returns deterministic URLs without touching S3.
type fakeStorage struct {
	mu       sync.Mutex
	uploaded []string
}

func (f *fakeStorage) Store(_ context.Context, _ []byte, filename, _, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, filename)
	return fmt.Sprintf("https://files.test/%s/%s", folder, filename), nil
}

type testEnv struct {
	db            *mockDB
	notifier      *fakeNotifier
	push          *fakePush
	storage       *fakeStorage
	profiles      *UserProfileService
	connections   *ConnectionService
	requests      *MessageRequestService
	interests     *InterestService
	blocks        *BlockService
	conversations *ConversationService
	messages      *MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zap.NewNop()
	db := newMockDB()
	notifier := &fakeNotifier{}
	push := &fakePush{}
	storage := &fakeStorage{}
	summaries := StaticSummaryService{}

	profiles := &UserProfileService{Dynamo: db, Log: log}
	connections := &ConnectionService{Dynamo: db, Profiles: profiles, Log: log}
	requests := &MessageRequestService{
		Dynamo:      db,
		Connections: connections,
		Profiles:    profiles,
		Notifier:    notifier,
		Push:        push,
		Summaries:   summaries,
		Log:         log,
	}
	interests := &InterestService{
		Dynamo:      db,
		Connections: connections,
		Notifier:    notifier,
		Push:        push,
		Log:         log,
	}
	blocks := &BlockService{
		Dynamo:      db,
		Connections: connections,
		Requests:    requests,
		Interests:   interests,
		Log:         log,
	}
	conversations := &ConversationService{
		Dynamo:      db,
		Connections: connections,
		Profiles:    profiles,
		Requests:    requests,
		Log:         log,
	}
	messages := &MessageService{
		Dynamo:        db,
		Connections:   connections,
		Conversations: conversations,
		Requests:      requests,
		Storage:       storage,
		Notifier:      notifier,
		Push:          push,
		Summaries:     summaries,
		Log:           log,
	}

	requests.Conversations = conversations
	requests.Blocks = blocks
	interests.Conversations = conversations
	interests.Blocks = blocks

	return &testEnv{
		db:            db,
		notifier:      notifier,
		push:          push,
		storage:       storage,
		profiles:      profiles,
		connections:   connections,
		requests:      requests,
		interests:     interests,
		blocks:        blocks,
		conversations: conversations,
		messages:      messages,
	}
}

func (e *testEnv) addUser(t *testing.T, userID, role string) {
	t.Helper()
	err := e.profiles.Create(context.Background(), &models.UserProfile{
		UserID:   userID,
		FullName: "Test " + userID,
		Role:     role,
	})
	require.NoError(t, err)
}

func (e *testEnv) follow(t *testing.T, follower, followee string) {
	t.Helper()
	require.NoError(t, e.profiles.Follow(context.Background(), follower, followee))
}

// connect creates an active connection between the two users.
func (e *testEnv) connect(t *testing.T, u1, u2 string) *models.Connection {
	t.Helper()
	conn, err := e.connections.Create(context.Background(), u1, u2, "")
	require.NoError(t, err)
	return conn
}
