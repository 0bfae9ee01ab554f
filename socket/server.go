package socket

import (
	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

const defaultNamespace = "/"

func userRoom(userID string) string                 { return "user:" + userID }
func conversationRoom(conversationID string) string { return "conversation:" + conversationID }

// NewServer builds the socket.io server. Clients identify themselves and
// subscribe to conversations through join events; everything outbound goes
// through the Notifier.
func NewServer(log *zap.Logger) *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect(defaultNamespace, func(c socketio.Conn) error {
		log.Info("socket connected", zap.String("socketId", c.ID()))
		return nil
	})

	server.OnEvent(defaultNamespace, "identify", func(c socketio.Conn, userID string) {
		if userID == "" {
			log.Warn("identify without userId", zap.String("socketId", c.ID()))
			return
		}
		c.Join(userRoom(userID))
		log.Info("socket identified",
			zap.String("socketId", c.ID()),
			zap.String("userId", userID))
	})

	server.OnEvent(defaultNamespace, "join_conversation", func(c socketio.Conn, conversationID string) {
		if conversationID == "" {
			return
		}
		c.Join(conversationRoom(conversationID))
	})

	server.OnEvent(defaultNamespace, "leave_conversation", func(c socketio.Conn, conversationID string) {
		if conversationID == "" {
			return
		}
		c.Leave(conversationRoom(conversationID))
	})

	server.OnDisconnect(defaultNamespace, func(c socketio.Conn, reason string) {
		log.Info("socket disconnected",
			zap.String("socketId", c.ID()),
			zap.String("reason", reason))
	})

	return server
}

// Notifier publishes service events onto socket.io rooms. It satisfies the
// services notifier contract: publishing never fails the caller.
type Notifier struct {
	Server *socketio.Server
	Log    *zap.Logger
}

func (n *Notifier) PublishToUser(userID, event string, payload interface{}) {
	n.Server.BroadcastToRoom(defaultNamespace, userRoom(userID), event, payload)
	n.Log.Debug("event published",
		zap.String("room", userRoom(userID)),
		zap.String("event", event))
}

func (n *Notifier) PublishToConversation(conversationID, event string, payload interface{}) {
	n.Server.BroadcastToRoom(defaultNamespace, conversationRoom(conversationID), event, payload)
	n.Log.Debug("event published",
		zap.String("room", conversationRoom(conversationID)),
		zap.String("event", event))
}
