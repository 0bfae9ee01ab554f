package routes

import (
	"venturelink_server/controllers"
	"venturelink_server/services"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes sets up message and conversation routes under /api/chat.
func RegisterChatRoutes(r *mux.Router, messages *services.MessageService, conversations *services.ConversationService) {
	controller := controllers.NewChatController(messages, conversations)

	chatRouter := r.PathPrefix("/api/chat").Subrouter()
	chatRouter.HandleFunc("/message", controller.SendMessage).Methods("POST")
	chatRouter.HandleFunc("/message", controller.DeleteMessage).Methods("DELETE")
	chatRouter.HandleFunc("/messages", controller.GetMessages).Methods("GET")
	chatRouter.HandleFunc("/conversations", controller.ListConversations).Methods("GET")
	chatRouter.HandleFunc("/conversations/resolve", controller.ResolveConversation).Methods("POST")
	chatRouter.HandleFunc("/conversations/clear-history", controller.ClearHistory).Methods("POST")
	chatRouter.HandleFunc("/conversations/mark-read", controller.MarkRead).Methods("POST")
}
