package controllers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"venturelink_server/apperrors"
	"venturelink_server/services"
	"venturelink_server/utils"
)

// ChatController exposes message and conversation operations.
type ChatController struct {
	Messages      *services.MessageService
	Conversations *services.ConversationService
}

func NewChatController(messages *services.MessageService, conversations *services.ConversationService) *ChatController {
	return &ChatController{Messages: messages, Conversations: conversations}
}

type attachmentPayload struct {
	Data     string `json:"data"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

type sendMessageRequest struct {
	ReceiverID     string              `json:"receiverId"`
	ConnectionID   string              `json:"connectionId"`
	ConversationID string              `json:"conversationId"`
	Text           string              `json:"text"`
	Attachments    []attachmentPayload `json:"attachments"`
}

// SendMessage delivers a message, or creates a message request when the
// sender has no connection to the receiver yet.
func (c *ChatController) SendMessage(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, apperrors.Validation("invalid request body"))
		return
	}

	uploads := make([]services.AttachmentUpload, 0, len(body.Attachments))
	for _, a := range body.Attachments {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			utils.WriteError(w, apperrors.Validation("attachment data must be base64"))
			return
		}
		uploads = append(uploads, services.AttachmentUpload{
			Data:     data,
			Type:     a.Type,
			Filename: a.Filename,
			MimeType: a.MimeType,
		})
	}

	result, err := c.Messages.SendMessage(r.Context(), services.SendInput{
		SenderID:       actor,
		ReceiverID:     body.ReceiverID,
		ConnectionID:   body.ConnectionID,
		ConversationID: body.ConversationID,
		Text:           body.Text,
		Attachments:    uploads,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Request != nil {
		status = http.StatusAccepted
	}
	utils.WriteJSON(w, status, result)
}

// DeleteMessage removes a message the actor sent.
func (c *ChatController) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	messageID := r.URL.Query().Get("messageId")
	if messageID == "" {
		utils.WriteError(w, apperrors.Validation("messageId is required"))
		return
	}

	if err := c.Messages.DeleteMessage(r.Context(), messageID, actor); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetMessages fetches a conversation's visible messages for the actor.
func (c *ChatController) GetMessages(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		utils.WriteError(w, apperrors.Validation("conversationId is required"))
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	messages, err := c.Conversations.GetMessages(r.Context(), conversationID, actor, int32(limit))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, messages)
}

// ListConversations returns the actor's conversations and incoming pending
// requests.
func (c *ChatController) ListConversations(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	list, err := c.Conversations.ListFor(r.Context(), actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// ResolveConversation finds or creates the conversation with another user.
func (c *ChatController) ResolveConversation(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		utils.WriteError(w, apperrors.Validation("userId is required"))
		return
	}

	resolution, err := c.Conversations.ResolveOrCreate(r.Context(), actor, body.UserID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, resolution)
}

// ClearHistory hides prior messages of a conversation for the actor only.
func (c *ChatController) ClearHistory(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ConversationID == "" {
		utils.WriteError(w, apperrors.Validation("conversationId is required"))
		return
	}

	if err := c.Conversations.ClearHistory(r.Context(), body.ConversationID, actor); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// MarkRead zeroes the actor's unread counter for a conversation.
func (c *ChatController) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ConversationID == "" {
		utils.WriteError(w, apperrors.Validation("conversationId is required"))
		return
	}

	if err := c.Conversations.MarkRead(r.Context(), body.ConversationID, actor); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
