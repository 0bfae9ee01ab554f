package controllers

import (
	"encoding/json"
	"net/http"

	"venturelink_server/apperrors"
	"venturelink_server/services"
	"venturelink_server/utils"

	"github.com/gorilla/mux"
)

// RequestController exposes message-request decisions.
type RequestController struct {
	Requests *services.MessageRequestService
}

func NewRequestController(requests *services.MessageRequestService) *RequestController {
	return &RequestController{Requests: requests}
}

// Accept approves a pending request addressed to the actor.
func (c *RequestController) Accept(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	requestID := mux.Vars(r)["requestId"]
	result, err := c.Requests.Accept(r.Context(), requestID, actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// Reject declines a pending request addressed to the actor.
func (c *RequestController) Reject(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	requestID := mux.Vars(r)["requestId"]
	updated, err := c.Requests.Reject(r.Context(), requestID, actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

// Status reports the request state between the actor and another user.
func (c *RequestController) Status(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	otherID := r.URL.Query().Get("userId")
	if otherID == "" {
		utils.WriteError(w, apperrors.Validation("userId is required"))
		return
	}

	status, err := c.Requests.StatusBetween(r.Context(), actor, otherID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, status)
}

// Pending lists requests waiting on the actor's decision.
func (c *RequestController) Pending(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	pending, err := c.Requests.PendingForReceiver(r.Context(), actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, pending)
}

// Create opens a message request explicitly, outside the send path.
func (c *RequestController) Create(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		ReceiverID string `json:"receiverId"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, apperrors.Validation("invalid request body"))
		return
	}

	outcome, err := c.Requests.RequestOrAllow(r.Context(), actor, body.ReceiverID, body.Text, nil)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, outcome)
}
