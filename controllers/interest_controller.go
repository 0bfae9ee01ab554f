package controllers

import (
	"encoding/json"
	"net/http"

	"venturelink_server/apperrors"
	"venturelink_server/services"
	"venturelink_server/utils"
)

// InterestController exposes opportunity-interest operations.
type InterestController struct {
	Interests *services.InterestService
}

func NewInterestController(interests *services.InterestService) *InterestController {
	return &InterestController{Interests: interests}
}

// Create records the actor's interest in an opportunity.
func (c *InterestController) Create(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		ReceiverID    string `json:"receiverId"`
		OpportunityID string `json:"opportunityId"`
		Note          string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, apperrors.Validation("invalid request body"))
		return
	}

	interest, err := c.Interests.Create(r.Context(), actor, body.ReceiverID, body.OpportunityID, body.Note)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, interest)
}

// Accept approves an interest addressed to the actor and returns the new
// connection.
func (c *InterestController) Accept(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		SenderID      string `json:"senderId"`
		OpportunityID string `json:"opportunityId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, apperrors.Validation("invalid request body"))
		return
	}

	conn, err := c.Interests.Accept(r.Context(), body.SenderID, body.OpportunityID, actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, conn)
}

// Reject declines an interest addressed to the actor.
func (c *InterestController) Reject(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		SenderID      string `json:"senderId"`
		OpportunityID string `json:"opportunityId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, apperrors.Validation("invalid request body"))
		return
	}

	if err := c.Interests.Reject(r.Context(), body.SenderID, body.OpportunityID, actor); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// ListSent returns every interest the actor has expressed.
func (c *InterestController) ListSent(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	interests, err := c.Interests.ListForSender(r.Context(), actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, interests)
}
