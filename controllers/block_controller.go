package controllers

import (
	"encoding/json"
	"net/http"

	"venturelink_server/apperrors"
	"venturelink_server/services"
	"venturelink_server/utils"
)

// BlockController exposes block and unblock operations.
type BlockController struct {
	Blocks *services.BlockService
}

func NewBlockController(blocks *services.BlockService) *BlockController {
	return &BlockController{Blocks: blocks}
}

// Block records the actor blocking another user.
func (c *BlockController) Block(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		UserID string `json:"userId"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		utils.WriteError(w, apperrors.Validation("userId is required"))
		return
	}

	record, err := c.Blocks.Block(r.Context(), actor, body.UserID, body.Reason)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, record)
}

// Unblock removes the actor's block on another user.
func (c *BlockController) Unblock(w http.ResponseWriter, r *http.Request) {
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

	if err := c.Blocks.Unblock(r.Context(), actor, body.UserID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

// List returns every user the actor has blocked.
func (c *BlockController) List(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	blocks, err := c.Blocks.ListBlockedBy(r.Context(), actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, blocks)
}

// Status reports the block state between the actor and another user.
func (c *BlockController) Status(w http.ResponseWriter, r *http.Request) {
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

	status, err := c.Blocks.StatusBetween(r.Context(), actor, otherID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, status)
}
