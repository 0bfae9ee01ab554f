package controllers

import (
	"net/http"

	"venturelink_server/apperrors"
	"venturelink_server/services"
	"venturelink_server/utils"

	"github.com/gorilla/mux"
)

// ConnectionController exposes connection lookups and the block toggle.
type ConnectionController struct {
	Connections *services.ConnectionService
}

func NewConnectionController(connections *services.ConnectionService) *ConnectionController {
	return &ConnectionController{Connections: connections}
}

// Get returns a connection the actor participates in.
func (c *ConnectionController) Get(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	connectionID := mux.Vars(r)["connectionId"]
	conn, err := c.Connections.GetByID(r.Context(), connectionID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if conn == nil {
		utils.WriteError(w, apperrors.NotFound("connection not found"))
		return
	}
	if !conn.HasParticipant(actor) {
		utils.WriteError(w, apperrors.Authorization("not a participant of this connection"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, conn)
}

// ToggleBlock flips a connection between active and blocked.
func (c *ConnectionController) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	connectionID := mux.Vars(r)["connectionId"]
	updated, err := c.Connections.ToggleBlock(r.Context(), connectionID, actor)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

// Between returns the connection between the actor and another user.
func (c *ConnectionController) Between(w http.ResponseWriter, r *http.Request) {
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

	conn, err := c.Connections.FindBetween(r.Context(), actor, otherID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if conn == nil {
		utils.WriteError(w, apperrors.NotFound("no connection between these users"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, conn)
}
