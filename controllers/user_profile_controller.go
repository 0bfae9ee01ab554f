package controllers

import (
	"encoding/json"
	"net/http"

	"venturelink_server/apperrors"
	"venturelink_server/models"
	"venturelink_server/services"
	"venturelink_server/utils"

	"github.com/gorilla/mux"
)

// UserProfileController exposes profile, follow-graph and push-token
// operations.
type UserProfileController struct {
	Profiles *services.UserProfileService
}

func NewUserProfileController(profiles *services.UserProfileService) *UserProfileController {
	return &UserProfileController{Profiles: profiles}
}

func (c *UserProfileController) Create(w http.ResponseWriter, r *http.Request) {
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		utils.WriteError(w, apperrors.Validation("invalid request body"))
		return
	}

	if err := c.Profiles.Create(r.Context(), &profile); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, profile)
}

func (c *UserProfileController) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	profile, err := c.Profiles.Get(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

func (c *UserProfileController) Follow(w http.ResponseWriter, r *http.Request) {
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

	if err := c.Profiles.Follow(r.Context(), actor, body.UserID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "following"})
}

func (c *UserProfileController) Unfollow(w http.ResponseWriter, r *http.Request) {
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

	if err := c.Profiles.Unfollow(r.Context(), actor, body.UserID); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "unfollowed"})
}

func (c *UserProfileController) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	actor := utils.ActorID(r)
	if actor == "" {
		utils.WriteError(w, apperrors.Authorization("authentication required"))
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, apperrors.Validation("invalid request body"))
		return
	}

	if err := c.Profiles.RegisterPushToken(r.Context(), actor, body.Token); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
