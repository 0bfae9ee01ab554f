package routes

import (
	"venturelink_server/controllers"
	"venturelink_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up profile routes under /api/profiles.
func RegisterUserProfileRoutes(r *mux.Router, profiles *services.UserProfileService) {
	controller := controllers.NewUserProfileController(profiles)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()
	profileRouter.HandleFunc("", controller.Create).Methods("POST")
	profileRouter.HandleFunc("/follow", controller.Follow).Methods("POST")
	profileRouter.HandleFunc("/unfollow", controller.Unfollow).Methods("POST")
	profileRouter.HandleFunc("/push-token", controller.RegisterPushToken).Methods("POST")
	profileRouter.HandleFunc("/{userId}", controller.Get).Methods("GET")
}
