package routes

import (
	"venturelink_server/controllers"
	"venturelink_server/services"

	"github.com/gorilla/mux"
)

// RegisterInterestRoutes sets up opportunity-interest routes under
// /api/interests.
func RegisterInterestRoutes(r *mux.Router, interests *services.InterestService) {
	controller := controllers.NewInterestController(interests)

	interestRouter := r.PathPrefix("/api/interests").Subrouter()
	interestRouter.HandleFunc("", controller.Create).Methods("POST")
	interestRouter.HandleFunc("", controller.ListSent).Methods("GET")
	interestRouter.HandleFunc("/accept", controller.Accept).Methods("POST")
	interestRouter.HandleFunc("/reject", controller.Reject).Methods("POST")
}
