package routes

import (
	"venturelink_server/controllers"
	"venturelink_server/services"

	"github.com/gorilla/mux"
)

// RegisterRequestRoutes sets up message-request routes under /api/requests.
func RegisterRequestRoutes(r *mux.Router, requests *services.MessageRequestService) {
	controller := controllers.NewRequestController(requests)

	requestRouter := r.PathPrefix("/api/requests").Subrouter()
	requestRouter.HandleFunc("", controller.Create).Methods("POST")
	requestRouter.HandleFunc("/pending", controller.Pending).Methods("GET")
	requestRouter.HandleFunc("/status", controller.Status).Methods("GET")
	requestRouter.HandleFunc("/{requestId}/accept", controller.Accept).Methods("POST")
	requestRouter.HandleFunc("/{requestId}/reject", controller.Reject).Methods("POST")
}
