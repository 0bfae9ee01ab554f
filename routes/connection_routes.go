package routes

import (
	"venturelink_server/controllers"
	"venturelink_server/services"

	"github.com/gorilla/mux"
)

// RegisterConnectionRoutes sets up connection routes under /api/connections.
func RegisterConnectionRoutes(r *mux.Router, connections *services.ConnectionService) {
	controller := controllers.NewConnectionController(connections)

	connectionRouter := r.PathPrefix("/api/connections").Subrouter()
	connectionRouter.HandleFunc("/between", controller.Between).Methods("GET")
	connectionRouter.HandleFunc("/{connectionId}", controller.Get).Methods("GET")
	connectionRouter.HandleFunc("/{connectionId}/toggle-block", controller.ToggleBlock).Methods("POST")
}
